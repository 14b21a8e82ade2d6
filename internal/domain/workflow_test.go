package domain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ferrule.dev/pkg/ferrule/internal/adapter"
	adaptermocks "ferrule.dev/pkg/ferrule/internal/adapter/mocks"
	controllermocks "ferrule.dev/pkg/ferrule/internal/controller/mocks"
	"ferrule.dev/pkg/ferrule/internal/domain"
	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newEngine(t *testing.T, mutate func(cfg *domain.Config)) domain.Engine {
	t.Helper()

	cfg := domain.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := domain.NewEngine(cfg, adapter.NewLocalRustFileAdapter())
	require.NoError(t, err)

	return engine
}

// expectRun registers the calls every analysis run makes on the UI.
func expectRun(ui *controllermocks.MockUI, files, parallel int) {
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, files, parallel).Return()
	ui.EXPECT().DisplayFileDone(mock.Anything, mock.Anything, mock.Anything).Return().Times(files)
	ui.EXPECT().DisplayRunReport(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Wait(mock.Anything).Return()
	ui.EXPECT().Close(mock.Anything).Return()
}

const (
	lintedSource = "fn main() {\n    let answer = 42;\n}\n"
	brokenSource = "fn broken( {\n"
	genSource    = "// @generated by build.rs\nfn x() { let y = 99; }\n"
)

func TestWorkflow_Analyze(t *testing.T) {
	t.Run("reports every file independently", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.rs"), lintedSource)
		writeFile(t, filepath.Join(root, "b.rs"), brokenSource)
		writeFile(t, filepath.Join(root, "nested", "gen.rs"), genSource)
		writeFile(t, filepath.Join(root, "notes.txt"), "not rust")

		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		expectRun(ui, 3, 2)

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, newEngine(t, nil))

		run, err := wf.Analyze(context.Background(), domain.AnalyzeArgs{
			Paths:    []m.Path{m.Path(root + "/...")},
			Parallel: 2,
		})
		require.NoError(t, err)

		require.Len(t, run.Reports, 3)
		assert.Equal(t, m.Path(filepath.Join(root, "a.rs")), run.Reports[0].Path)
		assert.Equal(t, m.Analyzed, run.Reports[0].Status)
		assert.NotEmpty(t, run.Reports[0].Findings)
		assert.NotEmpty(t, run.Reports[0].Hash)

		assert.Equal(t, m.Failed, run.Reports[1].Status)
		assert.Equal(t, "parsing", run.Reports[1].Stage)
		assert.Empty(t, run.Reports[1].Findings)

		assert.Equal(t, m.Skipped, run.Reports[2].Status)

		assert.Equal(t, 3, run.Summary.Files)
		assert.Equal(t, 1, run.Summary.Failed)
		assert.Equal(t, 1, run.Summary.Skipped)
		assert.Equal(t, len(run.Reports[0].Findings), run.Summary.Findings)
	})

	t.Run("saves reports", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.rs"), lintedSource)

		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		expectRun(ui, 1, 1)
		store.EXPECT().SaveReports(m.Path("out.msgpack"), mock.Anything).
			Run(func(_ m.Path, run m.RunReport) {
				assert.Len(t, run.Reports, 1)
			}).
			Return(nil)

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, newEngine(t, nil))

		_, err := wf.Analyze(context.Background(), domain.AnalyzeArgs{
			Paths:    []m.Path{m.Path(root)},
			Parallel: 1,
			Reports:  "out.msgpack",
		})
		require.NoError(t, err)
	})

	t.Run("save failure is returned", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.rs"), lintedSource)

		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 1).Return()
		ui.EXPECT().DisplayFileDone(mock.Anything, mock.Anything, m.Analyzed).Return()
		ui.EXPECT().Close(mock.Anything).Return()
		store.EXPECT().SaveReports(mock.Anything, mock.Anything).Return(errors.New("disk full"))

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, newEngine(t, nil))

		_, err := wf.Analyze(context.Background(), domain.AnalyzeArgs{
			Paths:    []m.Path{m.Path(root)},
			Parallel: 1,
			Reports:  "out.msgpack",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("missing path fails before the ui starts", func(t *testing.T) {
		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, newEngine(t, nil))

		_, err := wf.Analyze(context.Background(), domain.AnalyzeArgs{
			Paths: []m.Path{m.Path(filepath.Join(t.TempDir(), "missing"))},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "get sources")
	})

	t.Run("groups duplicates across files", func(t *testing.T) {
		body := `(items: &[u32]) -> u32 {
    let mut total = 0;
    for item in items {
        if *item > 10 {
            total += item * 2;
        } else {
            total += item;
        }
    }
    total
}
`
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.rs"), "fn left"+body)
		writeFile(t, filepath.Join(root, "b.rs"), "fn right"+body)

		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		expectRun(ui, 2, 4)

		engine := newEngine(t, func(cfg *domain.Config) {
			cfg.Select = []string{string(rules.DuplicateCodeID)}
			cfg.Rules.DuplicateCode.ProjectWide = true
		})
		require.True(t, engine.ProjectWide())

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, engine)

		run, err := wf.Analyze(context.Background(), domain.AnalyzeArgs{
			Paths:    []m.Path{m.Path(root)},
			Parallel: 4,
		})
		require.NoError(t, err)
		require.Len(t, run.Reports, 2)

		assert.Empty(t, run.Reports[0].Findings)
		require.Len(t, run.Reports[1].Findings, 1)

		f := run.Reports[1].Findings[0]
		assert.Equal(t, rules.DuplicateCodeID, f.Rule)
		assert.Contains(t, f.Message, "function `right` duplicates the function `left` at "+filepath.Join(root, "a.rs"))
	})

	t.Run("cancellation skips unstarted files", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.rs"), lintedSource)
		writeFile(t, filepath.Join(root, "b.rs"), lintedSource)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 2, 1).
			Run(func(context.Context, int, int) { cancel() }).
			Return()
		ui.EXPECT().DisplayRunReport(mock.Anything, mock.Anything).Return(nil)
		ui.EXPECT().Wait(mock.Anything).Return()
		ui.EXPECT().Close(mock.Anything).Return()

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, newEngine(t, nil))

		run, err := wf.Analyze(ctx, domain.AnalyzeArgs{Paths: []m.Path{m.Path(root)}, Parallel: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)

		require.Len(t, run.Reports, 2)
		for _, report := range run.Reports {
			assert.Equal(t, m.Skipped, report.Status, report.Path)
			assert.Equal(t, "not analysed: context canceled", report.Error)
			assert.Empty(t, report.Findings)
		}

		assert.Equal(t, 2, run.Summary.Skipped)
	})

	t.Run("slow files time out", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.rs"), lintedSource)

		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		expectRun(ui, 1, 1)

		engine := &slowEngine{Engine: newEngine(t, nil), delay: 500 * time.Millisecond}
		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, engine)

		run, err := wf.Analyze(context.Background(), domain.AnalyzeArgs{
			Paths:    []m.Path{m.Path(root)},
			Parallel: 1,
			Timeout:  20 * time.Millisecond,
		})
		require.NoError(t, err)
		require.Len(t, run.Reports, 1)
		assert.Equal(t, m.Failed, run.Reports[0].Status)
		assert.Contains(t, run.Reports[0].Error, domain.ErrTimeout.Error())
		assert.Empty(t, run.Reports[0].Stage)
	})
}

type slowEngine struct {
	domain.Engine
	delay time.Duration
}

func (e *slowEngine) Analyze(file m.File) *domain.Run {
	time.Sleep(e.delay)
	return e.Engine.Analyze(file)
}

func TestWorkflow_View(t *testing.T) {
	t.Run("displays saved run", func(t *testing.T) {
		saved := m.RunReport{
			Version: adapter.ReportVersion,
			Reports: []m.Report{{Path: "a.rs", Status: m.Analyzed}},
		}

		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		store.EXPECT().LoadReports(m.Path("reports")).Return(saved, nil)
		ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
		ui.EXPECT().DisplayRunReport(mock.Anything, saved).Return(nil)
		ui.EXPECT().Wait(mock.Anything).Return()
		ui.EXPECT().Close(mock.Anything).Return()

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, newEngine(t, nil))
		require.NoError(t, wf.View(context.Background(), "reports"))
	})

	t.Run("missing reports", func(t *testing.T) {
		ui := controllermocks.NewMockUI(t)
		store := adaptermocks.NewMockReportStore(t)
		store.EXPECT().LoadReports(mock.Anything).Return(m.RunReport{}, adapter.ErrNoReports)

		wf := domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(), store, ui, newEngine(t, nil))

		err := wf.View(context.Background(), "reports")
		assert.ErrorIs(t, err, adapter.ErrNoReports)
	})
}
