// Package domain contains the analysis engine and the workflow that runs it
// over many files.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ferrule.dev/pkg/ferrule/internal/adapter"
	"ferrule.dev/pkg/ferrule/internal/controller"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

// ErrTimeout marks a file whose analysis exceeded the per-file timeout.
var ErrTimeout = errors.New("analysis timed out")

// AnalyzeArgs contains the arguments of an analysis run.
type AnalyzeArgs struct {
	Paths    []m.Path
	Exclude  []string
	Parallel int
	// Timeout bounds the analysis of a single file; zero disables it.
	Timeout time.Duration
	// Reports is where the run is saved; empty skips saving.
	Reports m.Path
}

// Workflow runs the engine over user projects.
type Workflow interface {
	Analyze(ctx context.Context, args AnalyzeArgs) (m.RunReport, error)
	View(ctx context.Context, reports m.Path) error
}

type workflow struct {
	adapter.ReportStore
	adapter.SourceFSAdapter
	controller.UI
	Engine
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	engine Engine,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		UI:              ui,
		Engine:          engine,
	}
}

// Analyze runs every discovered file through the engine. Files run
// concurrently and independently; a failing file is reported as failed and
// never aborts its siblings. Cancelling ctx stops scheduling new files: the
// ones that never started are reported as skipped, and the context error is
// returned along with the reports.
func (w *workflow) Analyze(ctx context.Context, args AnalyzeArgs) (m.RunReport, error) {
	files, err := w.Get(ctx, args.Paths, args.Exclude...)
	if err != nil {
		return m.RunReport{}, fmt.Errorf("get sources: %w", err)
	}

	slog.Info("Starting analysis", "files", len(files), "parallel", args.Parallel)

	if err := w.Start(ctx, controller.WithAnalyzeMode(files)); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.RunReport{}, err
	}

	w.DisplayConcurrencyInfo(ctx, len(files), args.Parallel)

	runs, runErr := w.analyzeFiles(ctx, files, args)

	reports := w.finalize(runs)
	run := m.RunReport{Reports: reports, Summary: m.Summarize(reports)}

	slog.Info("Analysis finished",
		"files", run.Summary.Files,
		"failed", run.Summary.Failed,
		"skipped", run.Summary.Skipped,
		"findings", run.Summary.Findings)

	if args.Reports != "" {
		if err := w.SaveReports(args.Reports, run); err != nil {
			w.Close(ctx)
			return run, fmt.Errorf("save reports: %w", err)
		}
	}

	if err := w.DisplayRunReport(ctx, run); err != nil {
		w.Close(ctx)
		return run, fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	if runErr != nil {
		return run, fmt.Errorf("analysis interrupted: %w", runErr)
	}

	return run, nil
}

// analyzeFiles runs the per-file engine stages concurrently. It returns once
// every started file finished: this is the barrier after which project-wide
// state may be built.
func (w *workflow) analyzeFiles(ctx context.Context, files []m.Path, args AnalyzeArgs) ([]*Run, error) {
	runs := make([]*Run, 0, len(files))

	var runsMutex sync.Mutex

	var group errgroup.Group
	if args.Parallel > 0 {
		group.SetLimit(args.Parallel)
	}

	collect := func(run *Run) {
		if !w.ProjectWide() {
			run.report = w.Finalize(run, nil)
		}

		runsMutex.Lock()

		runs = append(runs, run)

		runsMutex.Unlock()
	}

	var stopped error

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			slog.Debug("Analysis cancelled", "error", err, "pending", len(files)-i)
			stopped = err

			for _, pending := range files[i:] {
				collect(cancelledRun(pending, err))
			}

			break
		}

		currentPath := path

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				collect(cancelledRun(currentPath, err))
				return nil
			}

			run := w.analyzeFile(currentPath, args.Timeout)
			if run.Stage == StageFailed {
				slog.Warn("File analysis failed", "path", run.Path, "stage", run.FailedAt, "error", run.Err)
			}

			collect(run)
			w.DisplayFileDone(ctx, run.Path, runStatus(run))

			return nil
		})
	}

	_ = group.Wait()

	if stopped == nil {
		stopped = ctx.Err()
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Path < runs[j].Path })

	return runs, stopped
}

// cancelledRun is the skipped run of a file whose analysis never started.
func cancelledRun(path m.Path, err error) *Run {
	return &Run{Path: path, Stage: StageDone, Skipped: true, Note: "not analysed: " + err.Error()}
}

func (w *workflow) analyzeFile(path m.Path, timeout time.Duration) *Run {
	file, err := w.Load(path)
	if err != nil {
		run := &Run{Path: path}
		run.fail(fmt.Errorf("read source: %w", err))

		return run
	}

	if timeout <= 0 {
		return w.Engine.Analyze(file)
	}

	done := make(chan *Run, 1)

	go func() {
		done <- w.Engine.Analyze(file)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case run := <-done:
		return run
	case <-timer.C:
		// the abandoned run finishes in the background and is dropped
		run := &Run{Path: file.Path, Hash: file.Hash}
		run.fail(fmt.Errorf("%w after %s", ErrTimeout, timeout))

		return run
	}
}

// finalize turns runs into reports. In project-wide mode the duplication
// candidates of all files are merged here, after the barrier, by this
// goroutine alone.
func (w *workflow) finalize(runs []*Run) []m.Report {
	reports := make([]m.Report, 0, len(runs))

	if !w.ProjectWide() {
		for _, run := range runs {
			reports = append(reports, run.report)
		}

		return reports
	}

	index := NewProjectIndex()
	for _, run := range runs {
		index.Add(run.Path, run.Candidates)
	}

	extra := w.GroupProject(index)

	for _, run := range runs {
		reports = append(reports, w.Finalize(run, extra[run.Path]))
	}

	return reports
}

func runStatus(run *Run) m.Status {
	switch {
	case run.Stage == StageFailed:
		return m.Failed
	case run.Skipped:
		return m.Skipped
	}

	return m.Analyzed
}

// View displays a previously saved run.
func (w *workflow) View(ctx context.Context, reports m.Path) error {
	run, err := w.LoadReports(reports)
	if err != nil {
		return fmt.Errorf("load reports: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	if err := w.DisplayRunReport(ctx, run); err != nil {
		w.Close(ctx)
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}
