package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ferrule.dev/pkg/ferrule/internal/domain"
	domainmocks "ferrule.dev/pkg/ferrule/internal/domain/mocks"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

func TestAnalyzeCmd_Defaults(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	stubWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Analyze(mock.Anything, mock.MatchedBy(func(args domain.AnalyzeArgs) bool {
		return len(args.Paths) == 1 && args.Paths[0] == "./..." &&
			args.Parallel == defaultParallel &&
			args.Timeout == defaultTimeout &&
			args.Reports == m.Path(defaultReportsPath)
	})).Return(m.RunReport{}, nil)

	_, err := executeCommand(t, newAnalyzeCmd(), "analyze")
	require.NoError(t, err)
}

func TestAnalyzeCmd_Flags(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	stubWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Analyze(mock.Anything, mock.MatchedBy(func(args domain.AnalyzeArgs) bool {
		return assert.ObjectsAreEqual([]m.Path{"./src/...", "./benches"}, args.Paths) &&
			assert.ObjectsAreEqual([]string{"_gen\\.rs$"}, args.Exclude) &&
			args.Parallel == 2 &&
			args.Timeout == 5*time.Second &&
			args.Reports == m.Path("out/run.msgpack")
	})).Return(m.RunReport{}, nil)

	_, err := executeCommand(t, newAnalyzeCmd(),
		"analyze", "--parallel", "2", "--timeout", "5s",
		"-x", `_gen\.rs$`, "-o", "out/run.msgpack",
		"./src/...", "./benches",
	)
	require.NoError(t, err)
}

func TestAnalyzeCmd_RuleSelection(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	cfg := stubWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Analyze(mock.Anything, mock.Anything).Return(m.RunReport{}, nil)

	_, err := executeCommand(t, newAnalyzeCmd(), "analyze", "--select", "naming,complexity", "--ignore", "complexity")
	require.NoError(t, err)

	assert.Equal(t, []string{"naming", "complexity"}, cfg.Select)
	assert.Equal(t, []string{"complexity"}, cfg.Ignore)

	enabled, err := cfg.Enabled()
	require.NoError(t, err)
	assert.Equal(t, []m.RuleID{"naming"}, enabled)
}

func TestAnalyzeCmd_UnknownRuleFailsFast(t *testing.T) {
	forbidWorkflow(t)

	_, err := executeCommand(t, newAnalyzeCmd(), "analyze", "--select", "magic_numbr")
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "select", cfgErr.Key)
	assert.Contains(t, cfgErr.Suggestions, "magic-number")
}

func TestAnalyzeCmd_ErrorsExitNonZero(t *testing.T) {
	tests := []struct {
		name    string
		summary m.Summary
		wantErr bool
	}{
		{
			name:    "warnings only",
			summary: m.Summary{Files: 1, Findings: 1, BySeverity: map[m.Severity]int{m.SeverityWarning: 1}},
		},
		{
			name:    "error finding",
			summary: m.Summary{Files: 1, Findings: 1, BySeverity: map[m.Severity]int{m.SeverityError: 1}},
			wantErr: true,
		},
		{
			name:    "failed file",
			summary: m.Summary{Files: 1, Failed: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockWorkflow := domainmocks.NewMockWorkflow(t)
			stubWorkflow(t, mockWorkflow)

			mockWorkflow.EXPECT().Analyze(mock.Anything, mock.Anything).Return(m.RunReport{Summary: tt.summary}, nil)

			_, err := executeCommand(t, newAnalyzeCmd(), "analyze")
			if tt.wantErr {
				require.ErrorIs(t, err, errAnalysisFailed)
				return
			}

			require.NoError(t, err)
		})
	}
}
