package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainmocks "ferrule.dev/pkg/ferrule/internal/domain/mocks"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

func TestViewCmd_UsesRootOutputFlagByDefault(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	stubWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().View(mock.Anything, m.Path(defaultReportsPath)).Return(nil)

	_, err := executeCommand(t, newViewCmd(), "view")
	require.NoError(t, err)
}

func TestViewCmd_RootOutputFlagIsPassedThrough(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	stubWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().View(mock.Anything, m.Path("./reports/run.msgpack")).Return(nil)

	_, err := executeCommand(t, newViewCmd(), "view", "--output", "./reports/run.msgpack")
	require.NoError(t, err)
}

func TestViewCmd_ErrorIsReturned(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	stubWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().View(mock.Anything, mock.Anything).Return(errors.New("no saved reports"))

	_, err := executeCommand(t, newViewCmd(), "view")
	require.Error(t, err)
}

func TestViewCmd_PositionalArgsAreRejected(t *testing.T) {
	forbidWorkflow(t)

	_, err := executeCommand(t, newViewCmd(), "view", "./custom-reports")
	require.Error(t, err)
}
