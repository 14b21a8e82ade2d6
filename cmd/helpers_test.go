package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"ferrule.dev/pkg/ferrule/internal/controller"
	"ferrule.dev/pkg/ferrule/internal/domain"
)

// stubWorkflow makes commands use wf and records the configuration they built it with.
func stubWorkflow(t *testing.T, wf domain.Workflow) *domain.Config {
	t.Helper()

	var got domain.Config

	original := newWorkflow
	newWorkflow = func(cfg domain.Config, _ controller.UI) (domain.Workflow, error) {
		got = cfg
		return wf, nil
	}

	t.Cleanup(func() { newWorkflow = original })

	return &got
}

// forbidWorkflow fails the test when a command builds a workflow.
func forbidWorkflow(t *testing.T) {
	t.Helper()

	original := newWorkflow
	newWorkflow = func(domain.Config, controller.UI) (domain.Workflow, error) {
		require.FailNow(t, "workflow must not be built")
		return nil, nil
	}

	t.Cleanup(func() { newWorkflow = original })
}

// executeCommand runs sub under a fresh root command and returns its output.
func executeCommand(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()

	t.Setenv("FERRULE_LOG_FILENAME", filepath.Join(t.TempDir(), "ferrule.log"))

	cmd := newRootCmd()
	cmd.AddCommand(sub)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}
