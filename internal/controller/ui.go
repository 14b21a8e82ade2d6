// Package controller provides the output adapters that display analysis
// progress and findings.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeAnalyze StartMode = iota
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode  StartMode
	files []m.Path
}

// WithAnalyzeMode sets the UI to report progress over files.
func WithAnalyzeMode(files []m.Path) StartOption {
	return func(c *StartConfig) {
		c.mode = ModeAnalyze
		c.files = files
	}
}

// WithViewMode sets the UI to browse a finished run.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func newStartConfig(options []StartOption) StartConfig {
	var cfg StartConfig
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// UI defines the interface for displaying analysis runs.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayConcurrencyInfo(ctx context.Context, files int, parallel int)
	// DisplayFileDone is called from worker goroutines as files finish.
	DisplayFileDone(ctx context.Context, path m.Path, status m.Status)
	DisplayRunReport(ctx context.Context, run m.RunReport) error
}

// NewUI returns the interactive TUI when useTTY is set and the plain text UI
// otherwise.
func NewUI(cmd *cobra.Command, useTTY bool) UI {
	if useTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}
