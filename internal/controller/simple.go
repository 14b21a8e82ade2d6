package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

// SimpleUI implements UI by printing plain text to the command output.
type SimpleUI struct {
	cmd *cobra.Command

	mu    sync.Mutex
	mode  StartMode
	total int
	done  int
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options)

	s.mu.Lock()
	s.mode = cfg.mode
	s.total = len(cfg.files)
	s.done = 0
	s.mu.Unlock()

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, files int, parallel int) {
	if err := ctx.Err(); err != nil {
		return
	}

	workers := fmt.Sprintf("%d worker(s)", parallel)
	if parallel <= 0 {
		workers = "unlimited workers"
	}

	s.printf("Analyzing %d file(s) with %s\n", files, workers)
}

// DisplayFileDone reports files that did not analyse cleanly. Analysed files
// only advance the counter.
func (s *SimpleUI) DisplayFileDone(ctx context.Context, path m.Path, status m.Status) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.done++

	if status == m.Analyzed {
		return
	}

	s.printf("[%d/%d] %s %s\n", s.done, s.total, statusLabel(status), path)
}

// DisplayRunReport prints every finding and a per-rule summary table.
func (s *SimpleUI) DisplayRunReport(ctx context.Context, run m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, report := range run.Reports {
		switch report.Status {
		case m.Failed:
			s.printf("%s: %s %s\n", report.Path, color.RedString("failed"), failureDetail(report))
		case m.Skipped:
			continue
		case m.Analyzed:
			for _, finding := range report.Findings {
				s.printf("%s\n", FormatFinding(report.Path, finding, true))

				if finding.Suggestion != "" {
					s.printf("    %s %s\n", color.CyanString("help:"), finding.Suggestion)
				}
			}
		}
	}

	s.printf("\n%s", renderSummaryTable(run.Summary))
	s.printf("%s\n", SummaryLine(run.Summary))

	return nil
}

// FormatFinding renders a finding as path:line:col: severity [rule] message.
func FormatFinding(path m.Path, f m.Finding, colored bool) string {
	severity := f.Severity.String()
	if colored {
		severity = severityColor(f.Severity).Sprint(severity)
	}

	return fmt.Sprintf("%s:%d:%d: %s [%s] %s", path, f.Position.Line, f.Position.Column, severity, f.Rule, f.Message)
}

// SummaryLine renders the one-line run totals.
func SummaryLine(summary m.Summary) string {
	parts := []string{fmt.Sprintf("%d finding(s) in %d file(s)", summary.Findings, summary.Files)}

	if n := summary.BySeverity[m.SeverityError]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", n))
	}

	if summary.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", summary.Failed))
	}

	if summary.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", summary.Skipped))
	}

	return strings.Join(parts, ", ")
}

func failureDetail(report m.Report) string {
	if report.Stage == "" {
		return report.Error
	}

	return fmt.Sprintf("while %s: %s", report.Stage, report.Error)
}

func severityColor(s m.Severity) *color.Color {
	switch s {
	case m.SeverityError:
		return color.New(color.FgRed, color.Bold)
	case m.SeverityWarning:
		return color.New(color.FgYellow)
	case m.SeverityInfo:
	}

	return color.New(color.FgBlue)
}

func statusLabel(status m.Status) string {
	switch status {
	case m.Failed:
		return color.RedString(status.String())
	case m.Skipped:
		return color.New(color.Faint).Sprint(status.String())
	case m.Analyzed:
	}

	return color.GreenString(status.String())
}

func renderSummaryTable(summary m.Summary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Rule", "Findings"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, id := range summary.Rules() {
		table.Append([]string{string(id), fmt.Sprintf("%d", summary.ByRule[id])})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", summary.Files),
		fmt.Sprintf("%d", summary.Findings),
	})

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
