package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

func TestReportModel_View(t *testing.T) {
	rm := newReportModel(sampleRun())

	view := rm.View()
	assert.Contains(t, view, "src/lib.rs")
	assert.Contains(t, view, "magic number 42")
	assert.Contains(t, view, "failed: while parsing")
	assert.NotContains(t, view, "src/gen.rs")
	assert.NotContains(t, view, "q: quit")
	assert.False(t, rm.needsPagination())
}

func TestReportModel_Scrolling(t *testing.T) {
	var findings []m.Finding
	for i := range 40 {
		findings = append(findings, m.Finding{
			Rule:     "magic-number",
			Position: m.Position{Line: i + 1, Column: 1},
			Message:  "magic number",
		})
	}

	reports := []m.Report{{Path: "big.rs", Status: m.Analyzed, Findings: findings}}
	rm := newReportModel(m.RunReport{Reports: reports, Summary: m.Summarize(reports)})

	model, _ := rm.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	rm = model.(reportModel)
	require.True(t, rm.needsPagination())
	assert.Equal(t, 12, rm.itemsPerPage())
	assert.Equal(t, 41-12, rm.maxOffset())

	press := func(key string) {
		model, _ := rm.handleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		rm = model.(reportModel)
	}

	press("j")
	assert.Equal(t, 1, rm.offset)

	press("k")
	press("k")
	assert.Equal(t, 0, rm.offset)

	press("G")
	assert.Equal(t, rm.maxOffset(), rm.offset)

	press("d")
	assert.Equal(t, rm.maxOffset(), rm.offset)

	press("g")
	assert.Equal(t, 0, rm.offset)
	assert.Contains(t, rm.View(), "Lines 1-12 of 41")

	model, cmd := rm.handleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, model.(reportModel).quitting)
	assert.NotNil(t, cmd)
}

func TestProgressModel_Update(t *testing.T) {
	pm := newProgressModel(4)

	model, _ := pm.Update(concurrencyMsg{files: 4, parallel: 2})
	model, _ = model.Update(fileDoneMsg{path: "a.rs", status: m.Analyzed})
	model, _ = model.Update(fileDoneMsg{path: "b.rs", status: m.Failed})
	model, _ = model.Update(fileDoneMsg{path: "c.rs", status: m.Skipped})
	pm = model.(progressModel)

	assert.Equal(t, 3, pm.done)
	assert.Equal(t, 1, pm.failed)
	assert.Equal(t, 1, pm.skipped)
	assert.Len(t, pm.recent, 2)

	view := pm.View()
	assert.Contains(t, view, "Analyzing 4 file(s) with 2 worker(s)")
	assert.Contains(t, view, "3/4 analyzed")
	assert.Contains(t, view, "b.rs")

	model, cmd := pm.Update(runDoneMsg{})
	assert.True(t, model.(progressModel).finished)
	assert.NotNil(t, cmd)
	assert.True(t, strings.HasPrefix(stripANSI(model.View()), "done: "))
}

func TestTUI_ViewModePrintsShortReports(t *testing.T) {
	var buf bytes.Buffer

	ui := NewTUI(&buf)
	ctx := context.Background()

	require.NoError(t, ui.Start(ctx, WithViewMode()))
	require.NoError(t, ui.DisplayRunReport(ctx, sampleRun()))
	ui.Wait(ctx)
	ui.Close(ctx)

	assert.Contains(t, buf.String(), "magic number 42")
}

func stripANSI(s string) string {
	var b strings.Builder

	inEscape := false

	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEscape = false
		case !inEscape:
			b.WriteRune(r)
		}
	}

	return b.String()
}
