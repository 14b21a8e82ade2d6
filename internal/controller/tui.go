package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

const recentFailures = 5

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	pathStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	runErr  error
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start initializes the UI. In analyze mode a progress display runs until
// DisplayRunReport is called.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options)
	if cfg.mode != ModeAnalyze {
		return nil
	}

	model := newProgressModel(len(cfg.files))
	if width, _, ok := p.size(); ok {
		model = model.resize(width)
	}

	p.run(tea.NewProgram(model, tea.WithOutput(p.output), tea.WithContext(ctx)))

	return nil
}

func (p *TUI) run(program *tea.Program) {
	done := make(chan struct{})

	p.mu.Lock()
	p.program = program
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)

		_, err := program.Run()

		p.mu.Lock()
		p.runErr = err
		p.mu.Unlock()
	}()
}

func (p *TUI) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// finish waits for the running program to exit.
func (p *TUI) finish(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.program = nil
	p.done = nil

	err := p.runErr
	p.runErr = nil

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	return nil
}

func (p *TUI) size() (int, int, bool) {
	f, ok := p.output.(*os.File)
	if !ok {
		return 0, 0, false
	}

	width, height, err := term.GetSize(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
	if err != nil {
		return 0, 0, false
	}

	return width, height, true
}

// Close stops any running display.
func (p *TUI) Close(ctx context.Context) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	_ = p.finish(ctx)
}

// Wait blocks until the user closes the findings browser.
func (p *TUI) Wait(ctx context.Context) {
	_ = p.finish(ctx)
}

// DisplayConcurrencyInfo shows concurrency settings.
func (p *TUI) DisplayConcurrencyInfo(_ context.Context, files int, parallel int) {
	p.send(concurrencyMsg{files: files, parallel: parallel})
}

// DisplayFileDone advances the progress display.
func (p *TUI) DisplayFileDone(_ context.Context, path m.Path, status m.Status) {
	p.send(fileDoneMsg{path: path, status: status})
}

// DisplayRunReport stops the progress display and shows the findings. Short
// reports are printed; longer ones open a scrollable browser.
func (p *TUI) DisplayRunReport(ctx context.Context, run m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.send(runDoneMsg{})

	if err := p.finish(ctx); err != nil {
		return err
	}

	model := newReportModel(run)
	if width, height, ok := p.size(); ok {
		model.width = width
		model.height = height
	}

	if !model.needsPagination() {
		_, err := fmt.Fprint(p.output, model.View())
		return err
	}

	p.run(tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen()))

	return nil
}

type concurrencyMsg struct {
	files    int
	parallel int
}

type fileDoneMsg struct {
	path   m.Path
	status m.Status
}

type runDoneMsg struct{}

// progressModel renders analysis progress.
type progressModel struct {
	spinner  spinner.Model
	prog     progress.Model
	total    int
	parallel int
	done     int
	failed   int
	skipped  int
	recent   []fileDoneMsg
	width    int
	finished bool
}

func newProgressModel(total int) progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return progressModel{
		spinner: sp,
		prog:    prog,
		total:   total,
		width:   80,
	}
}

func (pm progressModel) resize(width int) progressModel {
	if width > 0 {
		pm.width = width
		pm.prog.Width = width - 4
	}

	return pm
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case concurrencyMsg:
		pm.total = msg.files
		pm.parallel = msg.parallel

		return pm, nil
	case fileDoneMsg:
		return pm.fileDone(msg)
	case runDoneMsg:
		pm.finished = true
		return pm, tea.Quit
	case spinner.TickMsg:
		if pm.finished {
			return pm, nil
		}

		var cmd tea.Cmd
		pm.spinner, cmd = pm.spinner.Update(msg)

		return pm, cmd
	case tea.WindowSizeMsg:
		return pm.resize(msg.Width), nil
	case progress.FrameMsg:
		model, cmd := pm.prog.Update(msg)
		pm.prog = model.(progress.Model)

		return pm, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return pm, tea.Quit
		}
	}

	return pm, nil
}

func (pm progressModel) fileDone(msg fileDoneMsg) (tea.Model, tea.Cmd) {
	pm.done++

	switch msg.status {
	case m.Failed:
		pm.failed++
	case m.Skipped:
		pm.skipped++
	case m.Analyzed:
	}

	if msg.status != m.Analyzed {
		pm.recent = append(pm.recent, msg)
		if len(pm.recent) > recentFailures {
			pm.recent = pm.recent[len(pm.recent)-recentFailures:]
		}
	}

	if pm.total == 0 {
		return pm, nil
	}

	return pm, pm.prog.SetPercent(float64(pm.done) / float64(pm.total))
}

func (pm progressModel) View() string {
	var b strings.Builder

	header := fmt.Sprintf("Analyzing %d file(s)", pm.total)
	if pm.parallel > 0 {
		header = fmt.Sprintf("%s with %d worker(s)", header, pm.parallel)
	}

	if pm.finished {
		header = "done: " + header
	} else {
		header = pm.spinner.View() + " " + header
	}

	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %d/%d analyzed", pm.done, pm.total)

	if pm.failed > 0 {
		fmt.Fprintf(&b, ", %s", errorStyle.Render(fmt.Sprintf("%d failed", pm.failed)))
	}

	if pm.skipped > 0 {
		fmt.Fprintf(&b, ", %s", faintStyle.Render(fmt.Sprintf("%d skipped", pm.skipped)))
	}

	b.WriteString("\n")

	for _, item := range pm.recent {
		style := faintStyle
		if item.status == m.Failed {
			style = errorStyle
		}

		name := truncate(string(item.path), pm.width-14)
		fmt.Fprintf(&b, "  %s %s\n", style.Render(fmt.Sprintf("%8s", item.status)), name)
	}

	b.WriteString("\n")

	if pm.finished {
		b.WriteString(pm.prog.ViewAs(1.0))
	} else {
		b.WriteString(pm.prog.View())
	}

	b.WriteString("\n")

	return b.String()
}

// reportModel is a scrollable view over the findings of a run.
type reportModel struct {
	lines    []string
	summary  m.Summary
	height   int
	width    int
	offset   int
	quitting bool
}

func newReportModel(run m.RunReport) reportModel {
	return reportModel{
		lines:   reportLines(run),
		summary: run.Summary,
	}
}

func reportLines(run m.RunReport) []string {
	var lines []string

	for _, report := range run.Reports {
		switch report.Status {
		case m.Failed:
			lines = append(lines, fmt.Sprintf("%s %s",
				pathStyle.Render(string(report.Path)),
				errorStyle.Render("failed: "+failureDetail(report))))
		case m.Skipped:
			continue
		case m.Analyzed:
			if len(report.Findings) == 0 {
				continue
			}

			lines = append(lines, fmt.Sprintf("%s %s",
				pathStyle.Render(string(report.Path)),
				faintStyle.Render(fmt.Sprintf("(%d)", len(report.Findings)))))

			for _, f := range report.Findings {
				lines = append(lines, fmt.Sprintf("  %s %s %s %s",
					faintStyle.Render(fmt.Sprintf("%4d:%-3d", f.Position.Line, f.Position.Column)),
					severityStyle(f.Severity).Render(fmt.Sprintf("%-7s", f.Severity)),
					faintStyle.Render("["+string(f.Rule)+"]"),
					f.Message))

				if f.Suggestion != "" {
					lines = append(lines, "             "+okStyle.Render("help: ")+f.Suggestion)
				}
			}
		}
	}

	return lines
}

func severityStyle(s m.Severity) lipgloss.Style {
	switch s {
	case m.SeverityError:
		return errorStyle
	case m.SeverityWarning:
		return warningStyle
	case m.SeverityInfo:
	}

	return infoStyle
}

func (rm reportModel) Init() tea.Cmd {
	return nil
}

func (rm reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.height = msg.Height
		rm.width = msg.Width

		return rm, nil

	case tea.KeyMsg:
		return rm.handleKeyPress(msg)
	}

	return rm, nil
}

func (rm reportModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // We only handle specific navigation keys
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		rm.quitting = true
		return rm, tea.Quit
	default:
		// Handle other key types in the string switch below
	}

	switch msg.String() {
	case "q":
		rm.quitting = true
		return rm, tea.Quit

	case "down", "j":
		return rm.scrollTo(rm.offset + 1), nil

	case "up", "k":
		return rm.scrollTo(rm.offset - 1), nil

	case "g", "home":
		return rm.scrollTo(0), nil

	case "G", "end":
		return rm.scrollTo(rm.maxOffset()), nil

	case "d", "pgdown":
		return rm.scrollTo(rm.offset + rm.itemsPerPage()), nil

	case "u", "pgup":
		return rm.scrollTo(rm.offset - rm.itemsPerPage()), nil
	}

	return rm, nil
}

func (rm reportModel) scrollTo(offset int) reportModel {
	rm.offset = min(max(offset, 0), rm.maxOffset())
	return rm
}

func (rm reportModel) itemsPerPage() int {
	if rm.height == 0 {
		return 10
	}
	// Reserved lines:
	// - Title + blank: 2 lines
	// - Summary section: 3 lines
	// - Footer (pagination): 3 lines
	reserved := 8

	available := rm.height - reserved
	if available < 1 {
		return 1
	}

	return available
}

func (rm reportModel) maxOffset() int {
	available := rm.itemsPerPage()
	if len(rm.lines) <= available {
		return 0
	}

	return len(rm.lines) - available
}

func (rm reportModel) needsPagination() bool {
	if rm.height == 0 {
		return false
	}

	return len(rm.lines) > rm.itemsPerPage()
}

func (rm reportModel) View() string {
	if rm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("ferrule findings"))
	b.WriteString("\n\n")

	if len(rm.lines) == 0 {
		b.WriteString("  " + okStyle.Render("no findings") + "\n")
	}

	paginate := rm.needsPagination()

	visible := rm.lines
	if paginate {
		end := min(rm.offset+rm.itemsPerPage(), len(rm.lines))
		visible = rm.lines[rm.offset:end]
	}

	for _, line := range visible {
		if rm.width > 0 {
			line = truncateStyled(line, rm.width)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString("  " + SummaryLine(rm.summary) + "\n")

	if paginate {
		end := min(rm.offset+rm.itemsPerPage(), len(rm.lines))
		fmt.Fprintf(&b, "\n  Lines %d-%d of %d\n", rm.offset+1, end, len(rm.lines))
		b.WriteString("  ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit\n")
	}

	return b.String()
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}

	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}

	return runewidth.Truncate(value, width-3, "...")
}

// truncateStyled shortens a line that may carry ANSI styling.
func truncateStyled(value string, width int) string {
	if lipgloss.Width(value) <= width {
		return value
	}

	return lipgloss.NewStyle().MaxWidth(width).Render(value)
}
