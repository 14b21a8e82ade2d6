package domain

import (
	"fmt"
	"log/slog"
	"sort"

	"ferrule.dev/pkg/ferrule/internal/adapter"
	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// Run is the state of one per-file analysis. It is owned by a single
// goroutine.
type Run struct {
	Path  m.Path
	Hash  string
	Stage Stage
	// File is the Source Model; it is released once the run is finalized.
	File     *syntax.File
	Findings []m.Finding
	// Candidates are the duplication candidates kept for project-wide
	// grouping.
	Candidates []Candidate
	Skipped    bool
	// Note says why a skipped run was skipped.
	Note string
	// Err is a *syntax.ParseError or an *InternalError when Stage is
	// StageFailed.
	Err error
	// FailedAt is the stage the run stopped in.
	FailedAt Stage

	rule   m.RuleID
	report m.Report
}

func (r *Run) enter(stage Stage) {
	slog.Debug("engine stage", "path", r.Path, "from", r.Stage, "to", stage)
	r.Stage = stage
}

func (r *Run) fail(err error) {
	slog.Debug("engine failed", "path", r.Path, "stage", r.Stage, "error", err)
	r.FailedAt = r.Stage
	r.Stage = StageFailed
	r.Err = err
	r.File = nil
	r.Findings = nil
	r.Candidates = nil
}

// Engine analyses single files. A run is all-or-nothing: a failed run
// carries an error and no findings.
type Engine interface {
	// Analyze parses, traverses and aggregates one file. The returned run is
	// complete unless suppression and ordering are still pending in
	// Finalize.
	Analyze(file m.File) *Run
	// Finalize merges extra findings produced after the traversal, applies
	// suppression and ordering, and turns the run into a report.
	Finalize(run *Run, extra []m.Finding) m.Report
	// Run is Analyze followed by Finalize.
	Run(file m.File) m.Report
	// ProjectWide reports whether duplication is grouped across files.
	ProjectWide() bool
	// GroupProject groups the candidates of index across files.
	GroupProject(index *ProjectIndex) map[m.Path][]m.Finding
}

type engine struct {
	adapter.RustFileAdapter
	cfg      Config
	registry *Registry
	resolver *SuppressionResolver
	detector *DuplicationDetector
}

// NewEngine validates cfg and builds an engine parsing through parser.
func NewEngine(cfg Config, parser adapter.RustFileAdapter) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	return &engine{
		RustFileAdapter: parser,
		cfg:             cfg,
		registry:        registry,
		resolver:        NewSuppressionResolver(registry),
		detector:        NewDuplicationDetector(cfg.Rules.DuplicateCode, registry.Severity(rules.DuplicateCodeID)),
	}, nil
}

func (e *engine) Analyze(file m.File) (run *Run) {
	run = &Run{Path: file.Path, Hash: file.Hash, Stage: StageIdle}

	defer func() {
		if r := recover(); r != nil {
			run.fail(&InternalError{Stage: run.Stage, Path: file.Path, Rule: run.rule, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	run.enter(StageParsing)

	f, err := e.Parse(file.Path, file.Content, syntax.Options{DirectiveMarkers: e.cfg.Suppression.Markers})
	if err != nil {
		run.fail(err)
		return run
	}

	if f.IsGenerated(e.cfg.Suppression.GeneratedMarkers) {
		run.Skipped = true
		run.enter(StageDone)

		return run
	}

	run.File = f

	run.enter(StageTraversing)
	run.Findings = e.traverse(run, f)

	run.enter(StageAggregating)

	if e.registry.Enabled(rules.DuplicateCodeID) {
		candidates := e.detector.Candidates(f)

		if e.ProjectWide() {
			run.Candidates = candidates
		} else {
			grouped := e.detector.Findings(e.detector.Group(candidates))
			run.Findings = append(run.Findings, grouped[f.Path]...)
		}
	}

	findings, err := e.checked(f, run.Findings)
	if err != nil {
		run.fail(err)
		return run
	}

	run.Findings = findings

	return run
}

// traverse walks the tree once in pre-order, then the token stream, and
// dispatches every visit to the subscribed rules in registry order.
func (e *engine) traverse(run *Run, f *syntax.File) []m.Finding {
	contexts := make([]*rules.Context, len(e.registry.visitors))
	for i, v := range e.registry.visitors {
		contexts[i] = rules.NewContext(f, v.rule.ID(), v.severity)
	}

	var findings []m.Finding

	f.Walk(func(id syntax.NodeID, _ int) bool {
		for _, idx := range e.registry.forNode(f.Node(id).Kind) {
			v := e.registry.visitors[idx]
			run.rule = v.rule.ID()
			findings = append(findings, v.rule.Evaluate(contexts[idx].AtNode(id))...)
		}

		return true
	})

	for i, tok := range f.Tokens {
		for _, idx := range e.registry.forToken(tok.Kind) {
			v := e.registry.visitors[idx]
			run.rule = v.rule.ID()
			findings = append(findings, v.rule.Evaluate(contexts[idx].AtToken(i))...)
		}
	}

	run.rule = ""

	return findings
}

// checked enforces span containment and drops repeated (rule, span) pairs,
// keeping the first occurrence.
func (e *engine) checked(f *syntax.File, findings []m.Finding) ([]m.Finding, error) {
	total := f.Span()
	seen := make(map[string]bool, len(findings))
	out := findings[:0:0]

	for _, finding := range findings {
		if !total.Contains(finding.Span) || finding.Span.Start > finding.Span.End {
			return nil, &InternalError{
				Stage: StageAggregating,
				Path:  f.Path,
				Rule:  finding.Rule,
				Err:   fmt.Errorf("finding span %s outside source span %s", finding.Span, total),
			}
		}

		key := finding.Key()
		if seen[key] {
			continue
		}

		seen[key] = true
		out = append(out, finding)
	}

	return out, nil
}

func (e *engine) Finalize(run *Run, extra []m.Finding) m.Report {
	report := m.Report{Path: run.Path, Hash: run.Hash}

	switch {
	case run.Stage == StageFailed:
		report.Status = m.Failed
		report.Error = run.Err.Error()

		if run.FailedAt != StageIdle {
			report.Stage = run.FailedAt.String()
		}

		return report
	case run.Skipped:
		report.Status = m.Skipped
		report.Error = run.Note

		return report
	case run.Stage == StageDone:
		report.Status = m.Analyzed
		report.Findings = run.Findings

		return report
	}

	f := run.File

	findings, err := e.checked(f, append(run.Findings, extra...))
	if err != nil {
		run.fail(err)
		return e.Finalize(run, nil)
	}

	kept, meta := e.resolver.Resolve(f, findings)
	findings = append(kept, meta...)

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}

		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}

		return e.registry.Rank(a.Rule) < e.registry.Rank(b.Rule)
	})

	run.Findings = findings
	run.File = nil
	run.enter(StageDone)

	report.Status = m.Analyzed
	report.Findings = findings

	return report
}

func (e *engine) Run(file m.File) m.Report {
	return e.Finalize(e.Analyze(file), nil)
}

func (e *engine) ProjectWide() bool {
	return e.cfg.Rules.DuplicateCode.ProjectWide && e.registry.Enabled(rules.DuplicateCodeID)
}

func (e *engine) GroupProject(index *ProjectIndex) map[m.Path][]m.Finding {
	return index.Findings(e.detector)
}
