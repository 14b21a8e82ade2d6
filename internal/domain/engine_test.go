package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferrule.dev/pkg/ferrule/internal/adapter"
	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

func newTestEngine(t *testing.T, mutate func(cfg *Config)) *engine {
	t.Helper()

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	eng, err := NewEngine(cfg, adapter.NewLocalRustFileAdapter())
	require.NoError(t, err)

	return eng.(*engine)
}

func selectRules(ids ...m.RuleID) func(*Config) {
	return func(cfg *Config) {
		cfg.Select = rules.IDStrings(ids)
	}
}

func source(path, content string) m.File {
	return m.File{Path: m.Path(path), Content: []byte(content)}
}

func messages(findings []m.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Message)
	}

	return out
}

const mixedSource = `use std::fs;

pub fn loadConfig(path: &str) -> String {
    // let old = fs::read(path);
    let text = fs::read_to_string(path).unwrap();
    if text.len() > 4096 {
        return String::new();
    }
    text
}

struct point { x: i32, y: i32 }
`

func TestEngine_Run(t *testing.T) {
	t.Run("findings are ordered and inside the source", func(t *testing.T) {
		e := newTestEngine(t, nil)

		report := e.Run(source("mixed.rs", mixedSource))
		require.Equal(t, m.Analyzed, report.Status)
		require.NotEmpty(t, report.Findings)

		total := m.Span{Start: 0, End: uint32(len(mixedSource))}
		for i, f := range report.Findings {
			assert.True(t, total.Contains(f.Span), "finding %d out of range", i)

			if i == 0 {
				continue
			}

			prev := report.Findings[i-1]
			assert.True(t, prev.Span.Start < f.Span.Start ||
				(prev.Span.Start == f.Span.Start && prev.Span.End <= f.Span.End),
				"findings %d and %d out of order", i-1, i)
		}

		ids := map[m.RuleID]bool{}
		for _, f := range report.Findings {
			ids[f.Rule] = true
		}

		for _, id := range []m.RuleID{
			rules.MagicNumberID, rules.CommentedCodeID, rules.MissingDocsID,
			rules.NamingID, rules.ErrorHandlingID,
		} {
			assert.True(t, ids[id], "expected a %s finding", id)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		e := newTestEngine(t, nil)

		first := e.Run(source("mixed.rs", mixedSource))
		second := e.Run(source("mixed.rs", mixedSource))
		assert.Equal(t, first, second)
	})

	t.Run("respects rule selection", func(t *testing.T) {
		e := newTestEngine(t, selectRules(rules.MagicNumberID))

		report := e.Run(source("mixed.rs", mixedSource))
		require.Len(t, report.Findings, 1)
		assert.Equal(t, rules.MagicNumberID, report.Findings[0].Rule)
		assert.Equal(t, 6, report.Findings[0].Position.Line)
	})

	t.Run("span order wins over rule order", func(t *testing.T) {
		e := newTestEngine(t, func(cfg *Config) {
			cfg.Select = []string{string(rules.NamingID), string(rules.MissingDocsID)}
			cfg.Rules.Order = []string{string(rules.NamingID)}
		})

		report := e.Run(source("order.rs", "pub struct bad_name;\n"))
		require.Len(t, report.Findings, 2)
		assert.Equal(t, rules.MissingDocsID, report.Findings[0].Rule)
		assert.Equal(t, rules.NamingID, report.Findings[1].Rule)
	})

	t.Run("equal spans follow rule order", func(t *testing.T) {
		e := newTestEngine(t, selectRules(rules.NamingID))
		register(e, &fixedRule{id: "late", span: m.Span{Start: 0, End: 2}})
		register(e, &fixedRule{id: "early", span: m.Span{Start: 0, End: 2}})
		e.registry.rank["early"] = 0
		e.registry.rank["late"] = 1

		report := e.Run(source("tie.rs", "fn f() {}\n"))
		require.Len(t, report.Findings, 2)
		assert.Equal(t, m.RuleID("early"), report.Findings[0].Rule)
		assert.Equal(t, m.RuleID("late"), report.Findings[1].Rule)
	})
}

func TestEngine_Failures(t *testing.T) {
	t.Run("parse error fails the file", func(t *testing.T) {
		e := newTestEngine(t, nil)

		run := e.Analyze(source("broken.rs", "fn broken( {\n"))
		require.Equal(t, StageFailed, run.Stage)
		assert.Equal(t, StageParsing, run.FailedAt)
		assert.Empty(t, run.Findings)

		var perr *syntax.ParseError
		require.ErrorAs(t, run.Err, &perr)

		report := e.Finalize(run, nil)
		assert.Equal(t, m.Failed, report.Status)
		assert.Equal(t, "parsing", report.Stage)
		assert.Contains(t, report.Error, "broken.rs")
		assert.Empty(t, report.Findings)
	})

	t.Run("invalid utf-8 fails the file", func(t *testing.T) {
		e := newTestEngine(t, nil)

		report := e.Run(m.File{Path: "bin.rs", Content: []byte("fn f() {}\xff")})
		assert.Equal(t, m.Failed, report.Status)
		assert.Contains(t, report.Error, "invalid UTF-8")
	})

	t.Run("generated files are skipped", func(t *testing.T) {
		e := newTestEngine(t, nil)

		report := e.Run(source("gen.rs", "// @generated by build.rs\nfn x() { let y = 99; }\n"))
		assert.Equal(t, m.Skipped, report.Status)
		assert.Empty(t, report.Findings)
	})

	t.Run("a panicking rule fails only its file", func(t *testing.T) {
		e := newTestEngine(t, nil)
		register(e, panicRule{})

		run := e.Analyze(source("panic.rs", "fn f() {}\n"))
		require.Equal(t, StageFailed, run.Stage)

		var ierr *InternalError
		require.True(t, errors.As(run.Err, &ierr))
		assert.Equal(t, StageTraversing, ierr.Stage)
		assert.Equal(t, m.RuleID("panicky"), ierr.Rule)

		report := e.Run(source("other.rs", "const A: u8 = 1;\n"))
		assert.Equal(t, m.Analyzed, report.Status)
	})

	t.Run("out of range span is an internal error", func(t *testing.T) {
		e := newTestEngine(t, nil)
		register(e, &fixedRule{span: m.Span{Start: 0, End: 500}})

		run := e.Analyze(source("range.rs", "fn f() {}\n"))
		require.Equal(t, StageFailed, run.Stage)
		assert.Equal(t, StageAggregating, run.FailedAt)
		assert.Contains(t, run.Err.Error(), "outside source span")
	})

	t.Run("repeated findings are reported once", func(t *testing.T) {
		e := newTestEngine(t, selectRules(rules.NamingID))
		register(e, &fixedRule{span: m.Span{Start: 0, End: 2}, twice: true})

		report := e.Run(source("dup.rs", "fn f() {}\n"))
		require.Equal(t, m.Analyzed, report.Status)
		assert.Len(t, report.Findings, 1)
	})
}

func TestEngine_DeepNestingScenario(t *testing.T) {
	e := newTestEngine(t, selectRules(rules.ComplexityID))

	src := `fn deep(a: bool, b: bool, c: bool, d: bool) {
    if a {
        if b {
            if c {
                if d {
                    run();
                }
            }
        }
    }
}
`
	report := e.Run(source("deep.rs", src))
	require.Len(t, report.Findings, 1)

	f := report.Findings[0]
	assert.Equal(t, "if nested 4 levels deep in `deep` (max 3)", f.Message)
	assert.True(t, strings.HasPrefix(src[f.Span.Start:f.Span.End], "if d {"))
}

const twinSource = `fn first(items: &[u32]) -> u32 {
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

fn second(values: &[u32]) -> u32 {
    let mut sum = 0;
    for value in values {
        if *value > 20 {
            sum += value * 3;
        } else {
            sum += value;
        }
    }
    sum
}
`

func TestEngine_DuplicationScenario(t *testing.T) {
	e := newTestEngine(t, selectRules(rules.DuplicateCodeID))

	report := e.Run(source("twins.rs", twinSource))
	require.Len(t, report.Findings, 1)

	f := report.Findings[0]
	assert.Equal(t, rules.DuplicateCodeID, f.Rule)
	assert.Equal(t, 13, f.Position.Line)
	assert.NotEmpty(t, f.GroupID)
	assert.Equal(t, "function `second` duplicates the function `first` at twins.rs:1:1 (2 occurrences)", f.Message)
}

func register(e *engine, rule rules.Rule) {
	idx := len(e.registry.visitors)
	e.registry.visitors = append(e.registry.visitors, registered{rule: rule, severity: m.SeverityError})

	for _, kind := range rule.Subscription().Nodes {
		e.registry.byNode[kind] = append(e.registry.byNode[kind], idx)
	}
}

type panicRule struct{}

func (panicRule) ID() m.RuleID                { return "panicky" }
func (panicRule) Description() string         { return "always panics" }
func (panicRule) DefaultSeverity() m.Severity { return m.SeverityError }
func (panicRule) Subscription() rules.Subscription {
	return rules.Subscription{Nodes: []syntax.NodeKind{syntax.NodeFunction}}
}

func (panicRule) Evaluate(*rules.Context) []m.Finding {
	panic("boom")
}

type fixedRule struct {
	id    m.RuleID
	span  m.Span
	twice bool
}

func (r *fixedRule) ID() m.RuleID {
	if r.id == "" {
		return "fixed"
	}

	return r.id
}

func (r *fixedRule) Description() string         { return "reports a fixed span" }
func (r *fixedRule) DefaultSeverity() m.Severity { return m.SeverityWarning }
func (r *fixedRule) Subscription() rules.Subscription {
	return rules.Subscription{Nodes: []syntax.NodeKind{syntax.NodeFunction}}
}

func (r *fixedRule) Evaluate(ctx *rules.Context) []m.Finding {
	f := ctx.Finding(m.Span{Start: r.span.Start, End: r.span.Start}, "fixed")
	f.Rule = r.ID()
	f.Span = r.span

	if r.twice {
		return []m.Finding{f, f}
	}

	return []m.Finding{f}
}
