package rules

import (
	"fmt"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// Complexity measures functions: statement count, parameter count, nesting
// depth and cyclomatic complexity.
type Complexity struct {
	cfg ComplexityConfig
}

// NewComplexity creates the complexity rule.
func NewComplexity(cfg ComplexityConfig) *Complexity {
	return &Complexity{cfg: cfg}
}

func (r *Complexity) ID() m.RuleID { return ComplexityID }

func (r *Complexity) Description() string {
	return "Functions that are too long, take too many parameters, nest too deeply or branch too much"
}

func (r *Complexity) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *Complexity) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{syntax.NodeFunction}}
}

// Metrics are the measurements of one function.
type Metrics struct {
	Statements int
	Params     int
	Nesting    int
	// Deepest is the innermost construct at the maximum nesting depth.
	Deepest    syntax.NodeID
	Cyclomatic int
}

func (r *Complexity) Evaluate(ctx *Context) []m.Finding {
	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	f := ctx.File
	n := ctx.Current()
	metrics := Measure(f, ctx.Node)

	var findings []m.Finding

	if metrics.Params > r.cfg.MaxParams {
		var span m.Span

		for i, p := range params(f, n) {
			if i == 0 {
				span = f.Node(p).Span
			} else {
				span = span.Cover(f.Node(p).Span)
			}
		}

		findings = append(findings, r.finding(ctx, span, metrics.Params, r.cfg.MaxParams,
			fmt.Sprintf("function `%s` takes %d parameters (max %d)", n.Name, metrics.Params, r.cfg.MaxParams)))
	}

	if body(f, n) == syntax.NoNode {
		return findings
	}

	if metrics.Statements > r.cfg.MaxStatements {
		findings = append(findings, r.finding(ctx, headerSpan(n), metrics.Statements, r.cfg.MaxStatements,
			fmt.Sprintf("function `%s` has %d statements (max %d)", n.Name, metrics.Statements, r.cfg.MaxStatements)))
	}

	if metrics.Nesting > r.cfg.MaxNesting {
		deepest := f.Node(metrics.Deepest)
		findings = append(findings, r.finding(ctx, deepest.Span, metrics.Nesting, r.cfg.MaxNesting,
			fmt.Sprintf("%s nested %d levels deep in `%s` (max %d)", deepest.Kind, metrics.Nesting, n.Name, r.cfg.MaxNesting)))
	}

	if metrics.Cyclomatic > r.cfg.MaxComplexity {
		findings = append(findings, r.finding(ctx, n.NameSpan, metrics.Cyclomatic, r.cfg.MaxComplexity,
			fmt.Sprintf("function `%s` has cyclomatic complexity %d (max %d)", n.Name, metrics.Cyclomatic, r.cfg.MaxComplexity)))
	}

	return findings
}

// finding escalates to error when value exceeds twice the limit.
func (r *Complexity) finding(ctx *Context, span m.Span, value, limit int, msg string) m.Finding {
	finding := ctx.Finding(span, msg)
	if value > 2*limit {
		finding.Severity = m.SeverityError
	}

	return finding
}

// Measure computes the metrics of function fn. Nested function items are
// measured on their own and excluded.
func Measure(f *syntax.File, fn syntax.NodeID) Metrics {
	n := f.Node(fn)
	metrics := Metrics{Cyclomatic: 1, Deepest: syntax.NoNode}

	for _, p := range params(f, n) {
		if !f.Node(p).Has(syntax.FlagSelfParam) {
			metrics.Params++
		}
	}

	b := body(f, n)
	if b == syntax.NoNode {
		return metrics
	}

	var nested []m.Span

	var visit func(id syntax.NodeID, depth int)
	visit = func(id syntax.NodeID, depth int) {
		c := f.Node(id)

		switch c.Kind {
		case syntax.NodeFunction:
			nested = append(nested, c.Span)
			return
		case syntax.NodeLet, syntax.NodeStmt:
			metrics.Statements++
		case syntax.NodeIf:
			metrics.Cyclomatic++
			if !c.Has(syntax.FlagElseIf) {
				depth++
			}
		case syntax.NodeLoop:
			if c.Text != "loop" {
				metrics.Cyclomatic++
			}

			depth++
		case syntax.NodeMatch:
			if arms := countKind(f, c, syntax.NodeMatchArm); arms > 1 {
				metrics.Cyclomatic += arms - 1
			}

			depth++
		}

		if c.Kind == syntax.NodeIf || c.Kind == syntax.NodeLoop || c.Kind == syntax.NodeMatch {
			if depth > metrics.Nesting {
				metrics.Nesting = depth
				metrics.Deepest = id
			}
		}

		for _, child := range c.Children {
			visit(child, depth)
		}
	}

	visit(b, 0)

	bn := f.Node(b)

	for i := bn.FirstToken; i <= bn.LastToken; i++ {
		tok := f.Tokens[i]
		if !tok.Is("&&") && !tok.Is("||") && !tok.Is("?") {
			continue
		}

		// `||` in operand position opens a closure.
		if tok.Is("||") && unaryPosition(f, i) {
			continue
		}

		if !insideAny(nested, tok.Span) {
			metrics.Cyclomatic++
		}
	}

	return metrics
}

func insideAny(spans []m.Span, span m.Span) bool {
	for _, s := range spans {
		if s.Contains(span) {
			return true
		}
	}

	return false
}

func countKind(f *syntax.File, n *syntax.Node, kind syntax.NodeKind) int {
	count := 0

	for _, c := range n.Children {
		if f.Node(c).Kind == kind {
			count++
		}
	}

	return count
}

func params(f *syntax.File, n *syntax.Node) []syntax.NodeID {
	var out []syntax.NodeID

	for _, c := range n.Children {
		if f.Node(c).Kind == syntax.NodeParam {
			out = append(out, c)
		}
	}

	return out
}

// body returns the block of a function, or NoNode for a declaration.
func body(f *syntax.File, n *syntax.Node) syntax.NodeID {
	for _, c := range n.Children {
		if f.Node(c).Kind == syntax.NodeBlock {
			return c
		}
	}

	return syntax.NoNode
}
