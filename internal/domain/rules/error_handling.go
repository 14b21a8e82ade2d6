package rules

import (
	"fmt"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

var abortCalls = []string{"process::abort", "process::exit"}

// ErrorHandling flags forced unwraps, silently discarded results and
// panicking calls outside test regions.
type ErrorHandling struct {
	cfg     ErrorHandlingConfig
	methods map[string]bool
	macros  map[string]bool
}

// NewErrorHandling creates the error-handling rule.
func NewErrorHandling(cfg ErrorHandlingConfig) *ErrorHandling {
	r := &ErrorHandling{cfg: cfg, methods: map[string]bool{}, macros: map[string]bool{}}

	for _, name := range cfg.Methods {
		r.methods[name] = true
	}

	for _, name := range cfg.Macros {
		r.macros[strings.TrimSuffix(name, "!")] = true
	}

	return r
}

func (r *ErrorHandling) ID() m.RuleID { return ErrorHandlingID }

func (r *ErrorHandling) Description() string {
	return "Forced unwraps, discarded errors and panicking calls"
}

func (r *ErrorHandling) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *ErrorHandling) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{
		syntax.NodeCall, syntax.NodeMacroCall, syntax.NodeLet, syntax.NodeStmt,
	}}
}

func (r *ErrorHandling) Evaluate(ctx *Context) []m.Finding {
	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	f := ctx.File
	n := ctx.Current()

	switch n.Kind {
	case syntax.NodeCall:
		if n.Has(syntax.FlagMethodCall) && r.methods[n.Name] {
			span := m.Span{Start: n.NameSpan.Start, End: n.Span.End}
			finding := ctx.Finding(span, fmt.Sprintf("`.%s()` panics on failure; propagate the error with `?` or handle it", n.Name))
			finding.Suggestion = "?"

			return []m.Finding{finding}
		}

		for _, callee := range abortCalls {
			if n.Text == callee || strings.HasSuffix(n.Text, "::"+callee) {
				return []m.Finding{ctx.Finding(n.Span, fmt.Sprintf("`%s()` terminates the process; return an error instead", n.Text))}
			}
		}
	case syntax.NodeMacroCall:
		if r.macros[n.Name] {
			return []m.Finding{ctx.Finding(n.Span, fmt.Sprintf("`%s!` panics at runtime; return an error instead", n.Name))}
		}
	case syntax.NodeLet:
		call := valueChild(f, n)
		if n.Name == "_" && call != syntax.NoNode && !f.Tokens[f.PrevSignificant(n.LastToken)].Is("?") {
			return []m.Finding{ctx.Finding(n.Span, "result of the call is discarded with `let _`; handle or propagate it")}
		}
	case syntax.NodeStmt:
		call := valueChild(f, n)
		if call == syntax.NoNode || !f.Tokens[n.LastToken].Is(";") {
			return nil
		}

		c := f.Node(call)
		if c.Has(syntax.FlagMethodCall) && c.Name == "ok" && c.LastToken == f.PrevSignificant(n.LastToken) {
			return []m.Finding{ctx.Finding(n.Span, "`.ok()` silently discards the error; handle or propagate it")}
		}
	}

	return nil
}

// valueChild returns the call that is the value of a let or statement, or
// NoNode.
func valueChild(f *syntax.File, n *syntax.Node) syntax.NodeID {
	for _, c := range n.Children {
		switch f.Node(c).Kind {
		case syntax.NodeAttribute:
			continue
		case syntax.NodeCall:
			return c
		}

		return syntax.NoNode
	}

	return syntax.NoNode
}
