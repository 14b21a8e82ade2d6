package rules

import (
	"fmt"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// PatternMatching flags match expressions that hide cases or that would read
// better as something else.
type PatternMatching struct {
	cfg PatternMatchingConfig
}

// NewPatternMatching creates the pattern-matching rule.
func NewPatternMatching(cfg PatternMatchingConfig) *PatternMatching {
	return &PatternMatching{cfg: cfg}
}

func (r *PatternMatching) ID() m.RuleID { return PatternMatchingID }

func (r *PatternMatching) Description() string {
	return "Wildcard arms over enums, deeply nested matches, single-arm matches and overlong alternatives"
}

func (r *PatternMatching) DefaultSeverity() m.Severity { return m.SeverityInfo }

func (r *PatternMatching) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{syntax.NodeMatch}}
}

func (r *PatternMatching) Evaluate(ctx *Context) []m.Finding {
	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	f := ctx.File
	n := ctx.Current()

	var arms []syntax.NodeID

	for _, c := range n.Children {
		if f.Node(c).Kind == syntax.NodeMatchArm {
			arms = append(arms, c)
		}
	}

	var findings []m.Finding

	if wildcard := enumWildcard(f, arms); wildcard != syntax.NoNode {
		finding := ctx.Finding(f.Node(wildcard).Span, "wildcard arm in a match over enum variants hides variants added later; list them explicitly")
		findings = append(findings, finding)
	}

	if depth := matchDepth(f, ctx.Node); depth == r.cfg.MaxDepth+1 {
		findings = append(findings, ctx.Finding(n.Span, fmt.Sprintf("match nested %d levels deep (max %d); extract a function", depth, r.cfg.MaxDepth)))
	}

	if ifLet(f, arms) {
		finding := ctx.Finding(matchKeyword(f, n), "match with a single meaningful arm; use `if let`")
		finding.Suggestion = "if let " + f.Node(arms[0]).Text + " = ..."
		findings = append(findings, finding)
	}

	for _, arm := range arms {
		a := f.Node(arm)
		if alts := alternatives(a.Text); alts > r.cfg.MaxAlternatives {
			findings = append(findings, ctx.Finding(a.Span, fmt.Sprintf("match arm with %d alternatives (max %d); group them in a helper", alts, r.cfg.MaxAlternatives)))
		}
	}

	return findings
}

// enumWildcard returns the `_` arm of a match whose other arms name enum
// paths, or NoNode.
func enumWildcard(f *syntax.File, arms []syntax.NodeID) syntax.NodeID {
	wildcard := syntax.NoNode
	paths := false

	for _, arm := range arms {
		a := f.Node(arm)

		switch {
		case a.Has(syntax.FlagWildcard) && !a.Has(syntax.FlagGuard):
			wildcard = arm
		case strings.Contains(a.Text, "::"):
			paths = true
		}
	}

	if !paths {
		return syntax.NoNode
	}

	return wildcard
}

// matchDepth counts the match expressions enclosing id, itself included,
// up to the nearest function or closure.
func matchDepth(f *syntax.File, id syntax.NodeID) int {
	depth := 1

	for _, a := range f.Ancestors(id) {
		switch f.Node(a).Kind {
		case syntax.NodeMatch:
			depth++
		case syntax.NodeFunction, syntax.NodeClosure:
			return depth
		}
	}

	return depth
}

// ifLet reports whether a match has one arm, or a second arm that is an
// empty wildcard.
func ifLet(f *syntax.File, arms []syntax.NodeID) bool {
	switch len(arms) {
	case 1:
		return !f.Node(arms[0]).Has(syntax.FlagWildcard)
	case 2:
		first, second := f.Node(arms[0]), f.Node(arms[1])

		return !first.Has(syntax.FlagWildcard) && !first.Has(syntax.FlagGuard) &&
			second.Has(syntax.FlagWildcard) && emptyArm(f, arms[1])
	}

	return false
}

// emptyArm reports whether the arm evaluates to `{}` or `()`.
func emptyArm(f *syntax.File, arm syntax.NodeID) bool {
	tokens := f.SignificantTokens(arm)

	var body []string

	seen := false

	for _, tok := range tokens {
		if seen {
			body = append(body, tok.Text)
		}

		if tok.Is("=>") {
			seen = true
		}
	}

	if len(body) > 0 && body[len(body)-1] == "," {
		body = body[:len(body)-1]
	}

	joined := strings.Join(body, "")

	return joined == "{}" || joined == "()"
}

func matchKeyword(f *syntax.File, n *syntax.Node) m.Span {
	for i := n.FirstToken; i <= n.LastToken; i++ {
		if f.Tokens[i].IsKeyword("match") {
			return f.Tokens[i].Span
		}
	}

	return n.Span
}

// alternatives counts the top-level `|` alternatives of a pattern.
func alternatives(pattern string) int {
	count, depth := 1, 0

	for _, c := range pattern {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '|':
			if depth == 0 {
				count++
			}
		}
	}

	return count
}
