package syntax

import (
	"strings"

	"ferrule.dev/pkg/ferrule/internal/model"
)

// DirectiveScope is the region a suppression directive covers.
type DirectiveScope uint8

const (
	// ScopeLine covers the next code line, or the directive's own line when
	// it trails code.
	ScopeLine DirectiveScope = iota
	// ScopeBlock covers the innermost block-like node enclosing the directive.
	ScopeBlock
	// ScopeFile covers the whole file.
	ScopeFile
)

func (s DirectiveScope) String() string {
	switch s {
	case ScopeBlock:
		return "block"
	case ScopeFile:
		return "file"
	case ScopeLine:
	}

	return "line"
}

// Directive is a suppression comment such as `// ferrule:allow(magic-number)`.
type Directive struct {
	// Token is the index of the comment token.
	Token int
	Span  model.Span
	Scope DirectiveScope
	// Rules filters the suppressed rules; empty means every rule.
	Rules []model.RuleID
	// Line is the 1-based line a line-scoped directive applies to.
	Line int
	// Target is the header of the node a line-scoped directive on its own
	// line precedes: attributes and signature up to the opening brace. It
	// lets the directive reach items whose header spans several lines.
	Target model.Span
	// next is the index of the code token an own-line directive precedes,
	// or -1.
	next int
	// Malformed is set when the rule list could not be read.
	Malformed bool
}

// Matches reports whether the directive applies to rule.
func (d Directive) Matches(rule model.RuleID) bool {
	if len(d.Rules) == 0 {
		return true
	}

	for _, r := range d.Rules {
		if r == rule {
			return true
		}
	}

	return false
}

func scanDirectives(tokens []Token, lines *LineIndex, markers []string) []Directive {
	var out []Directive

	for i, tok := range tokens {
		if tok.Kind != TokenLineComment && tok.Kind != TokenBlockComment {
			continue
		}

		for _, marker := range markers {
			d, ok := parseDirective(tok.CommentBody(), marker)
			if !ok {
				continue
			}

			d.Token = i
			d.Span = tok.Span
			d.Line, d.next = directiveLine(tokens, lines, i)
			out = append(out, d)

			break
		}
	}

	return out
}

// parseDirective reads `<marker>[-line|-block|-file][(rule, ...)]` from the
// start of a comment body.
func parseDirective(body, marker string) (Directive, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(body), marker)
	if !ok {
		return Directive{}, false
	}

	var d Directive

	switch {
	case strings.HasPrefix(rest, "-line"):
		rest = rest[len("-line"):]
	case strings.HasPrefix(rest, "-block"):
		d.Scope = ScopeBlock
		rest = rest[len("-block"):]
	case strings.HasPrefix(rest, "-file"):
		d.Scope = ScopeFile
		rest = rest[len("-file"):]
	}

	if rest != "" && rest[0] != '(' && rest[0] != ' ' && rest[0] != '\t' && rest[0] != ':' {
		// marker is only a prefix of a longer word
		return Directive{}, false
	}

	if !strings.HasPrefix(rest, "(") {
		return d, true
	}

	end := strings.IndexByte(rest, ')')
	if end < 0 {
		d.Malformed = true
		return d, true
	}

	for _, id := range strings.Split(rest[1:end], ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		d.Rules = append(d.Rules, model.RuleID(strings.ReplaceAll(id, "_", "-")))
	}

	return d, true
}

// directiveLine returns the line a line-scoped directive at token i covers:
// its own line when code precedes it there, otherwise the line of the next
// code token. The second result is the index of that next code token, or -1
// for a trailing directive.
func directiveLine(tokens []Token, lines *LineIndex, i int) (int, int) {
	own := lines.Line(tokens[i].Span.Start)

	for j := i - 1; j >= 0; j-- {
		if tokens[j].Kind == TokenWhitespace {
			if strings.Contains(tokens[j].Text, "\n") {
				break
			}

			continue
		}

		if !tokens[j].IsComment() {
			return own, -1
		}

		break
	}

	for j := i + 1; j < len(tokens); j++ {
		if !tokens[j].IsTrivia() && tokens[j].Kind != TokenEOF {
			return lines.Line(tokens[j].Span.Start), j
		}
	}

	return own, -1
}

// resolveTargets sets the Target of every own-line line directive.
func (f *File) resolveTargets() {
	for i := range f.Directives {
		d := &f.Directives[i]
		if d.Scope != ScopeLine || d.next < 0 {
			continue
		}

		if id := f.startingAt(d.next); id != NoNode {
			d.Target = f.header(id)
		}
	}
}

// startingAt returns the outermost node whose first token is token i, or
// NoNode.
func (f *File) startingAt(i int) NodeID {
	off := f.Tokens[i].Span.Start

	id := f.NodeAt(off)
	if id == NoNode || id == f.Root() || f.Nodes[id].Span.Start != off {
		return NoNode
	}

	for p := f.Parent(id); p != NoNode && p != f.Root() && f.Nodes[p].Span.Start == off; p = f.Parent(p) {
		id = p
	}

	return id
}

// header returns the span of node id up to its first top-level `{`, or the
// whole node when it has none.
func (f *File) header(id NodeID) model.Span {
	n := &f.Nodes[id]
	depth := 0

	for i := n.FirstToken; i <= n.LastToken && i < len(f.Tokens); i++ {
		tok := f.Tokens[i]

		switch {
		case tok.Is("(") || tok.Is("["):
			depth++
		case tok.Is(")") || tok.Is("]"):
			depth--
		case tok.Is("{") && depth == 0 && tok.Span.Start > n.Span.Start:
			return model.Span{Start: n.Span.Start, End: tok.Span.Start}
		}
	}

	return n.Span
}
