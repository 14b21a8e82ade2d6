package rules

import (
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// UnsafeUsage flags unsafe code without a written justification and unsafe
// blocks that do nothing unsafe.
type UnsafeUsage struct {
	cfg UnsafeUsageConfig
}

// NewUnsafeUsage creates the unsafe-usage rule.
func NewUnsafeUsage(cfg UnsafeUsageConfig) *UnsafeUsage {
	return &UnsafeUsage{cfg: cfg}
}

func (r *UnsafeUsage) ID() m.RuleID { return UnsafeUsageID }

func (r *UnsafeUsage) Description() string {
	return "Unsafe code without a SAFETY justification, or unsafe blocks with no unsafe operation"
}

func (r *UnsafeUsage) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *UnsafeUsage) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{
		syntax.NodeUnsafeBlock, syntax.NodeFunction, syntax.NodeImpl, syntax.NodeTrait,
	}}
}

func (r *UnsafeUsage) Evaluate(ctx *Context) []m.Finding {
	n := ctx.Current()
	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	switch n.Kind {
	case syntax.NodeUnsafeBlock:
		return r.block(ctx)
	case syntax.NodeFunction:
		if !n.Has(syntax.FlagUnsafe) || traitImplMember(ctx.File, ctx.Node) || safetyDoc(ctx.File, ctx.Node) {
			return nil
		}

		finding := ctx.Finding(headerSpan(n), "unsafe function `"+n.Name+"` does not document its contract in a `# Safety` section")
		finding.Suggestion = "/// # Safety\n///\n/// Callers must ..."

		return []m.Finding{finding}
	case syntax.NodeImpl:
		if !n.Has(syntax.FlagUnsafe) || safetyDoc(ctx.File, ctx.Node) || hasSafetyComment(ctx.File.LeadingComments(ctx.Node)) {
			return nil
		}

		return []m.Finding{ctx.Finding(headerSpan(n), "unsafe impl for `"+n.Name+"` has no SAFETY comment stating the upheld invariant")}
	case syntax.NodeTrait:
		if !n.Has(syntax.FlagUnsafe) || safetyDoc(ctx.File, ctx.Node) {
			return nil
		}

		return []m.Finding{ctx.Finding(headerSpan(n), "unsafe trait `"+n.Name+"` does not document its invariant in a `# Safety` section")}
	}

	return nil
}

func (r *UnsafeUsage) block(ctx *Context) []m.Finding {
	f := ctx.File
	n := ctx.Current()

	var findings []m.Finding

	if !r.justified(f, ctx.Node) {
		finding := ctx.Finding(unsafeKeyword(f, n), "unsafe block without a `// SAFETY:` comment")
		finding.Suggestion = "// SAFETY: explain why the invariants hold"
		findings = append(findings, finding)
	}

	if r.cfg.CheckUnnecessary && !performsUnsafe(f, ctx.Node) {
		findings = append(findings, ctx.Finding(n.Span, "unsafe block contains no operation that requires unsafe"))
	}

	return findings
}

// justified looks for a SAFETY comment before the block, before the
// statement holding it, or at the top of the block.
func (r *UnsafeUsage) justified(f *syntax.File, id syntax.NodeID) bool {
	n := f.Node(id)
	if hasSafetyComment(commentsBefore(f, n.FirstToken)) {
		return true
	}

	if stmt := f.Enclosing(id, syntax.NodeStmt, syntax.NodeLet, syntax.NodeFunction, syntax.NodeClosure); stmt != syntax.NoNode {
		s := f.Node(stmt)
		if (s.Kind == syntax.NodeStmt || s.Kind == syntax.NodeLet) && hasSafetyComment(commentsBefore(f, s.FirstToken)) {
			return true
		}
	}

	var inside []syntax.Token

	for i := n.FirstToken + 1; i < len(f.Tokens); i++ {
		if f.Tokens[i].Is("{") {
			for j := i + 1; j < len(f.Tokens) && f.Tokens[j].IsTrivia(); j++ {
				inside = append(inside, f.Tokens[j])
			}

			break
		}
	}

	return hasSafetyComment(inside)
}

// commentsBefore returns the trivia run preceding token i, nearest first.
func commentsBefore(f *syntax.File, i int) []syntax.Token {
	var out []syntax.Token

	for j := i - 1; j >= 0 && f.Tokens[j].IsTrivia(); j-- {
		out = append(out, f.Tokens[j])
	}

	return out
}

func hasSafetyComment(tokens []syntax.Token) bool {
	for _, tok := range tokens {
		if tok.IsComment() && safetyComment(tok.CommentBody()) {
			return true
		}
	}

	return false
}

// safetyDoc reports whether the docs of id hold a `# Safety` section.
func safetyDoc(f *syntax.File, id syntax.NodeID) bool {
	for _, tok := range f.LeadingComments(id) {
		if tok.IsDoc() && strings.Contains(tok.CommentBody(), "# Safety") {
			return true
		}
	}

	for _, attr := range f.Attributes(id) {
		if attr.Name == "doc" && strings.Contains(attr.Text, "#Safety") {
			return true
		}
	}

	return false
}

// unsafeKeyword returns the span of the `unsafe` keyword opening a block.
func unsafeKeyword(f *syntax.File, n *syntax.Node) m.Span {
	for i := n.FirstToken; i <= n.LastToken; i++ {
		if f.Tokens[i].IsKeyword("unsafe") {
			return f.Tokens[i].Span
		}
	}

	return n.Span
}

// performsUnsafe reports whether block id may contain an operation that
// needs unsafe: a call, a raw dereference, inline assembly or a mutable
// static access.
func performsUnsafe(f *syntax.File, id syntax.NodeID) bool {
	found := false

	f.WalkFrom(id, func(c syntax.NodeID, _ int) bool {
		if found {
			return false
		}

		switch n := f.Node(c); n.Kind {
		case syntax.NodeCall:
			found = true
		case syntax.NodeMacroCall:
			found = n.Name == "asm" || n.Name == "global_asm" || n.Name == "naked_asm"
		}

		return true
	})

	if found {
		return true
	}

	statics := mutableStatics(f)
	n := f.Node(id)

	for i := n.FirstToken; i <= n.LastToken; i++ {
		tok := f.Tokens[i]

		switch {
		case tok.Kind == syntax.TokenIdent && statics[tok.Text]:
			return true
		case tok.Is("*") && unaryPosition(f, i):
			return true
		}
	}

	return false
}

func mutableStatics(f *syntax.File) map[string]bool {
	names := map[string]bool{}

	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.Kind == syntax.NodeStatic && n.Has(syntax.FlagMut) {
			names[n.Name] = true
		}
	}

	return names
}

// unaryPosition reports whether the token at i starts an operand, which makes
// a `*` there a dereference.
func unaryPosition(f *syntax.File, i int) bool {
	prev := f.PrevSignificant(i)
	if prev < 0 {
		return true
	}

	tok := f.Tokens[prev]

	switch tok.Kind {
	case syntax.TokenPunct:
		return tok.Text != ")" && tok.Text != "]" && tok.Text != "?"
	case syntax.TokenKeyword:
		return tok.Text != "self" && tok.Text != "Self" && tok.Text != "true" && tok.Text != "false"
	}

	return false
}
