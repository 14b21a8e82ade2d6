package rules

import (
	"fmt"
	"slices"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// Ownership flags clones that could be moves or borrows, parameters that take
// more ownership than their body needs and lifetime annotations that are
// either elidable or too many to follow.
type Ownership struct {
	cfg OwnershipConfig
}

// NewOwnership creates the ownership rule.
func NewOwnership(cfg OwnershipConfig) *Ownership {
	return &Ownership{cfg: cfg}
}

func (r *Ownership) ID() m.RuleID { return OwnershipID }

func (r *Ownership) Description() string {
	return "Unnecessary clones, over-owned parameters and complex lifetime annotations"
}

func (r *Ownership) DefaultSeverity() m.Severity { return m.SeverityInfo }

func (r *Ownership) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{syntax.NodeCall, syntax.NodeFunction}}
}

func (r *Ownership) Evaluate(ctx *Context) []m.Finding {
	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	n := ctx.Current()

	switch n.Kind {
	case syntax.NodeCall:
		if n.Has(syntax.FlagMethodCall) && n.Name == "clone" {
			return r.clone(ctx)
		}
	case syntax.NodeFunction:
		findings := r.lifetimes(ctx)

		return append(findings, r.params(ctx)...)
	}

	return nil
}

// clone reports `x.clone()` inside a loop body, and `x.clone()` of an owned
// binding that the function never mentions again.
func (r *Ownership) clone(ctx *Context) []m.Finding {
	f := ctx.File
	n := ctx.Current()

	name := cloneReceiver(f, n)
	if name == "" {
		return nil
	}

	if loop := f.Enclosing(ctx.Node, syntax.NodeLoop, syntax.NodeClosure, syntax.NodeFunction); loop != syntax.NoNode &&
		f.Node(loop).Kind == syntax.NodeLoop && inLoopBody(f, loop, n.Span) {
		finding := ctx.Finding(n.Span, "`"+name+".clone()` allocates a copy on every loop iteration")
		finding.Suggestion = "borrow `&" + name + "` or move the value out of the loop"

		return []m.Finding{finding}
	}

	fn := f.Enclosing(ctx.Node, syntax.NodeClosure, syntax.NodeFunction)
	if fn == syntax.NoNode || f.Node(fn).Kind != syntax.NodeFunction {
		return nil
	}

	if param := paramNamed(f, fn, name); param != syntax.NoNode && borrowedType(paramType(f, param)) {
		return nil
	}

	block := body(f, f.Node(fn))
	if block == syntax.NoNode || mentions(f, n.LastToken+1, f.Node(block).LastToken, name) {
		return nil
	}

	finding := ctx.Finding(n.Span, "`"+name+"` is not used after `"+name+".clone()`; the clone can be a move")
	finding.Suggestion = name

	return []m.Finding{finding}
}

// params reports owned String and Vec parameters, and &mut parameters, that
// the body only reads.
func (r *Ownership) params(ctx *Context) []m.Finding {
	f := ctx.File
	n := ctx.Current()

	block := body(f, n)
	if block == syntax.NoNode || traitImplMember(f, ctx.Node) {
		return nil
	}

	var findings []m.Finding

	for _, c := range n.Children {
		p := f.Node(c)
		if p.Kind != syntax.NodeParam || p.Has(syntax.FlagSelfParam) || p.Name == "" || p.Name == "_" {
			continue
		}

		ty := paramType(f, c)

		var msg, fix string

		switch {
		case len(ty) > 0 && ty[0].Text == "String":
			msg, fix = "parameter `"+p.Name+"` takes an owned String but is only read", "&str"
		case len(ty) > 1 && ty[0].Text == "Vec" && ty[1].Is("<"):
			msg, fix = "parameter `"+p.Name+"` takes an owned Vec but is only read", "&[T]"
		case mutableRef(ty):
			msg, fix = "parameter `"+p.Name+"` is borrowed mutably but only read", "&T"
		default:
			continue
		}

		if !r.readOnly(f, f.Node(block), p.Name) {
			continue
		}

		finding := ctx.Finding(p.Span, msg)
		finding.Suggestion = p.Name + ": " + fix
		findings = append(findings, finding)
	}

	return findings
}

// readOnly reports whether every mention of name in block is the receiver of
// a read-only method call, and there is at least one.
func (r *Ownership) readOnly(f *syntax.File, block *syntax.Node, name string) bool {
	uses := 0

	for i := block.FirstToken; i <= block.LastToken; i++ {
		tok := f.Tokens[i]
		if tok.Kind != syntax.TokenIdent || tok.Text != name {
			continue
		}

		if prev := f.PrevSignificant(i); prev >= 0 && (f.Tokens[prev].Is(".") || f.Tokens[prev].Is("::")) {
			continue
		}

		dot := f.NextSignificant(i)
		method := f.NextSignificant(dot)
		open := f.NextSignificant(method)

		if !f.Tokens[dot].Is(".") || !f.Tokens[open].Is("(") || !slices.Contains(r.cfg.ReadOnlyMethods, f.Tokens[method].Text) {
			return false
		}

		uses++
	}

	return uses > 0
}

// lifetimes reports functions declaring more lifetime parameters than
// allowed, and single lifetimes that elision would infer.
func (r *Ownership) lifetimes(ctx *Context) []m.Finding {
	f := ctx.File
	n := ctx.Current()

	declared, where := lifetimeParams(f, n)
	if len(declared) == 0 {
		return nil
	}

	if len(declared) > r.cfg.MaxLifetimes {
		msg := fmt.Sprintf("function `%s` declares %d lifetime parameters (max %d)", n.Name, len(declared), r.cfg.MaxLifetimes)
		return []m.Finding{ctx.Finding(headerSpan(n), msg)}
	}

	if len(declared) != 1 || where || traitImplMember(f, ctx.Node) {
		return nil
	}

	positions := 0

	for _, c := range n.Children {
		p := f.Node(c)
		if p.Kind != syntax.NodeParam {
			continue
		}

		if p.Has(syntax.FlagSelfParam) {
			return nil
		}

		positions += referencePositions(paramType(f, c))
	}

	if positions != 1 {
		return nil
	}

	finding := ctx.Finding(headerSpan(n), "lifetime "+declared[0]+" on `"+n.Name+"` can be elided")
	finding.Suggestion = "remove " + declared[0] + " from the signature"

	return []m.Finding{finding}
}

// lifetimeParams returns the lifetimes declared in the generic list of
// function n, and whether its header has a where clause.
func lifetimeParams(f *syntax.File, n *syntax.Node) ([]string, bool) {
	end := n.LastToken
	if block := body(f, n); block != syntax.NoNode {
		end = f.Node(block).FirstToken
	}

	name := tokenAt(f, n.FirstToken, end, n.NameSpan)
	if name < 0 {
		return nil, false
	}

	var declared []string

	i := f.NextSignificant(name)
	if f.Tokens[i].Is("<") {
		depth := 0

		for ; i < end; i = f.NextSignificant(i) {
			tok := f.Tokens[i]

			switch {
			case tok.Is("<"):
				depth++
			case tok.Is(">"):
				depth--
			case tok.Kind == syntax.TokenLifetime && depth == 1:
				prev := f.Tokens[f.PrevSignificant(i)]
				if (prev.Is("<") || prev.Is(",")) && !slices.Contains(declared, tok.Text) {
					declared = append(declared, tok.Text)
				}
			}

			if depth == 0 {
				break
			}
		}
	}

	for ; i < end; i = f.NextSignificant(i) {
		if f.Tokens[i].IsKeyword("where") {
			return declared, true
		}
	}

	return declared, false
}

// referencePositions counts the lifetime positions of a parameter type: each
// reference and each explicit lifetime not attached to one.
func referencePositions(ty []syntax.Token) int {
	count := 0

	for i, tok := range ty {
		switch {
		case tok.Is("&"):
			count++
		case tok.Is("&&"):
			count += 2
		case tok.Kind == syntax.TokenLifetime && (i == 0 || !ty[i-1].Is("&")):
			count++
		}
	}

	return count
}

// cloneReceiver returns the binding a `.clone()` call is made on, or "" when
// the receiver is not a plain identifier or the call has arguments.
func cloneReceiver(f *syntax.File, n *syntax.Node) string {
	name := tokenAt(f, n.FirstToken, n.LastToken, n.NameSpan)
	if name < 0 || f.NextSignificant(f.NextSignificant(name)) != n.LastToken {
		return ""
	}

	recv := n.FirstToken
	if f.NextSignificant(recv) != f.PrevSignificant(name) || !f.Tokens[f.PrevSignificant(name)].Is(".") {
		return ""
	}

	if tok := f.Tokens[recv]; tok.Kind == syntax.TokenIdent {
		return tok.Text
	}

	return ""
}

func inLoopBody(f *syntax.File, loop syntax.NodeID, span m.Span) bool {
	children := f.Node(loop).Children
	if len(children) == 0 {
		return false
	}

	last := f.Node(children[len(children)-1])

	return last.Kind == syntax.NodeBlock && last.Span.Start <= span.Start && span.End <= last.Span.End
}

func paramNamed(f *syntax.File, fn syntax.NodeID, name string) syntax.NodeID {
	for _, c := range f.Node(fn).Children {
		if p := f.Node(c); p.Kind == syntax.NodeParam && p.Name == name {
			return c
		}
	}

	return syntax.NoNode
}

// paramType returns the significant tokens after the `:` of param id.
func paramType(f *syntax.File, id syntax.NodeID) []syntax.Token {
	tokens := f.SignificantTokens(id)
	for i, tok := range tokens {
		if tok.Is(":") {
			return tokens[i+1:]
		}
	}

	return nil
}

func borrowedType(ty []syntax.Token) bool {
	return len(ty) > 0 && (ty[0].Is("&") || ty[0].Is("&&"))
}

func mutableRef(ty []syntax.Token) bool {
	if len(ty) < 2 || !ty[0].Is("&") {
		return false
	}

	if ty[1].Kind == syntax.TokenLifetime {
		return len(ty) > 2 && ty[2].IsKeyword("mut")
	}

	return ty[1].IsKeyword("mut")
}

// mentions reports whether name appears as an identifier in tokens from..to.
func mentions(f *syntax.File, from, to int, name string) bool {
	for i := from; i <= to && i < len(f.Tokens); i++ {
		if tok := f.Tokens[i]; tok.Kind == syntax.TokenIdent && tok.Text == name {
			return true
		}
	}

	return false
}

// tokenAt returns the index of the token in from..to covering span, or -1.
func tokenAt(f *syntax.File, from, to int, span m.Span) int {
	for i := from; i <= to && i < len(f.Tokens); i++ {
		if f.Tokens[i].Span == span {
			return i
		}
	}

	return -1
}
