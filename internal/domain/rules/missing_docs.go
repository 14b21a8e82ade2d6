package rules

import (
	"fmt"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// MissingDocs flags public declarations without a doc comment.
type MissingDocs struct {
	cfg MissingDocsConfig
}

// NewMissingDocs creates the missing-docs rule.
func NewMissingDocs(cfg MissingDocsConfig) *MissingDocs {
	return &MissingDocs{cfg: cfg}
}

func (r *MissingDocs) ID() m.RuleID { return MissingDocsID }

func (r *MissingDocs) Description() string {
	return "Public declarations without documentation"
}

func (r *MissingDocs) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *MissingDocs) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{
		syntax.NodeFunction, syntax.NodeStruct, syntax.NodeEnum, syntax.NodeTrait,
		syntax.NodeConst, syntax.NodeStatic, syntax.NodeTypeAlias, syntax.NodeModule,
		syntax.NodeField, syntax.NodeMacroDef,
	}}
}

func (r *MissingDocs) Evaluate(ctx *Context) []m.Finding {
	f := ctx.File
	n := ctx.Current()

	if !r.public(f, ctx.Node) || f.HasDoc(ctx.Node) || hidden(f, ctx.Node) {
		return nil
	}

	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	if n.Kind == syntax.NodeModule && (!hasBody(f, n) || innerDoc(f, n)) {
		return nil
	}

	msg := fmt.Sprintf("public %s `%s` is missing documentation", n.Kind, n.Name)
	finding := ctx.Finding(headerSpan(n), msg)
	finding.Suggestion = "/// Describe " + n.Name + "."

	return []m.Finding{finding}
}

func (r *MissingDocs) exported(v syntax.Visibility) bool {
	return v == syntax.Public || (v == syntax.Restricted && r.cfg.IncludeRestricted)
}

// public reports whether id is visible outside its crate.
func (r *MissingDocs) public(f *syntax.File, id syntax.NodeID) bool {
	n := f.Node(id)
	parent := f.Node(f.Parent(id))

	if f.Enclosing(id, syntax.NodeFunction) != syntax.NoNode {
		return false
	}

	switch parent.Kind {
	case syntax.NodeTrait:
		return r.exported(parent.Visibility)
	case syntax.NodeImpl:
		if parent.Has(syntax.FlagTraitImpl) {
			return false
		}
	case syntax.NodeStruct:
		if parent.Has(syntax.FlagTuple) || !r.exported(parent.Visibility) {
			return false
		}
	case syntax.NodeVariant:
		return false
	}

	return r.exported(n.Visibility)
}

// hidden reports whether id carries #[doc(hidden)].
func hidden(f *syntax.File, id syntax.NodeID) bool {
	for _, attr := range f.Attributes(id) {
		if strings.HasPrefix(attr.Text, "doc(hidden") {
			return true
		}
	}

	return false
}

// hasBody reports whether a module is declared inline.
func hasBody(f *syntax.File, n *syntax.Node) bool {
	return f.Tokens[n.LastToken].Is("}")
}

// innerDoc reports whether an inline module opens with a //! doc comment.
func innerDoc(f *syntax.File, n *syntax.Node) bool {
	i := n.FirstToken
	for i <= n.LastToken && !f.Tokens[i].Is("{") {
		i++
	}

	for i++; i < n.LastToken && f.Tokens[i].IsTrivia(); i++ {
		if f.Tokens[i].Kind == syntax.TokenInnerDocComment {
			return true
		}
	}

	return false
}
