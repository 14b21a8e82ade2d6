// Package rules holds the detection rules run by the engine. Each rule is a
// pure function of the Source Model view it receives and its own settings.
package rules

import (
	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// Rule ids.
const (
	MagicNumberID       m.RuleID = "magic-number"
	CommentedCodeID     m.RuleID = "commented-code"
	TodoCommentID       m.RuleID = "todo-comment"
	MissingDocsID       m.RuleID = "missing-docs"
	NamingID            m.RuleID = "naming"
	UnsafeUsageID       m.RuleID = "unsafe-usage"
	ErrorHandlingID     m.RuleID = "error-handling"
	ComplexityID        m.RuleID = "complexity"
	StructureID         m.RuleID = "structure"
	PatternMatchingID   m.RuleID = "pattern-matching"
	OwnershipID         m.RuleID = "ownership"
	DuplicateCodeID     m.RuleID = "duplicate-code"
	UnusedSuppressionID m.RuleID = "unused-suppression"
)

// Subscription lists the node and token kinds a rule wants to visit.
type Subscription struct {
	Nodes  []syntax.NodeKind
	Tokens []syntax.TokenKind
}

// Rule is a detector evaluated on the nodes and tokens it subscribes to.
type Rule interface {
	ID() m.RuleID
	Description() string
	DefaultSeverity() m.Severity
	Subscription() Subscription
	Evaluate(ctx *Context) []m.Finding
}

// Context is the read-only view a rule receives for one visit: either a node
// or a comment token of the file being analysed.
type Context struct {
	File *syntax.File
	// Node is the visited node, or syntax.NoNode on token visits.
	Node syntax.NodeID
	// Token is the visited token index, or -1 on node visits.
	Token int

	rule     m.RuleID
	severity m.Severity
}

// NewContext returns a context for rule over file.
func NewContext(file *syntax.File, rule m.RuleID, severity m.Severity) *Context {
	return &Context{File: file, Node: syntax.NoNode, Token: -1, rule: rule, severity: severity}
}

// AtNode points the context at node id.
func (c *Context) AtNode(id syntax.NodeID) *Context {
	c.Node = id
	c.Token = -1

	return c
}

// AtToken points the context at token i.
func (c *Context) AtToken(i int) *Context {
	c.Node = syntax.NoNode
	c.Token = i

	return c
}

// Current returns the visited node.
func (c *Context) Current() *syntax.Node {
	return c.File.Node(c.Node)
}

// Tok returns the visited token.
func (c *Context) Tok() syntax.Token {
	return c.File.Tokens[c.Token]
}

// Parent returns the parent of the visited node.
func (c *Context) Parent() syntax.NodeID {
	return c.File.Parent(c.Node)
}

// Ancestors returns the ancestor chain of the visited node, nearest first.
func (c *Context) Ancestors() []syntax.NodeID {
	return c.File.Ancestors(c.Node)
}

// SiblingIndex returns the position of the visited node among its siblings.
func (c *Context) SiblingIndex() int {
	return c.File.SiblingIndex(c.Node)
}

// InTest reports whether the visit happens inside a test region.
func (c *Context) InTest() bool {
	if c.Node != syntax.NoNode {
		return c.File.InTest(c.Node)
	}

	return c.File.InTest(c.File.NodeAt(c.Tok().Span.Start))
}

// Severity returns the configured severity of the rule.
func (c *Context) Severity() m.Severity {
	return c.severity
}

// Finding creates a finding of the current rule.
func (c *Context) Finding(span m.Span, message string) m.Finding {
	return m.Finding{
		Rule:     c.rule,
		Severity: c.severity,
		Span:     span,
		Position: c.File.Position(span.Start),
		Message:  message,
	}
}

// headerSpan covers an item from its first token through its name.
func headerSpan(n *syntax.Node) m.Span {
	if n.NameSpan.Empty() {
		return n.Span
	}

	return m.Span{Start: n.Span.Start, End: n.NameSpan.End}
}
