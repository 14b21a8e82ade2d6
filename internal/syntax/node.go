package syntax

import "ferrule.dev/pkg/ferrule/internal/model"

// NodeID indexes File.Nodes.
type NodeID int32

// NoNode is the parent of the root node.
const NoNode NodeID = -1

// NodeKind tags a node with the construct it represents.
type NodeKind uint8

const (
	NodeFile NodeKind = iota
	NodeModule
	NodeFunction
	NodeStruct
	NodeEnum
	NodeVariant
	NodeField
	NodeTrait
	NodeImpl
	NodeConst
	NodeStatic
	NodeTypeAlias
	NodeUse
	NodeMacroDef
	NodeMacroCall
	NodeExternBlock
	NodeParam
	NodeAttribute
	NodeBlock
	NodeUnsafeBlock
	NodeLet
	NodeStmt
	NodeIf
	NodeLoop
	NodeMatch
	NodeMatchArm
	NodeClosure
	NodeCall
	NodeIndex
	NodeLiteral

	nodeKindCount
)

var nodeKindNames = [...]string{
	NodeFile:        "file",
	NodeModule:      "module",
	NodeFunction:    "function",
	NodeStruct:      "struct",
	NodeEnum:        "enum",
	NodeVariant:     "variant",
	NodeField:       "field",
	NodeTrait:       "trait",
	NodeImpl:        "impl",
	NodeConst:       "constant",
	NodeStatic:      "static",
	NodeTypeAlias:   "type alias",
	NodeUse:         "use",
	NodeMacroDef:    "macro",
	NodeMacroCall:   "macro call",
	NodeExternBlock: "extern block",
	NodeParam:       "parameter",
	NodeAttribute:   "attribute",
	NodeBlock:       "block",
	NodeUnsafeBlock: "unsafe block",
	NodeLet:         "let",
	NodeStmt:        "statement",
	NodeIf:          "if",
	NodeLoop:        "loop",
	NodeMatch:       "match",
	NodeMatchArm:    "match arm",
	NodeClosure:     "closure",
	NodeCall:        "call",
	NodeIndex:       "index",
	NodeLiteral:     "literal",
}

func (k NodeKind) String() string {
	if k < nodeKindCount {
		return nodeKindNames[k]
	}

	return "unknown"
}

// NodeKinds returns every node kind in declaration order.
func NodeKinds() []NodeKind {
	kinds := make([]NodeKind, 0, nodeKindCount)
	for k := NodeFile; k < nodeKindCount; k++ {
		kinds = append(kinds, k)
	}

	return kinds
}

// IsItem reports whether nodes of this kind are declarations that can carry
// attributes, visibility and doc comments.
func (k NodeKind) IsItem() bool {
	switch k {
	case NodeModule, NodeFunction, NodeStruct, NodeEnum, NodeVariant, NodeField,
		NodeTrait, NodeImpl, NodeConst, NodeStatic, NodeTypeAlias, NodeUse,
		NodeMacroDef, NodeMacroCall, NodeExternBlock:
		return true
	default:
		return false
	}
}

// Visibility of a declaration.
type Visibility uint8

const (
	Private Visibility = iota
	Public
	// Restricted is pub(crate), pub(super) or pub(in path).
	Restricted
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "pub"
	case Restricted:
		return "pub(restricted)"
	case Private:
	}

	return "private"
}

// Flags carry boolean facts about a node.
type Flags uint32

const (
	FlagUnsafe Flags = 1 << iota
	FlagAsync
	FlagMut
	// FlagElseIf marks an if that is the else branch of another if.
	FlagElseIf
	FlagMethodCall
	// FlagWildcard marks a match arm whose whole pattern is `_`.
	FlagWildcard
	FlagSelfParam
	// FlagTest marks items carrying #[test], #[cfg(test)] or a *test attribute.
	FlagTest
	// FlagTraitImpl marks `impl Trait for Type`.
	FlagTraitImpl
	// FlagDoc marks items documented through #[doc = ...].
	FlagDoc
	FlagMacroExport
	// FlagNegative marks a literal folded with its unary minus.
	FlagNegative
	// FlagIndexed marks a literal that is the whole index of an index expression.
	FlagIndexed
	// FlagGuard marks a match arm with an if guard.
	FlagGuard
	// FlagTuple marks tuple structs and tuple variants.
	FlagTuple
)

// Node is one element of the structural tree. Children are ordered by span
// start and never overlap.
type Node struct {
	Kind       NodeKind
	Span       model.Span
	Name       string
	NameSpan   model.Span
	Visibility Visibility
	Flags      Flags
	// Text holds a kind-specific payload: the callee path of a call, the
	// macro name, the literal text, the loop keyword, the compacted attribute
	// body, the implemented trait of an impl or the pattern of a match arm.
	Text     string
	Children []NodeID
	// FirstToken and LastToken are the indices of the first and last
	// significant tokens covered by the node.
	FirstToken int
	LastToken  int
	// Leading holds the token indices of the comment run attached to an item.
	Leading []int
}

// Has reports whether all of flags are set.
func (n *Node) Has(flags Flags) bool {
	return n.Flags&flags == flags
}
