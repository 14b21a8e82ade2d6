package syntax

import (
	"errors"
	"strings"

	"ferrule.dev/pkg/ferrule/internal/model"
)

// DefaultDirectiveMarker is the comment marker recognised when none is configured.
const DefaultDirectiveMarker = "ferrule:allow"

// Options tune how a source buffer is turned into a File.
type Options struct {
	// DirectiveMarkers lists the comment prefixes recognised as suppression
	// directives.
	DirectiveMarkers []string
}

// File is the Source Model of one input unit. It is built once and only read
// afterwards.
type File struct {
	Path       model.Path
	Source     []byte
	Tokens     []Token
	Nodes      []Node
	Parents    []NodeID
	Lines      *LineIndex
	Directives []Directive
}

// Parse lexes and parses content. Malformed input yields a *ParseError.
func Parse(path model.Path, content []byte, opts Options) (*File, error) {
	lines := NewLineIndex(content)

	tokens, err := Lex(content)
	if err == nil {
		err = checkDelimiters(tokens)
	}

	var nodes []Node

	var parents []NodeID

	if err == nil {
		nodes, parents, err = parseTokens(content, tokens)
	}

	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
			perr.Pos = lines.Position(perr.Span.Start)
		}

		return nil, err
	}

	markers := opts.DirectiveMarkers
	if len(markers) == 0 {
		markers = []string{DefaultDirectiveMarker}
	}

	f := &File{
		Path:       path,
		Source:     content,
		Tokens:     tokens,
		Nodes:      nodes,
		Parents:    parents,
		Lines:      lines,
		Directives: scanDirectives(tokens, lines, markers),
	}
	f.resolveTargets()

	return f, nil
}

// Root returns the id of the file node.
func (f *File) Root() NodeID {
	return 0
}

// Node returns the node with the given id.
func (f *File) Node(id NodeID) *Node {
	return &f.Nodes[id]
}

// Parent returns the parent of id, or NoNode for the root.
func (f *File) Parent(id NodeID) NodeID {
	return f.Parents[id]
}

// Ancestors returns the ancestor chain of id, nearest first.
func (f *File) Ancestors(id NodeID) []NodeID {
	var chain []NodeID
	for p := f.Parents[id]; p != NoNode; p = f.Parents[p] {
		chain = append(chain, p)
	}

	return chain
}

// Enclosing returns the nearest ancestor of one of the given kinds, or NoNode.
func (f *File) Enclosing(id NodeID, kinds ...NodeKind) NodeID {
	for p := f.Parents[id]; p != NoNode; p = f.Parents[p] {
		for _, k := range kinds {
			if f.Nodes[p].Kind == k {
				return p
			}
		}
	}

	return NoNode
}

// SiblingIndex returns the position of id among its parent's children.
func (f *File) SiblingIndex(id NodeID) int {
	parent := f.Parents[id]
	if parent == NoNode {
		return 0
	}

	for i, c := range f.Nodes[parent].Children {
		if c == id {
			return i
		}
	}

	return -1
}

// InTest reports whether id is, or is nested in, an item marked as a test.
func (f *File) InTest(id NodeID) bool {
	for n := id; n != NoNode; n = f.Parents[n] {
		if f.Nodes[n].Has(FlagTest) {
			return true
		}
	}

	return false
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// children of the visited node.
func (f *File) Walk(fn func(id NodeID, depth int) bool) {
	if len(f.Nodes) == 0 {
		return
	}

	f.walk(f.Root(), 0, fn)
}

func (f *File) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}

	for _, c := range f.Nodes[id].Children {
		f.walk(c, depth+1, fn)
	}
}

// Span returns the span of the whole source buffer.
func (f *File) Span() model.Span {
	return model.Span{Start: 0, End: uint32(len(f.Source))} // #nosec G115 -- size checked by Lex
}

// Text returns the source text covered by span.
func (f *File) Text(span model.Span) string {
	return string(f.Source[span.Start:span.End])
}

// Position converts a byte offset into a line and column.
func (f *File) Position(off uint32) model.Position {
	return f.Lines.Position(off)
}

// SignificantTokens returns the non-trivia tokens covered by node id.
func (f *File) SignificantTokens(id NodeID) []Token {
	n := &f.Nodes[id]

	out := make([]Token, 0, n.LastToken-n.FirstToken+1)
	for i := n.FirstToken; i <= n.LastToken && i < len(f.Tokens); i++ {
		if !f.Tokens[i].IsTrivia() && f.Tokens[i].Kind != TokenEOF {
			out = append(out, f.Tokens[i])
		}
	}

	return out
}

// LeadingComments returns the comment tokens attached to node id.
func (f *File) LeadingComments(id NodeID) []Token {
	n := &f.Nodes[id]

	out := make([]Token, 0, len(n.Leading))
	for _, i := range n.Leading {
		out = append(out, f.Tokens[i])
	}

	return out
}

// HasDoc reports whether node id has an outer doc comment or #[doc] attribute.
func (f *File) HasDoc(id NodeID) bool {
	if f.Nodes[id].Has(FlagDoc) {
		return true
	}

	for _, i := range f.Nodes[id].Leading {
		if f.Tokens[i].Kind == TokenDocComment {
			return true
		}
	}

	return false
}

// PrevSignificant returns the index of the last non-trivia token before
// token index i, or -1.
func (f *File) PrevSignificant(i int) int {
	for j := i - 1; j >= 0; j-- {
		if !f.Tokens[j].IsTrivia() {
			return j
		}
	}

	return -1
}

// NextSignificant returns the index of the first non-trivia token after
// token index i. The EOF token always terminates the search.
func (f *File) NextSignificant(i int) int {
	for j := i + 1; j < len(f.Tokens); j++ {
		if !f.Tokens[j].IsTrivia() {
			return j
		}
	}

	return len(f.Tokens) - 1
}

// Attributes returns the attribute children of node id.
func (f *File) Attributes(id NodeID) []*Node {
	var attrs []*Node

	for _, c := range f.Nodes[id].Children {
		if f.Nodes[c].Kind == NodeAttribute {
			attrs = append(attrs, &f.Nodes[c])
		}
	}

	return attrs
}

// IsGenerated reports whether the comments before the first item carry one
// of the given markers.
func (f *File) IsGenerated(markers []string) bool {
	for _, tok := range f.Tokens {
		if !tok.IsTrivia() {
			return false
		}

		if !tok.IsComment() {
			continue
		}

		for _, m := range markers {
			if strings.Contains(tok.Text, m) {
				return true
			}
		}
	}

	return false
}

// NodeAt returns the deepest node whose span contains off.
func (f *File) NodeAt(off uint32) NodeID {
	if len(f.Nodes) == 0 {
		return NoNode
	}

	id := f.Root()

	for {
		next := NoNode

		for _, c := range f.Nodes[id].Children {
			s := f.Nodes[c].Span
			if s.Start <= off && off < s.End {
				next = c
				break
			}
		}

		if next == NoNode {
			return id
		}

		id = next
	}
}

// WalkFrom visits the subtree rooted at id in pre-order, with depth counted
// from id.
func (f *File) WalkFrom(id NodeID, fn func(id NodeID, depth int) bool) {
	f.walk(id, 0, fn)
}
