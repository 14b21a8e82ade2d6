package syntax

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"ferrule.dev/pkg/ferrule/internal/model"
)

// parser builds the node arena from the significant tokens of a file. It is
// a structural parser: types, patterns and where clauses are skipped with
// delimiter tracking, only the shapes the rules inspect become nodes.
type parser struct {
	src     []byte
	toks    []Token
	sig     []int // indices of significant tokens, EOF last
	pos     int
	nodes   []Node
	parents []NodeID
	callee  string // path of the last primary, consumed by a following call
}

// mark records where a construct started so it can later be wrapped into a
// node once its kind is known.
type mark struct {
	pos   int
	child int
}

type snapshot struct {
	pos      int
	nodes    int
	parent   NodeID
	children int
}

func parseTokens(src []byte, toks []Token) ([]Node, []NodeID, error) {
	p := &parser{src: src, toks: toks}

	for i, t := range toks {
		if !t.IsTrivia() {
			p.sig = append(p.sig, i)
		}
	}

	root := p.add(NodeFile, NoNode, p.sig[0])
	if err := p.items(root, ""); err != nil {
		return nil, nil, err
	}

	last := 0
	if len(p.sig) > 1 {
		last = p.sig[len(p.sig)-2]
	}

	p.nodes[root].Span = model.Span{Start: 0, End: uint32(len(src))} // #nosec G115 -- size checked by Lex
	p.nodes[root].LastToken = last

	return p.nodes, p.parents, nil
}

func (p *parser) tok() Token {
	return p.toks[p.sig[p.pos]]
}

func (p *parser) peek(n int) Token {
	return p.peekAt(p.pos + n)
}

func (p *parser) peekAt(i int) Token {
	if i >= len(p.sig) {
		i = len(p.sig) - 1
	}

	return p.toks[p.sig[i]]
}

func (p *parser) raw() int {
	return p.sig[p.pos]
}

func (p *parser) eof() bool {
	return p.tok().Kind == TokenEOF
}

func (p *parser) next() Token {
	t := p.tok()
	if !p.eof() {
		p.pos++
	}

	return t
}

func (p *parser) at(text string) bool {
	return p.tok().Is(text)
}

func (p *parser) atKw(kw string) bool {
	return p.tok().IsKeyword(kw)
}

func (p *parser) atIdent(text string) bool {
	t := p.tok()
	return t.Kind == TokenIdent && t.Text == text
}

func (p *parser) prevIs(text string) bool {
	return p.pos > 0 && p.toks[p.sig[p.pos-1]].Is(text)
}

func (p *parser) eat(text string) bool {
	if p.at(text) {
		p.next()
		return true
	}

	return false
}

func (p *parser) expect(text string) error {
	if p.eat(text) {
		return nil
	}

	return p.errExpected(fmt.Sprintf("%q", text))
}

func (p *parser) errExpected(what string) error {
	t := p.tok()
	return &ParseError{Span: t.Span, Expected: what, Found: describe(t)}
}

func describe(t Token) string {
	if t.Kind == TokenEOF {
		return "end of file"
	}

	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

func (p *parser) add(kind NodeKind, parent NodeID, first int) NodeID {
	id := NodeID(len(p.nodes)) // #nosec G115 -- node count is bounded by token count
	p.nodes = append(p.nodes, Node{
		Kind:       kind,
		Span:       p.toks[first].Span,
		FirstToken: first,
		LastToken:  first,
	})
	p.parents = append(p.parents, parent)

	if parent != NoNode {
		p.nodes[parent].Children = append(p.nodes[parent].Children, id)
	}

	return id
}

func (p *parser) open(kind NodeKind, parent NodeID) NodeID {
	return p.add(kind, parent, p.raw())
}

// close ends node id at the last consumed token.
func (p *parser) close(id NodeID) {
	if p.pos == 0 {
		return
	}

	last := p.sig[p.pos-1]
	if last < p.nodes[id].FirstToken {
		return
	}

	p.nodes[id].LastToken = last
	p.nodes[id].Span.End = p.toks[last].Span.End
}

func (p *parser) mark(parent NodeID) mark {
	return mark{pos: p.pos, child: len(p.nodes[parent].Children)}
}

// wrap creates a node starting at m and moves every child parent gained since
// m into it.
func (p *parser) wrap(kind NodeKind, parent NodeID, m mark) NodeID {
	moved := slices.Clone(p.nodes[parent].Children[m.child:])
	p.nodes[parent].Children = p.nodes[parent].Children[:m.child]

	id := p.add(kind, parent, p.sig[m.pos])
	p.nodes[id].Children = moved

	for _, c := range moved {
		p.parents[c] = id
	}

	return id
}

func (p *parser) closeWrap(kind NodeKind, parent NodeID, m mark) NodeID {
	id := p.wrap(kind, parent, m)
	p.close(id)

	return id
}

func (p *parser) snapshot(parent NodeID) snapshot {
	return snapshot{pos: p.pos, nodes: len(p.nodes), parent: parent, children: len(p.nodes[parent].Children)}
}

func (p *parser) restore(s snapshot) {
	p.pos = s.pos
	p.nodes = p.nodes[:s.nodes]
	p.parents = p.parents[:s.nodes]
	p.nodes[s.parent].Children = p.nodes[s.parent].Children[:s.children]
	p.callee = ""
}

func isOpener(t Token) bool {
	return t.Kind == TokenPunct && (t.Text == "(" || t.Text == "[" || t.Text == "{")
}

func isCloser(t Token) bool {
	return t.Kind == TokenPunct && (t.Text == ")" || t.Text == "]" || t.Text == "}")
}

func closerOf(open string) string {
	switch open {
	case "(":
		return ")"
	case "[":
		return "]"
	default:
		return "}"
	}
}

// checkDelimiters verifies that (), [] and {} are balanced before parsing.
func checkDelimiters(tokens []Token) error {
	var stack []Token

	for _, t := range tokens {
		switch {
		case isOpener(t):
			stack = append(stack, t)
		case isCloser(t):
			if len(stack) == 0 {
				return &ParseError{Span: t.Span, Found: fmt.Sprintf("unmatched %q", t.Text)}
			}

			open := stack[len(stack)-1]
			if closerOf(open.Text) != t.Text {
				return &ParseError{Span: t.Span, Expected: fmt.Sprintf("%q", closerOf(open.Text)), Found: fmt.Sprintf("%q", t.Text)}
			}

			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return &ParseError{Span: open.Span, Expected: fmt.Sprintf("%q", closerOf(open.Text)), Found: "end of file"}
	}

	return nil
}

// skipGroup consumes a balanced delimiter group starting at the current opener.
func (p *parser) skipGroup() error {
	open := p.next()
	depth := 1

	for depth > 0 {
		if p.eof() {
			return p.errExpected(fmt.Sprintf("%q", closerOf(open.Text)))
		}

		t := p.next()

		switch {
		case isOpener(t):
			depth++
		case isCloser(t):
			depth--
		}
	}

	return nil
}

// skipGroupAt returns the significant index just past the group opened at i.
func (p *parser) skipGroupAt(i int) int {
	depth := 0

	for ; i < len(p.sig); i++ {
		t := p.toks[p.sig[i]]

		switch {
		case isOpener(t):
			depth++
		case isCloser(t):
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return i
}

func (p *parser) skipAngles() error {
	p.next()
	depth := 1

	for depth > 0 {
		if p.eof() {
			return p.errExpected(`">"`)
		}

		t := p.next()

		switch {
		case t.Is("<"):
			depth++
		case t.Is(">"):
			depth--
		}
	}

	return nil
}

func stopAt(texts ...string) func(Token) bool {
	return func(t Token) bool {
		for _, text := range texts {
			if t.Is(text) {
				return true
			}
		}

		return false
	}
}

// skipUntil consumes tokens until stop matches at nesting depth zero, or an
// unmatched closer or EOF is reached.
func (p *parser) skipUntil(stop func(Token) bool) {
	depth, angle := 0, 0

	for !p.eof() {
		t := p.tok()
		if depth == 0 && angle == 0 && stop(t) {
			return
		}

		switch {
		case isOpener(t):
			depth++
		case isCloser(t):
			if depth == 0 {
				return
			}

			depth--
		case t.Is("<"):
			angle++
		case t.Is(">") && angle > 0:
			angle--
		}

		p.next()
	}
}

// text returns the compacted source text of significant tokens [from, to).
func (p *parser) text(from, to int) string {
	if from >= to {
		return ""
	}

	span := model.Span{Start: p.toks[p.sig[from]].Span.Start, End: p.toks[p.sig[to-1]].Span.End}

	return compact(string(p.src[span.Start:span.End]))
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// leading returns the comment run attached to an item that starts at token
// start and whose keyword is at token kw.
func (p *parser) leading(start, kw int) []int {
	var run []int

	for i := start - 1; i >= 0 && p.toks[i].IsTrivia(); i-- {
		if p.toks[i].IsComment() {
			run = append(run, i)
		}
	}

	slices.Reverse(run)

	for i := start; i < kw; i++ {
		if p.toks[i].IsComment() {
			run = append(run, i)
		}
	}

	return run
}

func (p *parser) name(id NodeID) error {
	t := p.tok()
	if t.Kind != TokenIdent {
		return p.errExpected("identifier")
	}

	p.next()

	p.nodes[id].Name = strings.TrimPrefix(t.Text, "r#")
	p.nodes[id].NameSpan = t.Span

	return nil
}

func (p *parser) items(parent NodeID, closer string) error {
	for {
		switch {
		case closer != "" && p.at(closer):
			return nil
		case p.eof():
			if closer == "" {
				return nil
			}

			return p.errExpected(fmt.Sprintf("%q", closer))
		case p.at(";"):
			p.next()
		case p.atInnerAttribute():
			id, err := p.attribute(parent)
			if err != nil {
				return err
			}

			p.nodes[parent].Flags |= attributeFlags(&p.nodes[id]) & (FlagTest | FlagDoc)
		default:
			if err := p.item(parent); err != nil {
				return err
			}
		}
	}
}

func (p *parser) itemBlock(id NodeID) error {
	if err := p.expect("{"); err != nil {
		return err
	}

	if err := p.items(id, "}"); err != nil {
		return err
	}

	return p.expect("}")
}

func (p *parser) atOuterAttribute() bool {
	return p.at("#") && p.peek(1).Is("[")
}

func (p *parser) atInnerAttribute() bool {
	return p.at("#") && p.peek(1).Is("!") && p.peek(2).Is("[")
}

func (p *parser) attribute(parent NodeID) (NodeID, error) {
	id := p.open(NodeAttribute, parent)
	p.next() // #
	p.eat("!")

	if !p.at("[") {
		return id, p.errExpected(`"["`)
	}

	open := p.raw()
	if err := p.skipGroup(); err != nil {
		return id, err
	}

	p.close(id)

	end := p.sig[p.pos-1]
	body := compact(string(p.src[p.toks[open].Span.End:p.toks[end].Span.Start]))

	n := &p.nodes[id]
	n.Text = body
	n.Name = body

	if i := strings.IndexAny(body, "(=["); i >= 0 {
		n.Name = body[:i]
	}

	return id, nil
}

func attributeFlags(attr *Node) Flags {
	var flags Flags

	switch {
	case attr.Name == "cfg":
		if (strings.Contains(attr.Text, "(test") || strings.Contains(attr.Text, ",test")) &&
			!strings.Contains(attr.Text, "not(test") {
			flags |= FlagTest
		}
	case strings.HasSuffix(attr.Name, "test"):
		flags |= FlagTest
	case attr.Name == "doc" && strings.HasPrefix(attr.Text, "doc="):
		flags |= FlagDoc
	case attr.Name == "macro_export":
		flags |= FlagMacroExport
	}

	return flags
}

func (p *parser) visibility() (Visibility, error) {
	if !p.atKw("pub") {
		return Private, nil
	}

	p.next()

	if p.at("(") {
		if err := p.skipGroup(); err != nil {
			return Restricted, err
		}

		return Restricted, nil
	}

	return Public, nil
}

// qualifiers consumes the function and item qualifiers that precede the item
// keyword.
func (p *parser) qualifiers() Flags {
	var flags Flags

	for {
		next := p.peek(1)

		switch {
		case p.atKw("unsafe") && !next.Is("{"):
			flags |= FlagUnsafe
		case p.atKw("async") && !next.Is("{") && !next.IsKeyword("move"):
			flags |= FlagAsync
		case p.atKw("const") && (next.IsKeyword("fn") || next.IsKeyword("unsafe") ||
			next.IsKeyword("async") || next.IsKeyword("extern")):
		case p.atIdent("default") && (next.IsKeyword("fn") || next.IsKeyword("type") ||
			next.IsKeyword("const") || next.IsKeyword("unsafe") || next.IsKeyword("async")):
		case p.atKw("extern") && next.IsKeyword("fn"):
		case p.atKw("extern") && next.Kind == TokenString && p.peek(2).IsKeyword("fn"):
			p.next()
		default:
			return flags
		}

		p.next()
	}
}

// isItemStart looks ahead past attributes and qualifiers for an item keyword.
//
//nolint:cyclop // Mirrors the item grammar.
func (p *parser) isItemStart() bool {
	i := p.pos

	for p.peekAt(i).Is("#") && p.peekAt(i+1).Is("[") {
		i = p.skipGroupAt(i + 1)
	}

	if p.peekAt(i).IsKeyword("pub") {
		return true
	}

	for {
		t, next := p.peekAt(i), p.peekAt(i+1)

		switch {
		case t.IsKeyword("unsafe") && !next.Is("{"),
			t.IsKeyword("async") && !next.Is("{") && !next.IsKeyword("move") && !next.Is("|") && !next.Is("||"),
			t.IsKeyword("const") && (next.IsKeyword("fn") || next.IsKeyword("unsafe") || next.IsKeyword("async")):
			i++
			continue
		case t.IsKeyword("extern") && next.Kind == TokenString:
			return true
		}

		break
	}

	t, next := p.peekAt(i), p.peekAt(i+1)

	switch {
	case t.IsKeyword("fn"), t.IsKeyword("struct"), t.IsKeyword("enum"), t.IsKeyword("trait"),
		t.IsKeyword("impl"), t.IsKeyword("mod"), t.IsKeyword("type"), t.IsKeyword("use"),
		t.IsKeyword("extern"):
		return true
	case t.IsKeyword("static"):
		return next.Kind == TokenIdent || next.IsKeyword("mut")
	case t.IsKeyword("const"):
		return next.Kind == TokenIdent && p.peekAt(i+2).Is(":")
	case t.Kind == TokenIdent && t.Text == "union":
		return next.Kind == TokenIdent
	case t.Kind == TokenIdent && t.Text == "macro_rules":
		return next.Is("!")
	}

	return false
}

//nolint:cyclop,funlen // One branch per item kind.
func (p *parser) item(parent NodeID) error {
	m := p.mark(parent)
	start := p.raw()

	var flags Flags

	for p.atOuterAttribute() {
		id, err := p.attribute(parent)
		if err != nil {
			return err
		}

		flags |= attributeFlags(&p.nodes[id])
	}

	vis, err := p.visibility()
	if err != nil {
		return err
	}

	flags |= p.qualifiers()
	kw := p.raw()
	next := p.peek(1)

	var id NodeID

	switch {
	case p.atKw("fn"):
		id, err = p.function(parent, m)
	case p.atKw("struct"), p.atIdent("union") && next.Kind == TokenIdent:
		id, err = p.structItem(parent, m)
	case p.atKw("enum"):
		id, err = p.enumItem(parent, m)
	case p.atKw("trait"), p.atIdent("auto") && next.IsKeyword("trait"):
		id, err = p.traitItem(parent, m)
	case p.atKw("impl"):
		id, err = p.implItem(parent, m)
	case p.atKw("mod"):
		id, err = p.modItem(parent, m)
	case p.atKw("const"):
		id, err = p.valueItem(parent, m, NodeConst)
	case p.atKw("static"):
		id, err = p.valueItem(parent, m, NodeStatic)
	case p.atKw("type"):
		id, err = p.typeItem(parent, m)
	case p.atKw("use"), p.atKw("extern") && next.IsKeyword("crate"):
		id, err = p.useItem(parent, m)
	case p.atKw("extern"):
		id, err = p.externBlock(parent, m)
	case p.atIdent("macro_rules") && next.Is("!"):
		id, err = p.macroRules(parent, m)
	case p.atPathStart() && !p.at("<"):
		id, err = p.itemMacro(parent, m)
	default:
		return p.errExpected("item")
	}

	if err != nil {
		return err
	}

	n := &p.nodes[id]
	n.Flags |= flags
	n.Visibility = vis
	n.Leading = p.leading(start, kw)

	if n.Kind == NodeMacroDef && n.Has(FlagMacroExport) {
		n.Visibility = Public
	}

	return nil
}

func (p *parser) generics() error {
	if p.at("<") {
		return p.skipAngles()
	}

	return nil
}

func (p *parser) whereClause(stops ...string) {
	if p.atKw("where") {
		p.skipUntil(stopAt(stops...))
	}
}

func (p *parser) function(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeFunction, parent, m)
	p.next() // fn

	if err := p.name(id); err != nil {
		return id, err
	}

	if err := p.generics(); err != nil {
		return id, err
	}

	if err := p.params(id); err != nil {
		return id, err
	}

	if p.eat("->") {
		p.skipUntil(stopAt("{", ";", "where"))
	}

	p.whereClause("{", ";")

	if !p.eat(";") {
		if _, err := p.block(id, NodeBlock, 0); err != nil {
			return id, err
		}
	}

	p.close(id)

	return id, nil
}

func (p *parser) params(fn NodeID) error {
	if err := p.expect("("); err != nil {
		return err
	}

	for !p.at(")") {
		if p.eof() {
			return p.errExpected(`")"`)
		}

		m := p.mark(fn)

		for p.atOuterAttribute() {
			if _, err := p.attribute(fn); err != nil {
				return err
			}
		}

		id := p.wrap(NodeParam, fn, m)
		patStart := p.pos
		p.skipUntil(stopAt(":", ","))
		p.bindPattern(id, patStart, p.pos)

		if p.eat(":") {
			p.skipUntil(stopAt(","))
		}

		p.close(id)

		if !p.eat(",") {
			break
		}
	}

	return p.expect(")")
}

// bindPattern names node id after a simple `ident`, `mut ident` or `self`
// pattern held in significant tokens [from, to).
func (p *parser) bindPattern(id NodeID, from, to int) {
	n := &p.nodes[id]

	var rest []Token

	for i := from; i < to; i++ {
		t := p.peekAt(i)

		switch {
		case t.IsKeyword("self"):
			n.Flags |= FlagSelfParam
			n.Name = "self"
			n.NameSpan = t.Span

			return
		case t.IsKeyword("mut"):
			n.Flags |= FlagMut
		case t.IsKeyword("ref"), t.Is("&"), t.Is("&&"), t.Kind == TokenLifetime:
		default:
			rest = append(rest, t)
		}
	}

	if len(rest) == 1 && rest[0].Kind == TokenIdent {
		n.Name = strings.TrimPrefix(rest[0].Text, "r#")
		n.NameSpan = rest[0].Span
	}
}

func (p *parser) structItem(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeStruct, parent, m)
	p.next() // struct or union

	if err := p.name(id); err != nil {
		return id, err
	}

	if err := p.generics(); err != nil {
		return id, err
	}

	p.whereClause("{", ";")

	var err error

	switch {
	case p.eat(";"):
	case p.at("("):
		p.nodes[id].Flags |= FlagTuple

		if err = p.tupleFields(id); err == nil {
			p.whereClause(";")
			err = p.expect(";")
		}
	case p.at("{"):
		err = p.namedFields(id)
	default:
		err = p.errExpected("struct body")
	}

	p.close(id)

	return id, err
}

func (p *parser) namedFields(owner NodeID) error {
	p.next() // {

	for !p.at("}") {
		if p.eof() {
			return p.errExpected(`"}"`)
		}

		m := p.mark(owner)
		start := p.raw()

		var flags Flags

		for p.atOuterAttribute() {
			attr, err := p.attribute(owner)
			if err != nil {
				return err
			}

			flags |= attributeFlags(&p.nodes[attr])
		}

		vis, err := p.visibility()
		if err != nil {
			return err
		}

		kw := p.raw()
		id := p.wrap(NodeField, owner, m)

		if err := p.name(id); err != nil {
			return err
		}

		if err := p.expect(":"); err != nil {
			return err
		}

		p.skipUntil(stopAt(","))
		p.close(id)

		n := &p.nodes[id]
		n.Flags |= flags
		n.Visibility = vis
		n.Leading = p.leading(start, kw)

		if !p.eat(",") {
			break
		}
	}

	return p.expect("}")
}

func (p *parser) tupleFields(owner NodeID) error {
	p.next() // (

	for !p.at(")") {
		if p.eof() {
			return p.errExpected(`")"`)
		}

		m := p.mark(owner)
		start := p.raw()

		for p.atOuterAttribute() {
			if _, err := p.attribute(owner); err != nil {
				return err
			}
		}

		vis, err := p.visibility()
		if err != nil {
			return err
		}

		kw := p.raw()
		id := p.wrap(NodeField, owner, m)
		p.skipUntil(stopAt(","))
		p.close(id)

		p.nodes[id].Visibility = vis
		p.nodes[id].Flags |= FlagTuple
		p.nodes[id].Leading = p.leading(start, kw)

		if !p.eat(",") {
			break
		}
	}

	return p.expect(")")
}

func (p *parser) enumItem(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeEnum, parent, m)
	p.next() // enum

	if err := p.name(id); err != nil {
		return id, err
	}

	if err := p.generics(); err != nil {
		return id, err
	}

	p.whereClause("{")

	if err := p.expect("{"); err != nil {
		return id, err
	}

	for !p.at("}") {
		if p.eof() {
			return id, p.errExpected(`"}"`)
		}

		if err := p.variant(id); err != nil {
			return id, err
		}

		if !p.eat(",") {
			break
		}
	}

	err := p.expect("}")
	p.close(id)

	return id, err
}

func (p *parser) variant(enum NodeID) error {
	m := p.mark(enum)
	start := p.raw()

	var flags Flags

	for p.atOuterAttribute() {
		attr, err := p.attribute(enum)
		if err != nil {
			return err
		}

		flags |= attributeFlags(&p.nodes[attr])
	}

	kw := p.raw()
	id := p.wrap(NodeVariant, enum, m)

	if err := p.name(id); err != nil {
		return err
	}

	var err error

	switch {
	case p.at("("):
		flags |= FlagTuple
		err = p.tupleFields(id)
	case p.at("{"):
		err = p.namedFields(id)
	}

	if err != nil {
		return err
	}

	if p.eat("=") {
		if err := p.expr(id, false); err != nil {
			return err
		}
	}

	p.close(id)

	n := &p.nodes[id]
	n.Flags |= flags
	n.Leading = p.leading(start, kw)

	return nil
}

func (p *parser) traitItem(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeTrait, parent, m)

	if p.atIdent("auto") {
		p.next()
	}

	p.next() // trait

	if err := p.name(id); err != nil {
		return id, err
	}

	if err := p.generics(); err != nil {
		return id, err
	}

	if p.eat(":") {
		p.skipUntil(stopAt("{", "where"))
	}

	p.whereClause("{")

	err := p.itemBlock(id)
	p.close(id)

	return id, err
}

func (p *parser) implItem(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeImpl, parent, m)
	p.next() // impl

	if err := p.generics(); err != nil {
		return id, err
	}

	p.eat("!")

	header := p.pos
	p.skipUntil(stopAt("{", "where", "for"))

	n := &p.nodes[id]
	n.Name, n.NameSpan = typeName(p.sig, p.toks, header, p.pos)

	if p.atKw("for") {
		n.Flags |= FlagTraitImpl
		n.Text = pathText(p.sig, p.toks, header, p.pos)

		p.next()

		self := p.pos
		p.skipUntil(stopAt("{", "where"))
		n.Name, n.NameSpan = typeName(p.sig, p.toks, self, p.pos)
	}

	p.whereClause("{")

	err := p.itemBlock(id)
	p.close(id)

	return id, err
}

// typeName returns the last identifier of a type path before its generic
// arguments, e.g. Foo for `&'a crate::Foo<T>`, and its span.
func typeName(sig []int, toks []Token, from, to int) (string, model.Span) {
	var (
		name string
		span model.Span
	)

	for i := from; i < to; i++ {
		t := toks[sig[i]]
		if t.Is("<") {
			break
		}

		if t.Kind == TokenIdent || t.IsKeyword("Self") {
			name, span = t.Text, t.Span
		}
	}

	return name, span
}

// pathText returns the text of a path before its generic arguments.
func pathText(sig []int, toks []Token, from, to int) string {
	var b strings.Builder

	for i := from; i < to; i++ {
		t := toks[sig[i]]
		if t.Is("<") {
			break
		}

		b.WriteString(t.Text)
	}

	return b.String()
}

func (p *parser) modItem(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeModule, parent, m)
	p.next() // mod

	if err := p.name(id); err != nil {
		return id, err
	}

	var err error
	if !p.eat(";") {
		err = p.itemBlock(id)
	}

	p.close(id)

	return id, err
}

func (p *parser) valueItem(parent NodeID, m mark, kind NodeKind) (NodeID, error) {
	id := p.wrap(kind, parent, m)
	p.next() // const or static

	if p.eat("mut") {
		p.nodes[id].Flags |= FlagMut
	}

	if err := p.name(id); err != nil {
		return id, err
	}

	if err := p.expect(":"); err != nil {
		return id, err
	}

	p.skipUntil(stopAt("=", ";"))

	if p.eat("=") {
		if err := p.expr(id, false); err != nil {
			return id, err
		}
	}

	err := p.expect(";")
	p.close(id)

	return id, err
}

func (p *parser) typeItem(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeTypeAlias, parent, m)
	p.next() // type

	if err := p.name(id); err != nil {
		return id, err
	}

	p.skipUntil(stopAt(";"))
	err := p.expect(";")
	p.close(id)

	return id, err
}

func (p *parser) useItem(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeUse, parent, m)
	if p.next().IsKeyword("extern") {
		p.next() // crate
	}

	from := p.pos
	p.skipUntil(stopAt(";"))
	p.nodes[id].Text = p.text(from, p.pos)

	err := p.expect(";")
	p.close(id)

	return id, err
}

func (p *parser) externBlock(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeExternBlock, parent, m)
	p.next() // extern

	if p.tok().Kind == TokenString {
		p.nodes[id].Text = p.next().Text
	}

	err := p.itemBlock(id)
	p.close(id)

	return id, err
}

func (p *parser) macroRules(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeMacroDef, parent, m)
	p.next() // macro_rules
	p.next() // !

	if err := p.name(id); err != nil {
		return id, err
	}

	if !isOpener(p.tok()) {
		return id, p.errExpected("macro body")
	}

	brace := p.at("{")
	if err := p.skipGroup(); err != nil {
		return id, err
	}

	if !brace {
		if err := p.expect(";"); err != nil {
			return id, err
		}
	}

	p.close(id)

	return id, nil
}

// itemMacro parses an item-position macro invocation. Its body is kept opaque.
func (p *parser) itemMacro(parent NodeID, m mark) (NodeID, error) {
	id := p.wrap(NodeMacroCall, parent, m)

	path, err := p.path()
	if err != nil {
		return id, err
	}

	if err := p.expect("!"); err != nil {
		return id, err
	}

	p.nodes[id].Text = path
	p.nodes[id].Name = lastSegment(path)

	if p.tok().Kind == TokenIdent {
		p.next()
	}

	if !isOpener(p.tok()) {
		return id, p.errExpected("macro arguments")
	}

	brace := p.at("{")
	if err := p.skipGroup(); err != nil {
		return id, err
	}

	if !brace {
		if err := p.expect(";"); err != nil {
			return id, err
		}
	}

	p.close(id)

	return id, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}

	return path
}

func isTypeLike(path string) bool {
	r, _ := utf8.DecodeRuneInString(lastSegment(path))
	return unicode.IsUpper(r)
}
