package syntax

import "fmt"

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "^": true, "&": true, "|": true,
	"&&": true, "||": true, "==": true, "!=": true, "<": true, "<=": true, ">": true,
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "^=": true,
	"&=": true, "|=": true, "<<=": true, "..": true, "..=": true, "...": true,
}

// block parses `{ stmts }` after skipping prefix tokens such as `unsafe`,
// `async move` or a label.
func (p *parser) block(parent NodeID, kind NodeKind, prefix int) (NodeID, error) {
	id := p.open(kind, parent)

	for range prefix {
		if p.next().IsKeyword("async") {
			p.nodes[id].Flags |= FlagAsync
		}
	}

	if err := p.expect("{"); err != nil {
		return id, err
	}

	for !p.at("}") {
		if p.eof() {
			return id, p.errExpected(`"}"`)
		}

		if err := p.stmt(id); err != nil {
			return id, err
		}
	}

	p.next()
	p.close(id)

	return id, nil
}

func (p *parser) stmt(parent NodeID) error {
	if p.eat(";") {
		return nil
	}

	if p.isItemStart() {
		return p.item(parent)
	}

	m := p.mark(parent)

	for p.atOuterAttribute() {
		if _, err := p.attribute(parent); err != nil {
			return err
		}
	}

	if p.atKw("let") {
		return p.letStmt(parent, m)
	}

	var err error
	if p.atBlockLike() {
		err = p.blockExpr(parent)
	} else {
		err = p.expr(parent, false)
	}

	if err != nil {
		return err
	}

	if !p.eat(";") && !p.at("}") && !p.prevIs("}") {
		return p.errExpected(`";"`)
	}

	p.closeWrap(NodeStmt, parent, m)

	return nil
}

func (p *parser) letStmt(parent NodeID, m mark) error {
	p.next() // let

	pattern := p.pos
	p.skipUntil(stopAt(":", "=", ";"))
	end := p.pos

	if p.eat(":") {
		p.skipUntil(stopAt("=", ";"))
	}

	if p.eat("=") {
		if err := p.expr(parent, false); err != nil {
			return err
		}
	}

	if p.atKw("else") {
		p.next()

		if _, err := p.block(parent, NodeBlock, 0); err != nil {
			return err
		}
	}

	if err := p.expect(";"); err != nil {
		return err
	}

	id := p.closeWrap(NodeLet, parent, m)
	p.bindPattern(id, pattern, end)

	return nil
}

// blockExpr parses an expression that starts with a block-like construct. The
// construct ends the expression unless a method call or `?` follows.
func (p *parser) blockExpr(parent NodeID) error {
	m := p.mark(parent)

	if err := p.blockLike(parent); err != nil {
		return err
	}

	if !p.at(".") && !p.at("?") {
		return nil
	}

	if err := p.postfix(parent, m); err != nil {
		return err
	}

	return p.exprTail(parent, false, false)
}

func (p *parser) atExprEnd(noStruct bool) bool {
	t := p.tok()

	switch {
	case t.Kind == TokenEOF:
		return true
	case t.Kind == TokenPunct:
		switch t.Text {
		case ";", ",", ")", "]", "}", "=>":
			return true
		case "{":
			return noStruct
		}
	case t.IsKeyword("else"):
		return true
	}

	return false
}

func (p *parser) expr(parent NodeID, noStruct bool) error {
	return p.exprTail(parent, noStruct, true)
}

// exprTail parses operands joined by binary operators. operand tells whether
// an operand is expected first.
func (p *parser) exprTail(parent NodeID, noStruct, operand bool) error {
	for !p.atExprEnd(noStruct) {
		if !operand {
			if !p.binaryOp() {
				return nil
			}

			operand = true

			continue
		}

		m := p.mark(parent)

		if err := p.operand(parent, noStruct); err != nil {
			return err
		}

		if err := p.postfix(parent, m); err != nil {
			return err
		}

		operand = false
	}

	return nil
}

func (p *parser) binaryOp() bool {
	t := p.tok()
	if t.IsKeyword("as") {
		p.next()
		return true
	}

	if t.Kind != TokenPunct || !binaryOps[t.Text] {
		return false
	}

	p.next()

	// shifts and >= arrive as adjacent single-character tokens
	if t.Text == "<" || t.Text == ">" {
		if n := p.tok(); n.Span.Start == t.Span.End && (n.Is(t.Text) || n.Is("=")) {
			p.next()
		}
	}

	return true
}

// prefix consumes one unary operator or keyword that leaves an operand
// expected.
func (p *parser) prefix() bool {
	t := p.tok()
	next := p.peek(1)

	switch {
	case t.Is("-") && !next.IsNumber(),
		t.Is("!"), t.Is("*"), t.Is("&"), t.Is("&&"), t.Is(".."), t.Is("..="),
		t.IsKeyword("mut"), t.IsKeyword("ref"), t.IsKeyword("dyn"), t.IsKeyword("impl"),
		t.IsKeyword("return"), t.IsKeyword("break"), t.IsKeyword("continue"), t.IsKeyword("let"),
		t.IsKeyword("const") && !next.Is("{"),
		t.Kind == TokenLifetime && !next.Is(":"):
		p.next()
	case t.Is("#") && next.Is("["):
		p.next()

		return p.skipGroup() == nil
	default:
		return false
	}

	return true
}

func (p *parser) atPathStart() bool {
	t := p.tok()

	return t.Kind == TokenIdent || t.Is("::") || t.Is("<") ||
		t.IsKeyword("self") || t.IsKeyword("Self") || t.IsKeyword("super") || t.IsKeyword("crate")
}

//nolint:cyclop // One branch per primary expression form.
func (p *parser) operand(parent NodeID, noStruct bool) error {
	p.callee = ""

	for p.prefix() {
	}

	if p.atExprEnd(noStruct) {
		return nil
	}

	t := p.tok()
	next := p.peek(1)

	switch {
	case t.Is("-") && next.IsNumber(), t.IsLiteral(), t.IsKeyword("true"), t.IsKeyword("false"):
		p.literal(parent)
	case p.atBlockLike():
		return p.blockLike(parent)
	case t.Is("|"), t.Is("||"),
		t.IsKeyword("move") && (next.Is("|") || next.Is("||")),
		t.IsKeyword("async") && (next.IsKeyword("move") || next.Is("|") || next.Is("||")):
		return p.closure(parent, noStruct)
	case t.Is("("):
		return p.group(parent, ")")
	case t.Is("["):
		return p.group(parent, "]")
	case p.atPathStart():
		return p.pathExpr(parent, noStruct)
	default:
		p.next()
	}

	return nil
}

func (p *parser) literal(parent NodeID) NodeID {
	id := p.open(NodeLiteral, parent)
	neg := p.eat("-")
	t := p.next()
	p.close(id)

	n := &p.nodes[id]
	n.Text = t.Text

	if neg {
		n.Text = "-" + t.Text
		n.Flags |= FlagNegative
	}

	return id
}

// group parses a parenthesised or bracketed list of expressions.
func (p *parser) group(parent NodeID, closer string) error {
	p.next()

	for !p.at(closer) {
		if p.eof() {
			return p.errExpected(fmt.Sprintf("%q", closer))
		}

		if err := p.expr(parent, false); err != nil {
			return err
		}

		if !p.eat(",") && !p.eat(";") {
			break
		}
	}

	return p.expect(closer)
}

// path consumes a path expression and returns its text without generic
// arguments, e.g. std::process::abort or Vec::new.
func (p *parser) path() (string, error) {
	var segments []string

	if p.at("<") {
		if err := p.skipAngles(); err != nil {
			return "", err
		}

		segments = append(segments, "<>")
	}

	segment := len(segments) > 0

	for {
		t := p.tok()

		switch {
		case t.Is("::"):
			p.next()

			if p.at("<") {
				if err := p.skipAngles(); err != nil {
					return "", err
				}

				continue
			}

			segment = false
		case !segment && (t.Kind == TokenIdent || t.IsKeyword("self") || t.IsKeyword("Self") ||
			t.IsKeyword("super") || t.IsKeyword("crate")):
			p.next()

			segments = append(segments, t.Text)
			segment = true
		default:
			return joinPath(segments), nil
		}
	}
}

func joinPath(segments []string) string {
	out := ""

	for i, s := range segments {
		if i > 0 {
			out += "::"
		}

		out += s
	}

	return out
}

func (p *parser) pathExpr(parent NodeID, noStruct bool) error {
	m := p.mark(parent)

	path, err := p.path()
	if err != nil {
		return err
	}

	switch {
	case p.at("!") && isOpener(p.peek(1)):
		return p.macroCall(parent, m, path)
	case p.at("{") && !noStruct && isTypeLike(path):
		return p.structLiteral(parent)
	}

	p.callee = path

	return nil
}

func (p *parser) structLiteral(parent NodeID) error {
	p.next() // {

	for !p.at("}") {
		if p.eof() {
			return p.errExpected(`"}"`)
		}

		if p.tok().Kind == TokenIdent && p.peek(1).Is(":") {
			p.next()
			p.next()
		}

		if err := p.expr(parent, false); err != nil {
			return err
		}

		if !p.eat(",") {
			break
		}
	}

	return p.expect("}")
}

func (p *parser) macroCall(parent NodeID, m mark, path string) error {
	id := p.wrap(NodeMacroCall, parent, m)
	p.next() // !

	p.nodes[id].Text = path
	p.nodes[id].Name = lastSegment(path)

	snap := p.snapshot(id)
	if err := p.macroArgs(id); err != nil {
		// not expression shaped; keep the body as an opaque token tree
		p.restore(snap)

		if err := p.skipGroup(); err != nil {
			return err
		}
	}

	p.close(id)

	return nil
}

func (p *parser) macroArgs(id NodeID) error {
	closer := closerOf(p.next().Text)

	for !p.at(closer) {
		if p.eof() {
			return p.errExpected(fmt.Sprintf("%q", closer))
		}

		if err := p.expr(id, false); err != nil {
			return err
		}

		if !p.eat(",") && !p.eat(";") && !p.eat("=>") && !p.at(closer) {
			return p.errExpected(fmt.Sprintf("%q", closer))
		}
	}

	p.next()

	return nil
}

//nolint:cyclop // One branch per postfix form.
func (p *parser) postfix(parent NodeID, m mark) error {
	callee := p.callee
	p.callee = ""

	for {
		switch {
		case p.at("?"):
			p.next()
		case p.at("."):
			next := p.peek(1)

			switch {
			case next.IsKeyword("await"):
				p.next()
				p.next()
			case next.Kind == TokenIdent && (p.peek(2).Is("(") || p.peek(2).Is("::") && p.peek(3).Is("<")):
				p.next()
				name := p.next()

				if p.eat("::") {
					if err := p.skipAngles(); err != nil {
						return err
					}
				}

				id := p.wrap(NodeCall, parent, m)
				n := &p.nodes[id]
				n.Name = name.Text
				n.Text = name.Text
				n.NameSpan = name.Span
				n.Flags |= FlagMethodCall

				if err := p.group(id, ")"); err != nil {
					return err
				}

				p.close(id)
			case next.Kind == TokenIdent || next.IsNumber():
				p.next()
				p.next()
			default:
				return nil
			}
		case p.at("("):
			id := p.wrap(NodeCall, parent, m)
			p.nodes[id].Text = callee
			p.nodes[id].Name = lastSegment(callee)
			callee = ""

			if err := p.group(id, ")"); err != nil {
				return err
			}

			p.close(id)
		case p.at("["):
			if err := p.index(parent, m); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *parser) index(parent NodeID, m mark) error {
	id := p.wrap(NodeIndex, parent, m)
	p.next() // [

	inner := p.mark(id)
	if err := p.expr(id, false); err != nil {
		return err
	}

	children := p.nodes[id].Children[inner.child:]
	if len(children) == 1 && p.pos > inner.pos {
		lit := &p.nodes[children[0]]
		if lit.Kind == NodeLiteral && lit.FirstToken == p.sig[inner.pos] && lit.LastToken == p.sig[p.pos-1] {
			lit.Flags |= FlagIndexed
		}
	}

	if err := p.expect("]"); err != nil {
		return err
	}

	p.close(id)

	return nil
}

func (p *parser) atBlockLike() bool {
	t := p.tok()
	next := p.peek(1)

	switch {
	case t.Is("{"), t.IsKeyword("if"), t.IsKeyword("match"), t.IsKeyword("loop"),
		t.IsKeyword("while"), t.IsKeyword("for"):
		return true
	case t.IsKeyword("unsafe"), t.IsKeyword("const"):
		return next.Is("{")
	case t.IsKeyword("async"):
		return next.Is("{") || next.IsKeyword("move") && p.peek(2).Is("{")
	case t.Kind == TokenLifetime:
		return next.Is(":")
	}

	return false
}

func (p *parser) blockLike(parent NodeID) error {
	t := p.tok()

	var err error

	switch {
	case t.Kind == TokenLifetime:
		kw := p.peek(2)
		if kw.IsKeyword("loop") || kw.IsKeyword("while") || kw.IsKeyword("for") {
			return p.loop(parent, 2)
		}

		_, err = p.block(parent, NodeBlock, 2)
	case t.IsKeyword("if"):
		return p.ifExpr(parent, false)
	case t.IsKeyword("match"):
		return p.matchExpr(parent)
	case t.IsKeyword("loop"), t.IsKeyword("while"), t.IsKeyword("for"):
		return p.loop(parent, 0)
	case t.IsKeyword("unsafe"):
		_, err = p.block(parent, NodeUnsafeBlock, 1)
	case t.IsKeyword("async") && p.peek(1).IsKeyword("move"):
		_, err = p.block(parent, NodeBlock, 2)
	case t.IsKeyword("async"), t.IsKeyword("const"):
		_, err = p.block(parent, NodeBlock, 1)
	default:
		_, err = p.block(parent, NodeBlock, 0)
	}

	return err
}

func (p *parser) ifExpr(parent NodeID, elseIf bool) error {
	id := p.open(NodeIf, parent)
	if elseIf {
		p.nodes[id].Flags |= FlagElseIf
	}

	p.next() // if

	if err := p.expr(id, true); err != nil {
		return err
	}

	if _, err := p.block(id, NodeBlock, 0); err != nil {
		return err
	}

	if p.atKw("else") {
		p.next()

		var err error
		if p.atKw("if") {
			err = p.ifExpr(id, true)
		} else {
			_, err = p.block(id, NodeBlock, 0)
		}

		if err != nil {
			return err
		}
	}

	p.close(id)

	return nil
}

func (p *parser) loop(parent NodeID, label int) error {
	id := p.open(NodeLoop, parent)

	for range label {
		p.next()
	}

	kw := p.next()
	p.nodes[id].Text = kw.Text

	switch kw.Text {
	case "while":
		if err := p.expr(id, true); err != nil {
			return err
		}
	case "for":
		p.skipUntil(stopAt("in"))

		if err := p.expect("in"); err != nil {
			return err
		}

		if err := p.expr(id, true); err != nil {
			return err
		}
	}

	if _, err := p.block(id, NodeBlock, 0); err != nil {
		return err
	}

	p.close(id)

	return nil
}

func (p *parser) matchExpr(parent NodeID) error {
	id := p.open(NodeMatch, parent)
	p.next() // match

	if err := p.expr(id, true); err != nil {
		return err
	}

	if err := p.expect("{"); err != nil {
		return err
	}

	for !p.at("}") {
		if p.eof() {
			return p.errExpected(`"}"`)
		}

		if err := p.arm(id); err != nil {
			return err
		}
	}

	p.next()
	p.close(id)

	return nil
}

func (p *parser) arm(match NodeID) error {
	m := p.mark(match)

	for p.atOuterAttribute() {
		if _, err := p.attribute(match); err != nil {
			return err
		}
	}

	id := p.wrap(NodeMatchArm, match, m)
	p.eat("|")

	pattern := p.pos
	if err := p.pattern(id); err != nil {
		return err
	}

	n := &p.nodes[id]
	n.Text = p.text(pattern, p.pos)

	if n.Text == "_" {
		n.Flags |= FlagWildcard
	}

	if p.atKw("if") {
		p.next()

		n.Flags |= FlagGuard

		if err := p.expr(id, false); err != nil {
			return err
		}
	}

	if err := p.expect("=>"); err != nil {
		return err
	}

	if p.atBlockLike() {
		if err := p.blockExpr(id); err != nil {
			return err
		}
	} else {
		if err := p.expr(id, false); err != nil {
			return err
		}

		if !p.at(",") && !p.at("}") {
			return p.errExpected(`","`)
		}
	}

	// The separating comma stays outside the arm.
	p.close(id)
	p.eat(",")

	return nil
}

// pattern skips a match pattern up to `=>` or an `if` guard, turning numeric
// literals into nodes.
func (p *parser) pattern(arm NodeID) error {
	depth := 0

	for depth > 0 || !p.at("=>") && !p.atKw("if") {
		t := p.tok()

		switch {
		case p.eof():
			return p.errExpected(`"=>"`)
		case t.IsNumber(), t.Is("-") && p.peek(1).IsNumber():
			p.literal(arm)
			continue
		case isOpener(t):
			depth++
		case isCloser(t):
			if depth == 0 {
				return p.errExpected(`"=>"`)
			}

			depth--
		}

		p.next()
	}

	return nil
}

func (p *parser) closure(parent NodeID, noStruct bool) error {
	id := p.open(NodeClosure, parent)

	if p.eat("async") {
		p.nodes[id].Flags |= FlagAsync
	}

	p.eat("move")

	if !p.eat("||") {
		if err := p.expect("|"); err != nil {
			return err
		}

		p.skipUntil(stopAt("|"))

		if err := p.expect("|"); err != nil {
			return err
		}
	}

	var err error

	if p.eat("->") {
		p.skipUntil(stopAt("{"))
		_, err = p.block(id, NodeBlock, 0)
	} else {
		err = p.expr(id, noStruct)
	}

	if err != nil {
		return err
	}

	p.close(id)

	return nil
}
