package syntax

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"

	"ferrule.dev/pkg/ferrule/internal/model"
)

// lexer produces a lossless token stream: every input byte belongs to exactly
// one token, whitespace and comments included.
type lexer struct {
	src    []byte
	off    int
	tokens []Token
	last   *Token // last significant token
}

// Lex tokenizes src. The returned slice always ends with a TokenEOF.
func Lex(src []byte) ([]Token, error) {
	size, err := safecast.Conv[uint32](len(src))
	if err != nil {
		return nil, fmt.Errorf("source too large: %w", err)
	}

	lx := &lexer{src: src, tokens: make([]Token, 0, len(src)/3+1)}

	if n := shebangLen(src); n > 0 {
		lx.off = n
		lx.emit(TokenShebang, 0)
	}

	for lx.off < len(lx.src) {
		start := lx.off

		kind, err := lx.scan()
		if err != nil {
			return nil, err
		}

		lx.emit(kind, start)
	}

	lx.tokens = append(lx.tokens, Token{Kind: TokenEOF, Span: model.Span{Start: size, End: size}})

	return lx.tokens, nil
}

// shebangLen returns the length of a leading `#!` line. `#![` opens an inner
// attribute and is not a shebang.
func shebangLen(src []byte) int {
	if !bytes.HasPrefix(src, []byte("#!")) {
		return 0
	}

	if bytes.HasPrefix(bytes.TrimLeft(src[2:], " \t\r\n"), []byte("[")) {
		return 0
	}

	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		return i
	}

	return len(src)
}

func (lx *lexer) emit(kind TokenKind, start int) {
	lx.tokens = append(lx.tokens, Token{
		Kind: kind,
		Text: string(lx.src[start:lx.off]),
		Span: model.Span{Start: uint32(start), End: uint32(lx.off)}, // #nosec G115 -- bounded by Lex
	})

	if !lx.tokens[len(lx.tokens)-1].IsTrivia() {
		lx.last = &lx.tokens[len(lx.tokens)-1]
	}
}

func (lx *lexer) peek(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}

	return lx.src[lx.off+n]
}

func (lx *lexer) errorAt(start, end int, expected, found string) error {
	return &ParseError{
		Span:     model.Span{Start: uint32(start), End: uint32(end)}, // #nosec G115 -- bounded by Lex
		Expected: expected,
		Found:    found,
	}
}

//nolint:cyclop // One dispatch per lexeme family.
func (lx *lexer) scan() (TokenKind, error) {
	c := lx.src[lx.off]

	switch {
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		lx.scanSpace()
		return TokenWhitespace, nil
	case c == '/' && lx.peek(1) == '/':
		return lx.scanLineComment(), nil
	case c == '/' && lx.peek(1) == '*':
		return lx.scanBlockComment()
	case c == 'r' && lx.peek(1) == '#' && isIdentStart(lx.peek(2)):
		lx.off += 2
		lx.scanIdentRest()

		return TokenIdent, nil
	case c == 'r' && (lx.peek(1) == '"' || lx.peek(1) == '#'):
		return lx.scanRawString(1)
	case c == 'b' && lx.peek(1) == 'r' && (lx.peek(2) == '"' || lx.peek(2) == '#'):
		return lx.scanRawString(2)
	case (c == 'b' || c == 'c') && lx.peek(1) == '"':
		lx.off++
		return lx.scanString()
	case c == 'b' && lx.peek(1) == '\'':
		lx.off++
		return lx.scanQuote()
	case isIdentStart(c):
		return lx.scanIdent(), nil
	case c >= '0' && c <= '9':
		return lx.scanNumber(), nil
	case c == '"':
		return lx.scanString()
	case c == '\'':
		return lx.scanQuote()
	case c >= utf8.RuneSelf:
		return lx.scanUnicode()
	}

	return lx.scanPunct()
}

func (lx *lexer) scanSpace() {
	for lx.off < len(lx.src) {
		switch lx.src[lx.off] {
		case ' ', '\t', '\n', '\r':
			lx.off++
		default:
			return
		}
	}
}

func (lx *lexer) scanUnicode() (TokenKind, error) {
	r, size := utf8.DecodeRune(lx.src[lx.off:])

	switch {
	case unicode.IsSpace(r):
		lx.off += size
		return TokenWhitespace, nil
	case unicode.IsLetter(r):
		return lx.scanIdent(), nil
	}

	return 0, lx.errorAt(lx.off, lx.off+size, "", fmt.Sprintf("character %q", r))
}

func (lx *lexer) scanLineComment() TokenKind {
	start := lx.off
	end := len(lx.src)

	if i := strings.IndexByte(string(lx.src[start:]), '\n'); i >= 0 {
		end = start + i
	}

	lx.off = end
	text := lx.src[start:end]

	switch {
	case len(text) >= 3 && text[2] == '!':
		return TokenInnerDocComment
	case len(text) >= 3 && text[2] == '/' && (len(text) == 3 || text[3] != '/'):
		return TokenDocComment
	}

	return TokenLineComment
}

func (lx *lexer) scanBlockComment() (TokenKind, error) {
	start := lx.off
	depth := 0

	for lx.off < len(lx.src) {
		switch {
		case lx.src[lx.off] == '/' && lx.peek(1) == '*':
			depth++
			lx.off += 2
		case lx.src[lx.off] == '*' && lx.peek(1) == '/':
			depth--
			lx.off += 2

			if depth == 0 {
				return blockCommentKind(lx.src[start:lx.off]), nil
			}
		default:
			lx.off++
		}
	}

	return 0, lx.errorAt(start, lx.off, "*/", "end of file in block comment")
}

func blockCommentKind(text []byte) TokenKind {
	switch {
	case len(text) > 4 && text[2] == '!':
		return TokenInnerDocComment
	case len(text) > 4 && text[2] == '*' && text[3] != '*' && text[3] != '/':
		return TokenDocComment
	}

	return TokenBlockComment
}

func (lx *lexer) scanIdent() TokenKind {
	start := lx.off
	lx.scanIdentRest()

	if IsKeyword(string(lx.src[start:lx.off])) {
		return TokenKeyword
	}

	return TokenIdent
}

func (lx *lexer) scanIdentRest() {
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		if isIdentContinue(c) {
			lx.off++
			continue
		}

		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRune(lx.src[lx.off:])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				lx.off += size
				continue
			}
		}

		return
	}
}

func (lx *lexer) scanNumber() TokenKind {
	if lx.src[lx.off] == '0' {
		switch lx.peek(1) {
		case 'x', 'X':
			lx.off += 2
			lx.consume(isHexDigit)
			lx.consume(isIdentContinue)

			return TokenInt
		case 'o', 'O', 'b', 'B':
			lx.off += 2
			lx.consume(isDecDigit)
			lx.consume(isIdentContinue)

			return TokenInt
		}
	}

	kind := TokenInt
	lx.consume(isDecDigit)

	// A number right after '.' is a tuple index: t.0.1 never lexes 0.1.
	tupleIndex := lx.last != nil && lx.last.Is(".")

	if lx.peek(0) == '.' && !tupleIndex {
		next := lx.peek(1)

		switch {
		case next >= '0' && next <= '9':
			lx.off++
			lx.consume(isDecDigit)

			kind = TokenFloat
		case next != '.' && !isIdentStart(next) && next < utf8.RuneSelf:
			lx.off++

			kind = TokenFloat
		}
	}

	if c := lx.peek(0); (c == 'e' || c == 'E') && !tupleIndex {
		next := lx.peek(1)
		if next >= '0' && next <= '9' || ((next == '+' || next == '-') && isDecDigit(lx.peek(2))) {
			lx.off += 2
			lx.consume(isDecDigit)

			kind = TokenFloat
		}
	}

	if isIdentStart(lx.peek(0)) {
		if lx.peek(0) == 'f' {
			kind = TokenFloat
		}

		lx.consume(isIdentContinue)
	}

	return kind
}

func (lx *lexer) consume(pred func(byte) bool) {
	for lx.off < len(lx.src) && pred(lx.src[lx.off]) {
		lx.off++
	}
}

func (lx *lexer) scanString() (TokenKind, error) {
	start := lx.off
	lx.off++ // opening quote

	for lx.off < len(lx.src) {
		switch lx.src[lx.off] {
		case '\\':
			lx.off += 2
		case '"':
			lx.off++
			lx.consume(isIdentContinue)

			return TokenString, nil
		default:
			lx.off++
		}
	}

	lx.off = len(lx.src)

	return 0, lx.errorAt(start, lx.off, `closing "`, "end of file in string literal")
}

// scanRawString scans r#"..."# and br#"..."#; prefix is the length of r/br.
func (lx *lexer) scanRawString(prefix int) (TokenKind, error) {
	start := lx.off
	lx.off += prefix

	hashes := 0
	for lx.peek(0) == '#' {
		hashes++
		lx.off++
	}

	if lx.peek(0) != '"' {
		return 0, lx.errorAt(start, lx.off, `"`, fmt.Sprintf("%q", lx.peek(0)))
	}

	closing := "\"" + strings.Repeat("#", hashes)

	i := strings.Index(string(lx.src[lx.off+1:]), closing)
	if i < 0 {
		lx.off = len(lx.src)
		return 0, lx.errorAt(start, lx.off, closing, "end of file in raw string literal")
	}

	lx.off += 1 + i + len(closing)

	return TokenString, nil
}

// scanQuote distinguishes char literals ('a', '\n') from lifetimes ('a).
func (lx *lexer) scanQuote() (TokenKind, error) {
	start := lx.off
	lx.off++

	if lx.off >= len(lx.src) {
		return 0, lx.errorAt(start, lx.off, "char literal or lifetime", "end of file")
	}

	if lx.src[lx.off] == '\\' {
		end := strings.IndexByte(string(lx.src[lx.off+1:]), '\'')
		if end < 0 || end > 12 {
			return 0, lx.errorAt(start, lx.off+1, "closing '", "unterminated char literal")
		}

		lx.off += end + 2

		return TokenChar, nil
	}

	r, size := utf8.DecodeRune(lx.src[lx.off:])
	if lx.peek(size) == '\'' {
		lx.off += size + 1
		return TokenChar, nil
	}

	if r == '_' || unicode.IsLetter(r) {
		lx.off += size
		lx.scanIdentRest()

		return TokenLifetime, nil
	}

	return 0, lx.errorAt(start, lx.off+size, "closing '", fmt.Sprintf("%q", r))
}

func (lx *lexer) scanPunct() (TokenKind, error) {
	end := lx.off + 3
	if end > len(lx.src) {
		end = len(lx.src)
	}

	window := string(lx.src[lx.off:end])
	for _, p := range punctuation {
		if strings.HasPrefix(window, p) {
			lx.off += len(p)
			return TokenPunct, nil
		}
	}

	return 0, lx.errorAt(lx.off, lx.off+1, "", fmt.Sprintf("character %q", lx.src[lx.off]))
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || isDecDigit(c)
}

func isDecDigit(c byte) bool {
	return (c >= '0' && c <= '9') || c == '_'
}

func isHexDigit(c byte) bool {
	return isDecDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
