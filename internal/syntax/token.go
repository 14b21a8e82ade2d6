// Package syntax turns Rust source text into the Source Model consumed by the
// rules: a lossless token stream, a simplified node tree and a line index.
package syntax

import "ferrule.dev/pkg/ferrule/internal/model"

// TokenKind classifies a token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenWhitespace
	TokenLineComment
	TokenBlockComment
	// TokenDocComment is an outer doc comment: /// or /** */.
	TokenDocComment
	// TokenInnerDocComment is an inner doc comment: //! or /*! */.
	TokenInnerDocComment
	TokenIdent
	TokenKeyword
	TokenLifetime
	TokenInt
	TokenFloat
	TokenString
	TokenChar
	TokenPunct
	// TokenShebang is a `#!` interpreter line at the very start of a file.
	TokenShebang
)

var tokenKindNames = [...]string{
	TokenEOF:             "eof",
	TokenWhitespace:      "whitespace",
	TokenLineComment:     "line comment",
	TokenBlockComment:    "block comment",
	TokenDocComment:      "doc comment",
	TokenInnerDocComment: "inner doc comment",
	TokenIdent:           "identifier",
	TokenKeyword:         "keyword",
	TokenLifetime:        "lifetime",
	TokenInt:             "integer literal",
	TokenFloat:           "float literal",
	TokenString:          "string literal",
	TokenChar:            "char literal",
	TokenPunct:           "punctuation",
	TokenShebang:         "shebang",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}

	return "unknown"
}

// Token is one lexeme. Tokens are immutable once produced.
type Token struct {
	Kind TokenKind
	Text string
	Span model.Span
}

// IsTrivia reports whether the token is whitespace, a comment or a shebang.
func (t Token) IsTrivia() bool {
	return t.Kind == TokenWhitespace || t.Kind == TokenShebang || t.IsComment()
}

// IsComment reports whether the token is any kind of comment.
func (t Token) IsComment() bool {
	switch t.Kind {
	case TokenLineComment, TokenBlockComment, TokenDocComment, TokenInnerDocComment:
		return true
	default:
		return false
	}
}

// IsDoc reports whether the token is an outer or inner doc comment.
func (t Token) IsDoc() bool {
	return t.Kind == TokenDocComment || t.Kind == TokenInnerDocComment
}

// IsLiteral reports whether the token is a numeric, string or char literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case TokenInt, TokenFloat, TokenString, TokenChar:
		return true
	default:
		return false
	}
}

// IsNumber reports whether the token is a numeric literal.
func (t Token) IsNumber() bool {
	return t.Kind == TokenInt || t.Kind == TokenFloat
}

// Is reports whether the token is punctuation or a keyword with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenKeyword) && t.Text == text
}

// IsKeyword reports whether the token is the given keyword.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == TokenKeyword && t.Text == kw
}

// CommentBody strips comment markers and returns the inner text.
func (t Token) CommentBody() string {
	text := t.Text

	switch t.Kind {
	case TokenLineComment:
		return text[2:]
	case TokenDocComment, TokenInnerDocComment:
		if len(text) >= 3 && text[1] == '/' {
			return text[3:]
		}

		return trimBlockMarkers(text, 3)
	case TokenBlockComment:
		return trimBlockMarkers(text, 2)
	default:
		return text
	}
}

func trimBlockMarkers(text string, open int) string {
	if len(text) < open+2 {
		return ""
	}

	return text[open : len(text)-2]
}
