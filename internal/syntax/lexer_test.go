package syntax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func significant(tokens []Token) []Token {
	var out []Token

	for _, t := range tokens {
		if !t.IsTrivia() && t.Kind != TokenEOF {
			out = append(out, t)
		}
	}

	return out
}

func TestLex_Lossless(t *testing.T) {
	src := "//! crate doc\n/// Adds.\npub fn add(a: i32, b: i32) -> i32 { a + b } // tail\n/* a /* nested */ b */\n"

	tokens, err := Lex([]byte(src))
	require.NoError(t, err)

	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
	}

	assert.Equal(t, src, b.String())
	assert.Equal(t, TokenEOF, tokens[len(tokens)-1].Kind)

	for i := 1; i < len(tokens); i++ {
		assert.Equal(t, tokens[i-1].Span.End, tokens[i].Span.Start, "token %d is not contiguous", i)
	}
}

func TestLex_TokenKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []TokenKind
		texts []string
	}{
		{"outer doc", "/// doc", []TokenKind{TokenDocComment}, []string{"/// doc"}},
		{"four slashes is plain", "//// rule", []TokenKind{TokenLineComment}, []string{"//// rule"}},
		{"inner doc", "//! crate", []TokenKind{TokenInnerDocComment}, []string{"//! crate"}},
		{"nested block", "/* a /* b */ c */", []TokenKind{TokenBlockComment}, []string{"/* a /* b */ c */"}},
		{"block doc", "/** doc */", []TokenKind{TokenDocComment}, []string{"/** doc */"}},
		{"char", "'a'", []TokenKind{TokenChar}, []string{"'a'"}},
		{"escaped char", `'\n'`, []TokenKind{TokenChar}, []string{`'\n'`}},
		{"lifetime", "'static", []TokenKind{TokenLifetime}, []string{"'static"}},
		{"byte char", "b'x'", []TokenKind{TokenChar}, []string{"b'x'"}},
		{"raw string", `r#"a"b"#`, []TokenKind{TokenString}, []string{`r#"a"b"#`}},
		{"byte string", `b"bytes"`, []TokenKind{TokenString}, []string{`b"bytes"`}},
		{"escaped quote", `"a\"b"`, []TokenKind{TokenString}, []string{`"a\"b"`}},
		{"float with suffix", "1.5f32", []TokenKind{TokenFloat}, []string{"1.5f32"}},
		{"exponent", "1e10", []TokenKind{TokenFloat}, []string{"1e10"}},
		{"hex with suffix", "0xFF_u8", []TokenKind{TokenInt}, []string{"0xFF_u8"}},
		{"range", "1..2", []TokenKind{TokenInt, TokenPunct, TokenInt}, []string{"1", "..", "2"}},
		{"tuple index", "t.0", []TokenKind{TokenIdent, TokenPunct, TokenInt}, []string{"t", ".", "0"}},
		{"method on int", "1.max(2)", []TokenKind{TokenInt, TokenPunct, TokenIdent, TokenPunct, TokenInt, TokenPunct}, []string{"1", ".", "max", "(", "2", ")"}},
		{"raw identifier", "r#type", []TokenKind{TokenIdent}, []string{"r#type"}},
		{"keyword", "fn", []TokenKind{TokenKeyword}, []string{"fn"}},
		{"nested generics", "Vec<Vec<u8>>", []TokenKind{TokenIdent, TokenPunct, TokenIdent, TokenPunct, TokenIdent, TokenPunct, TokenPunct}, []string{"Vec", "<", "Vec", "<", "u8", ">", ">"}},
		{"path and arrow", "a::b->c", []TokenKind{TokenIdent, TokenPunct, TokenIdent, TokenPunct, TokenIdent}, []string{"a", "::", "b", "->", "c"}},
		{"unicode identifier", "größe", []TokenKind{TokenIdent}, []string{"größe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex([]byte(tt.input))
			require.NoError(t, err)

			sig := tokens[:len(tokens)-1]
			if tt.kinds[0] != TokenDocComment && tt.kinds[0] != TokenInnerDocComment &&
				tt.kinds[0] != TokenLineComment && tt.kinds[0] != TokenBlockComment {
				sig = significant(tokens)
			}

			kinds := make([]TokenKind, 0, len(sig))
			texts := make([]string, 0, len(sig))

			for _, tok := range sig {
				kinds = append(kinds, tok.Kind)
				texts = append(texts, tok.Text)
			}

			assert.Equal(t, tt.kinds, kinds)
			assert.Equal(t, tt.texts, texts)
		})
	}
}

func TestLex_Shebang(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		shebang string
	}{
		{"interpreter line", "#!/usr/bin/env run-cargo-script\nfn main() {}\n", "#!/usr/bin/env run-cargo-script"},
		{"only line", "#!/bin/rust", "#!/bin/rust"},
		{"inner attribute", "#![allow(dead_code)]\nfn main() {}\n", ""},
		{"inner attribute after space", "#! [allow(dead_code)]\nfn main() {}\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex([]byte(tt.input))
			require.NoError(t, err)

			if tt.shebang == "" {
				assert.NotEqual(t, TokenShebang, tokens[0].Kind)
				assert.Equal(t, "#", tokens[0].Text)

				return
			}

			assert.Equal(t, TokenShebang, tokens[0].Kind)
			assert.Equal(t, tt.shebang, tokens[0].Text)
			assert.True(t, tokens[0].IsTrivia())
		})
	}
}

func TestParse_Shebang(t *testing.T) {
	f, err := Parse("script.rs", []byte("#!/usr/bin/env run-cargo-script\n// entry\nfn main() {}\n"), Options{})
	require.NoError(t, err)

	root := f.Node(f.Root())
	require.Len(t, root.Children, 1)

	main := f.Node(root.Children[0])
	assert.Equal(t, NodeFunction, main.Kind)
	assert.Equal(t, "main", main.Name)
	assert.Equal(t, 3, f.Position(main.Span.Start).Line)
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		start    uint32
	}{
		{"unterminated string", `let s = "abc`, `closing "`, 8},
		{"unterminated block comment", "/* open", "*/", 0},
		{"unterminated raw string", `r#"abc"`, `"#`, 0},
		{"unknown character", "let x = `y`;", "", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex([]byte(tt.input))
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.expected, perr.Expected)
			assert.Equal(t, tt.start, perr.Span.Start)
		})
	}
}

func TestToken_CommentBody(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{Token{Kind: TokenLineComment, Text: "// note"}, " note"},
		{Token{Kind: TokenDocComment, Text: "/// doc"}, " doc"},
		{Token{Kind: TokenInnerDocComment, Text: "/*! inner */"}, " inner "},
		{Token{Kind: TokenBlockComment, Text: "/* body */"}, " body "},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tok.CommentBody())
	}
}
