package syntax

var keywords = map[string]struct{}{
	"as": {}, "async": {}, "await": {}, "break": {}, "const": {}, "continue": {},
	"crate": {}, "dyn": {}, "else": {}, "enum": {}, "extern": {}, "false": {},
	"fn": {}, "for": {}, "if": {}, "impl": {}, "in": {}, "let": {}, "loop": {},
	"match": {}, "mod": {}, "move": {}, "mut": {}, "pub": {}, "ref": {},
	"return": {}, "self": {}, "Self": {}, "static": {}, "struct": {}, "super": {},
	"trait": {}, "true": {}, "type": {}, "unsafe": {}, "use": {}, "where": {},
	"while": {},
}

// IsKeyword reports whether word is a reserved Rust keyword.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

// punctuation ordered longest first so the lexer takes the longest match.
// '>' never combines with a following '>' or '=' so that closing generic
// brackets in `Vec<Vec<u8>>` and `let v: Vec<u8>= ...` stay separate.
var punctuation = []string{
	"<<=", "...", "..=",
	"::", "->", "=>", "==", "!=", "<=", "&&", "||", "+=", "-=", "*=",
	"/=", "%=", "^=", "&=", "|=", "..",
	"+", "-", "*", "/", "%", "^", "!", "&", "|", "=", "<", ">", "@", ".", ",",
	";", ":", "#", "$", "?", "~", "(", ")", "[", "]", "{", "}",
}
