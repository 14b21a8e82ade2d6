package adapter

import (
	"unicode/utf8"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// RustFileAdapter turns Rust source text into the Source Model.
type RustFileAdapter interface {
	Parse(path m.Path, content []byte, opts syntax.Options) (*syntax.File, error)
}

// LocalRustFileAdapter implements RustFileAdapter with the syntax package.
type LocalRustFileAdapter struct{}

// NewLocalRustFileAdapter creates a LocalRustFileAdapter.
func NewLocalRustFileAdapter() *LocalRustFileAdapter {
	return &LocalRustFileAdapter{}
}

// Parse builds the Source Model of content. Input that is not valid UTF-8
// is rejected with a *syntax.ParseError pointing at the first bad byte.
func (a *LocalRustFileAdapter) Parse(path m.Path, content []byte, opts syntax.Options) (*syntax.File, error) {
	if !utf8.Valid(content) {
		off := firstInvalid(content)
		lines := syntax.NewLineIndex(content)

		return nil, &syntax.ParseError{
			Path:  path,
			Span:  m.Span{Start: off, End: off + 1},
			Pos:   lines.Position(off),
			Found: "invalid UTF-8",
		}
	}

	return syntax.Parse(path, content, opts)
}

func firstInvalid(content []byte) uint32 {
	var off uint32

	for len(content) > 0 {
		r, size := utf8.DecodeRune(content)
		if r == utf8.RuneError && size <= 1 {
			return off
		}

		content = content[size:]
		off += uint32(size) // #nosec G115 -- size is at most 4
	}

	return off
}
