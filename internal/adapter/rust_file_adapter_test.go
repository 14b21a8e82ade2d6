package adapter

import (
	"errors"
	"testing"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

func TestLocalRustFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalRustFileAdapter()

	t.Run("valid source", func(t *testing.T) {
		file, err := adapter.Parse("lib.rs", []byte("pub fn answer() -> u32 { 42 }\n"), syntax.Options{})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		if file.Path != "lib.rs" {
			t.Fatalf("Parse() path = %s, want lib.rs", file.Path)
		}
	})

	t.Run("invalid utf-8 points at the first bad byte", func(t *testing.T) {
		_, err := adapter.Parse("bin.rs", []byte("fn f() {}\n// caf\xe9\n"), syntax.Options{})

		var perr *syntax.ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("Parse() error = %v, want *syntax.ParseError", err)
		}

		if want := (m.Span{Start: 16, End: 17}); perr.Span != want {
			t.Fatalf("Parse() span = %v, want %v", perr.Span, want)
		}

		if perr.Pos.Line != 2 || perr.Pos.Column != 7 {
			t.Fatalf("Parse() position = %v, want 2:7", perr.Pos)
		}
	})

	t.Run("syntax errors are returned", func(t *testing.T) {
		if _, err := adapter.Parse("bad.rs", []byte("fn broken( {\n"), syntax.Options{}); err == nil {
			t.Fatalf("Parse() expected error")
		}
	})
}

func TestFirstInvalid(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"\xff", 0},
		{"ab\xff", 2},
		{"é\xc3", 2},
		{"ok", 2},
	}

	for _, tt := range tests {
		if got := firstInvalid([]byte(tt.in)); got != tt.want {
			t.Errorf("firstInvalid(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
