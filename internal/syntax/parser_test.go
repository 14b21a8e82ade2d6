package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferrule.dev/pkg/ferrule/internal/model"
)

const itemsSource = `/// Docs.
#[derive(Debug)]
pub struct Point {
    /// X.
    pub x: f64,
    y: f64,
}

pub(crate) enum Shape { Circle(f64), Square { side: f64 }, Empty = 3 }

trait Area { fn area(&self) -> f64; }

impl Area for Point {
    fn area(&self) -> f64 { 0.0 }
}

mod inner;
const MAX: u32 = 10;
static mut COUNTER: u32 = 0;
type Alias = Vec<u8>;
use std::collections::HashMap;
macro_rules! square { ($x:expr) => { $x * $x }; }
`

const exprSource = `fn run(items: Vec<u32>, mut limit: u32) -> u32 {
    let total = items.iter().map(|x| x * 2).sum::<u32>();
    if total > 10 {
        println!("{}", total);
    } else if total > 5 {
        return 1;
    } else {
        return 0;
    }
    let first = items[0];
    unsafe { limit += 1; }
    match total {
        0 => 1,
        n if n > 3 => { n }
        _ => 2,
    }
}
`

func mustParse(t *testing.T, src string) *File {
	t.Helper()

	f, err := Parse("test.rs", []byte(src), Options{})
	require.NoError(t, err)

	return f
}

func childKinds(f *File, id NodeID) []NodeKind {
	var kinds []NodeKind
	for _, c := range f.Node(id).Children {
		kinds = append(kinds, f.Node(c).Kind)
	}

	return kinds
}

func findAll(f *File, kind NodeKind) []NodeID {
	var ids []NodeID

	f.Walk(func(id NodeID, _ int) bool {
		if f.Node(id).Kind == kind {
			ids = append(ids, id)
		}

		return true
	})

	return ids
}

func TestParse_Items(t *testing.T) {
	f := mustParse(t, itemsSource)

	assert.Equal(t, []NodeKind{
		NodeStruct, NodeEnum, NodeTrait, NodeImpl, NodeModule, NodeConst,
		NodeStatic, NodeTypeAlias, NodeUse, NodeMacroDef,
	}, childKinds(f, f.Root()))

	t.Run("struct", func(t *testing.T) {
		id := findAll(f, NodeStruct)[0]
		n := f.Node(id)

		assert.Equal(t, "Point", n.Name)
		assert.Equal(t, Public, n.Visibility)
		assert.True(t, f.HasDoc(id))
		assert.Equal(t, []NodeKind{NodeAttribute, NodeField, NodeField}, childKinds(f, id))
		assert.Equal(t, "derive", f.Node(n.Children[0]).Name)

		x, y := n.Children[1], n.Children[2]
		assert.Equal(t, "x", f.Node(x).Name)
		assert.Equal(t, Public, f.Node(x).Visibility)
		assert.True(t, f.HasDoc(x))
		assert.Equal(t, "y", f.Node(y).Name)
		assert.Equal(t, Private, f.Node(y).Visibility)
		assert.False(t, f.HasDoc(y))
	})

	t.Run("enum", func(t *testing.T) {
		id := findAll(f, NodeEnum)[0]
		n := f.Node(id)

		assert.Equal(t, Restricted, n.Visibility)
		assert.Equal(t, []NodeKind{NodeVariant, NodeVariant, NodeVariant}, childKinds(f, id))
		assert.True(t, f.Node(n.Children[0]).Has(FlagTuple))
		assert.Equal(t, []NodeKind{NodeField}, childKinds(f, n.Children[1]))
		assert.Equal(t, []NodeKind{NodeLiteral}, childKinds(f, n.Children[2]))
	})

	t.Run("impl", func(t *testing.T) {
		n := f.Node(findAll(f, NodeImpl)[0])

		assert.True(t, n.Has(FlagTraitImpl))
		assert.Equal(t, "Area", n.Text)
		assert.Equal(t, "Point", n.Name)
	})

	t.Run("trait method has self param", func(t *testing.T) {
		fns := findAll(f, NodeFunction)
		require.Len(t, fns, 2)

		param := f.Node(f.Node(fns[0]).Children[0])
		assert.Equal(t, NodeParam, param.Kind)
		assert.True(t, param.Has(FlagSelfParam))
	})

	t.Run("values", func(t *testing.T) {
		assert.True(t, f.Node(findAll(f, NodeStatic)[0]).Has(FlagMut))
		assert.Equal(t, "MAX", f.Node(findAll(f, NodeConst)[0]).Name)
		assert.Equal(t, "std::collections::HashMap", f.Node(findAll(f, NodeUse)[0]).Text)
		assert.Equal(t, "square", f.Node(findAll(f, NodeMacroDef)[0]).Name)
	})
}

func TestParse_Expressions(t *testing.T) {
	f := mustParse(t, exprSource)

	fn := f.Node(findAll(f, NodeFunction)[0])
	assert.Equal(t, "run", fn.Name)
	assert.Equal(t, []NodeKind{NodeParam, NodeParam, NodeBlock}, childKinds(f, findAll(f, NodeFunction)[0]))
	assert.True(t, f.Node(fn.Children[1]).Has(FlagMut))
	assert.Equal(t, "limit", f.Node(fn.Children[1]).Name)

	t.Run("statements", func(t *testing.T) {
		assert.Equal(t, []NodeKind{NodeLet, NodeStmt, NodeLet, NodeStmt, NodeStmt}, childKinds(f, fn.Children[2]))
		assert.Equal(t, "total", f.Node(findAll(f, NodeLet)[0]).Name)
	})

	t.Run("method chain", func(t *testing.T) {
		var names []string
		for _, id := range findAll(f, NodeCall) {
			n := f.Node(id)
			if n.Has(FlagMethodCall) {
				names = append(names, n.Name)
			}
		}

		assert.Equal(t, []string{"sum", "map", "iter"}, names)
		assert.Len(t, findAll(f, NodeClosure), 1)
	})

	t.Run("if chain", func(t *testing.T) {
		ifs := findAll(f, NodeIf)
		require.Len(t, ifs, 2)
		assert.False(t, f.Node(ifs[0]).Has(FlagElseIf))
		assert.True(t, f.Node(ifs[1]).Has(FlagElseIf))
		assert.Equal(t, ifs[0], f.Parent(ifs[1]))
	})

	t.Run("macro call", func(t *testing.T) {
		macros := findAll(f, NodeMacroCall)
		require.Len(t, macros, 1)
		assert.Equal(t, "println", f.Node(macros[0]).Name)
	})

	t.Run("literal index", func(t *testing.T) {
		idx := findAll(f, NodeIndex)
		require.Len(t, idx, 1)

		lit := f.Node(f.Node(idx[0]).Children[0])
		assert.Equal(t, NodeLiteral, lit.Kind)
		assert.True(t, lit.Has(FlagIndexed))
	})

	t.Run("unsafe block", func(t *testing.T) {
		assert.Len(t, findAll(f, NodeUnsafeBlock), 1)
	})

	t.Run("match arms", func(t *testing.T) {
		match := findAll(f, NodeMatch)
		require.Len(t, match, 1)

		arms := f.Node(match[0]).Children
		require.Len(t, arms, 3)
		assert.Equal(t, "0", f.Node(arms[0]).Text)
		assert.True(t, f.Node(arms[1]).Has(FlagGuard))
		assert.True(t, f.Node(arms[2]).Has(FlagWildcard))
		assert.Equal(t, []NodeKind{NodeLiteral, NodeLiteral}, childKinds(f, arms[0]))
	})
}

func TestParse_SpanContainment(t *testing.T) {
	for name, src := range map[string]string{"items": itemsSource, "expr": exprSource} {
		t.Run(name, func(t *testing.T) {
			f := mustParse(t, src)

			f.Walk(func(id NodeID, _ int) bool {
				n := f.Node(id)
				assert.True(t, f.Span().Contains(n.Span))

				var prev model.Span
				for i, c := range n.Children {
					child := f.Node(c)
					assert.True(t, n.Span.Contains(child.Span), "%s %s not inside %s %s", child.Kind, child.Span, n.Kind, n.Span)
					assert.Equal(t, id, f.Parent(c))

					if i > 0 {
						assert.LessOrEqual(t, prev.End, child.Span.Start, "siblings overlap under %s", n.Kind)
					}

					prev = child.Span
				}

				return true
			})
		})
	}
}

func TestParse_TestRegions(t *testing.T) {
	src := `fn prod() { let v = x.unwrap(); }

#[cfg(test)]
mod tests {
    #[test]
    fn check() { let v = y.unwrap(); }
}
`
	f := mustParse(t, src)

	calls := findAll(f, NodeCall)
	require.Len(t, calls, 2)
	assert.False(t, f.InTest(calls[0]))
	assert.True(t, f.InTest(calls[1]))

	mod := findAll(f, NodeModule)[0]
	assert.True(t, f.Node(mod).Has(FlagTest))
	assert.Equal(t, mod, f.Enclosing(calls[1], NodeModule))
	assert.Equal(t, NoNode, f.Enclosing(calls[0], NodeModule))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unclosed brace", "fn main() {\n", `test.rs:1:11: parse error: expected "}", found end of file`},
		{"bad function name", "fn 1() {}", `test.rs:1:4: parse error: expected identifier, found integer literal "1"`},
		{"mismatched delimiter", "struct S { x: u8 ]", `test.rs:1:18: parse error: expected "}", found "]"`},
		{"missing semicolon", "fn main() { a b }", `test.rs:1:15: parse error: expected ";", found identifier "b"`},
		{"unterminated string", "fn main() { let s = \"abc; }", `test.rs:1:21: parse error: expected closing ", found end of file in string literal`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.rs", []byte(tt.input), Options{})
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, model.Path("test.rs"), perr.Path)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestParse_MacroBodies(t *testing.T) {
	src := `fn main() {
    let v = vec![1, 2, 3];
    thread_local! { static DEPTH: u32 = 7; }
    assert!(matches!(v.len(), 3 | 4));
}
`
	f := mustParse(t, src)

	var names []string
	for _, id := range findAll(f, NodeMacroCall) {
		names = append(names, f.Node(id).Name)
	}

	assert.Equal(t, []string{"vec", "thread_local", "assert", "matches"}, names)

	tl := findAll(f, NodeMacroCall)[1]
	assert.Empty(t, f.Node(tl).Children, "opaque macro body keeps no nodes")
	assert.Len(t, childKinds(f, findAll(f, NodeMacroCall)[0]), 3)
}

func TestLineIndex_Position(t *testing.T) {
	li := NewLineIndex([]byte("a\nbé\r\nc"))

	assert.Equal(t, 3, li.LineCount())
	assert.Equal(t, model.Position{Line: 1, Column: 1}, li.Position(0))
	assert.Equal(t, model.Position{Line: 2, Column: 3}, li.Position(5))
	assert.Equal(t, model.Position{Line: 3, Column: 1}, li.Position(7))
	assert.Equal(t, "bé", li.LineText(2))

	combined := NewLineIndex([]byte("e\u0301x"))
	assert.Equal(t, model.Position{Line: 1, Column: 2}, combined.Position(3))
}
