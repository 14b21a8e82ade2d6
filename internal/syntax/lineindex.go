package syntax

import (
	"sort"

	"github.com/rivo/uniseg"

	"ferrule.dev/pkg/ferrule/internal/model"
)

// LineIndex maps byte offsets to 1-based line and column numbers. Columns
// count grapheme clusters, so a combined emoji or accented letter is one
// column wide.
type LineIndex struct {
	src    []byte
	starts []uint32
}

// NewLineIndex builds a LineIndex over src.
func NewLineIndex(src []byte) *LineIndex {
	starts := []uint32{0}

	for i, c := range src {
		if c == '\n' {
			starts = append(starts, uint32(i+1)) // #nosec G115 -- src size checked by Lex
		}
	}

	return &LineIndex{src: src, starts: starts}
}

// LineCount returns the number of lines, counting a trailing partial line.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// Line returns the 1-based line containing off.
func (li *LineIndex) Line(off uint32) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off })
}

// Position converts off into a line and grapheme column.
func (li *LineIndex) Position(off uint32) model.Position {
	if int(off) > len(li.src) {
		off = uint32(len(li.src)) // #nosec G115 -- src size checked by Lex
	}

	line := li.Line(off)
	start := li.starts[line-1]

	return model.Position{
		Line:   line,
		Column: uniseg.GraphemeClusterCount(string(li.src[start:off])) + 1,
	}
}

// LineSpan returns the span of a 1-based line, excluding its newline.
func (li *LineIndex) LineSpan(line int) model.Span {
	if line < 1 || line > len(li.starts) {
		return model.Span{}
	}

	start := li.starts[line-1]
	end := uint32(len(li.src)) // #nosec G115 -- src size checked by Lex

	if line < len(li.starts) {
		end = li.starts[line] - 1
	}

	if end > start && li.src[end-1] == '\r' {
		end--
	}

	return model.Span{Start: start, End: end}
}

// LineText returns the text of a 1-based line without its terminator.
func (li *LineIndex) LineText(line int) string {
	span := li.LineSpan(line)
	return string(li.src[span.Start:span.End])
}
