package syntax

import (
	"fmt"

	"ferrule.dev/pkg/ferrule/internal/model"
)

// ParseError reports malformed input. Pos is filled in by Parse once the
// line index is available.
type ParseError struct {
	Path     model.Path
	Span     model.Span
	Pos      model.Position
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	where := string(e.Path)
	if e.Pos.Line > 0 {
		where = fmt.Sprintf("%s:%s", e.Path, e.Pos)
	}

	if e.Expected == "" {
		return fmt.Sprintf("%s: parse error: unexpected %s", where, e.Found)
	}

	return fmt.Sprintf("%s: parse error: expected %s, found %s", where, e.Expected, e.Found)
}
