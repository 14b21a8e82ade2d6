package rules

import (
	"strings"

	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// ownLine reports whether comment token i is the first token on its line.
func ownLine(f *syntax.File, i int) bool {
	for j := i - 1; j >= 0; j-- {
		tok := f.Tokens[j]
		if tok.Kind != syntax.TokenWhitespace {
			return false
		}

		if strings.Contains(tok.Text, "\n") {
			return true
		}
	}

	return true
}

// adjacentLineComment returns the index of the plain line comment on the line
// right after token i, or -1.
func adjacentLineComment(f *syntax.File, i int) int {
	if i+2 >= len(f.Tokens) {
		return -1
	}

	ws := f.Tokens[i+1]
	if ws.Kind != syntax.TokenWhitespace || strings.Count(ws.Text, "\n") != 1 {
		return -1
	}

	if f.Tokens[i+2].Kind != syntax.TokenLineComment {
		return -1
	}

	return i + 2
}

// commentRun returns the consecutive own-line `//` comments starting at token
// i, or nil when i continues a run that started earlier.
func commentRun(f *syntax.File, i int) []int {
	tok := f.Tokens[i]
	if tok.Kind != syntax.TokenLineComment || !ownLine(f, i) {
		return []int{i}
	}

	if i >= 2 {
		prev := i - 2
		if f.Tokens[prev].Kind == syntax.TokenLineComment && ownLine(f, prev) && adjacentLineComment(f, prev) == i {
			return nil
		}
	}

	run := []int{i}
	for j := adjacentLineComment(f, i); j >= 0; j = adjacentLineComment(f, j) {
		run = append(run, j)
	}

	return run
}

// isDirective reports whether token i carries a suppression directive.
func isDirective(f *syntax.File, i int) bool {
	for _, d := range f.Directives {
		if d.Token == i {
			return true
		}
	}

	return false
}

// safetyComment reports whether a comment body opens with a SAFETY note.
func safetyComment(body string) bool {
	body = strings.TrimLeft(body, " \t*/!")

	return strings.HasPrefix(strings.ToUpper(body), "SAFETY")
}
