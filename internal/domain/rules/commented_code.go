package rules

import (
	"fmt"
	"regexp"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

var (
	codeKeyword    = regexp.MustCompile(`^(?:pub(?:\([a-z]+\))?\s+)?(?:fn|let|if|else|for|while|loop|match|struct|enum|impl|trait|use|mod|return|const|static|type|unsafe|async)\b`)
	codePunct      = regexp.MustCompile(`[;{}()=\[\]]|::|->`)
	codeTerminator = regexp.MustCompile(`(?:[=(.]|::).*;$|\{$|^\}[;,)]?$`)
	codeMacro      = regexp.MustCompile(`^(?:macro_rules!|[a-z_][a-z0-9_]*!\s*[(\[{])`)
	codeAttribute  = regexp.MustCompile(`^#!?\[[a-z_]+`)
)

// CommentedCode flags comments whose lines look like disabled source code.
type CommentedCode struct {
	cfg CommentedCodeConfig
}

// NewCommentedCode creates the commented-code rule.
func NewCommentedCode(cfg CommentedCodeConfig) *CommentedCode {
	return &CommentedCode{cfg: cfg}
}

func (r *CommentedCode) ID() m.RuleID { return CommentedCodeID }

func (r *CommentedCode) Description() string {
	return "Comments that look like commented-out code"
}

func (r *CommentedCode) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *CommentedCode) Subscription() Subscription {
	return Subscription{Tokens: []syntax.TokenKind{syntax.TokenLineComment, syntax.TokenBlockComment}}
}

func (r *CommentedCode) Evaluate(ctx *Context) []m.Finding {
	f := ctx.File

	run := commentRun(f, ctx.Token)
	if len(run) == 0 {
		return nil
	}

	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	var (
		span  m.Span
		lines int
	)

	for _, i := range run {
		tok := f.Tokens[i]
		if isDirective(f, i) || safetyComment(tok.CommentBody()) {
			continue
		}

		n := 0

		for _, line := range strings.Split(tok.CommentBody(), "\n") {
			if LooksLikeCode(line) {
				n++
			}
		}

		if n == 0 {
			continue
		}

		if lines == 0 {
			span = tok.Span
		} else {
			span = span.Cover(tok.Span)
		}

		lines += n
	}

	if lines < r.cfg.MinLines || lines == 0 {
		return nil
	}

	msg := "commented-out code; delete it or restore it"
	if lines > 1 {
		msg = fmt.Sprintf("%d lines of commented-out code; delete them or restore them", lines)
	}

	return []m.Finding{ctx.Finding(span, msg)}
}

// LooksLikeCode applies the commented-code heuristic to one comment line.
func LooksLikeCode(line string) bool {
	line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*"))
	if line == "" {
		return false
	}

	switch {
	case codeKeyword.MatchString(line) && codePunct.MatchString(line):
		return true
	case codeMacro.MatchString(line):
		return true
	case codeAttribute.MatchString(line):
		return true
	case codeTerminator.MatchString(line):
		return true
	}

	return false
}
