package rules

import (
	"fmt"
	"regexp"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// TodoComment tracks TODO-style markers left in comments.
type TodoComment struct {
	cfg     TodoCommentConfig
	pattern *regexp.Regexp
	high    map[string]bool
}

// NewTodoComment creates the todo-comment rule.
func NewTodoComment(cfg TodoCommentConfig) *TodoComment {
	quoted := make([]string, 0, len(cfg.Markers))
	for _, marker := range cfg.Markers {
		quoted = append(quoted, regexp.QuoteMeta(marker))
	}

	high := make(map[string]bool, len(cfg.High))
	for _, marker := range cfg.High {
		high[marker] = true
	}

	var pattern *regexp.Regexp
	if len(quoted) > 0 {
		pattern = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b(?:\([^)]*\))?:?`)
	}

	return &TodoComment{cfg: cfg, pattern: pattern, high: high}
}

func (r *TodoComment) ID() m.RuleID { return TodoCommentID }

func (r *TodoComment) Description() string {
	return "TODO, FIXME and similar markers left in comments"
}

func (r *TodoComment) DefaultSeverity() m.Severity { return m.SeverityInfo }

func (r *TodoComment) Subscription() Subscription {
	return Subscription{Tokens: []syntax.TokenKind{
		syntax.TokenLineComment, syntax.TokenBlockComment,
		syntax.TokenDocComment, syntax.TokenInnerDocComment,
	}}
}

func (r *TodoComment) Evaluate(ctx *Context) []m.Finding {
	if r.pattern == nil || (r.cfg.ExemptTests && ctx.InTest()) {
		return nil
	}

	tok := ctx.Tok()

	var findings []m.Finding

	for _, loc := range r.pattern.FindAllStringSubmatchIndex(tok.Text, -1) {
		marker := tok.Text[loc[2]:loc[3]]

		end := strings.IndexByte(tok.Text[loc[0]:], '\n')
		if end < 0 {
			end = len(tok.Text)
		} else {
			end += loc[0]
		}

		note := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tok.Text[loc[1]:end]), "*/"))
		span := m.Span{Start: tok.Span.Start + uint32(loc[0]), End: tok.Span.Start + uint32(end)} // #nosec G115 -- offsets inside a token

		msg := fmt.Sprintf("%s comment", marker)
		if note != "" {
			msg = fmt.Sprintf("%s comment: %s", marker, note)
		}

		finding := ctx.Finding(span, msg)
		if r.high[marker] && finding.Severity < m.SeverityWarning {
			finding.Severity = m.SeverityWarning
		}

		findings = append(findings, finding)
	}

	return findings
}
