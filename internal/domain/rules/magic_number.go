package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

var (
	intSuffix   = regexp.MustCompile(`[iu](?:8|16|32|64|128|size)$`)
	floatSuffix = regexp.MustCompile(`f(?:32|64)$`)
)

// MagicNumber flags numeric literals that are not bound to a named constant.
type MagicNumber struct {
	cfg MagicNumberConfig
}

// NewMagicNumber creates the magic-number rule.
func NewMagicNumber(cfg MagicNumberConfig) *MagicNumber {
	return &MagicNumber{cfg: cfg}
}

func (r *MagicNumber) ID() m.RuleID { return MagicNumberID }

func (r *MagicNumber) Description() string {
	return "Numeric literals outside the allow-list that are not named constants"
}

func (r *MagicNumber) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *MagicNumber) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{syntax.NodeLiteral}}
}

func (r *MagicNumber) Evaluate(ctx *Context) []m.Finding {
	n := ctx.Current()
	f := ctx.File

	if !f.Tokens[n.LastToken].IsNumber() || n.Has(syntax.FlagIndexed) {
		return nil
	}

	if f.Enclosing(ctx.Node, syntax.NodeConst, syntax.NodeStatic, syntax.NodeVariant) != syntax.NoNode {
		return nil
	}

	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	value, err := numericValue(n.Text)
	if err == nil && r.allowed(value) {
		return nil
	}

	finding := ctx.Finding(n.Span, fmt.Sprintf("magic number %s; bind it to a named constant", n.Text))
	finding.Suggestion = "const NAME: _ = " + n.Text + ";"

	return []m.Finding{finding}
}

func (r *MagicNumber) allowed(value float64) bool {
	for _, a := range r.cfg.Allowed {
		if a == value {
			return true
		}
	}

	return false
}

// numericValue reads a Rust numeric literal, ignoring separators and type
// suffixes.
func numericValue(text string) (float64, error) {
	neg := strings.HasPrefix(text, "-")
	text = strings.ReplaceAll(strings.TrimPrefix(text, "-"), "_", "")

	sign := 1.0
	if neg {
		sign = -1
	}

	base := 0

	switch {
	case strings.HasPrefix(text, "0x"), strings.HasPrefix(text, "0X"):
		base = 16
	case strings.HasPrefix(text, "0o"):
		base = 8
	case strings.HasPrefix(text, "0b"):
		base = 2
	}

	text = intSuffix.ReplaceAllString(text, "")

	if base != 0 {
		v, err := strconv.ParseUint(text[2:], base, 64)
		if err != nil {
			return 0, err
		}

		return sign * float64(v), nil
	}

	v, err := strconv.ParseFloat(floatSuffix.ReplaceAllString(text, ""), 64)
	if err != nil {
		return 0, err
	}

	return sign * v, nil
}
