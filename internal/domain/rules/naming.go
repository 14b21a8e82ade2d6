package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

var stylePatterns = map[string]*regexp.Regexp{
	StylePascal:         regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`),
	StyleSnake:          regexp.MustCompile(`^[a-z][a-z0-9]*(?:_[a-z0-9]+)*$`),
	StyleScreamingSnake: regexp.MustCompile(`^[A-Z][A-Z0-9]*(?:_[A-Z0-9]+)*$`),
	StyleCamel:          regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`),
}

var styleLabels = map[string]string{
	StylePascal:         "PascalCase",
	StyleSnake:          "snake_case",
	StyleScreamingSnake: "SCREAMING_SNAKE_CASE",
	StyleCamel:          "camelCase",
}

// allowLints maps a style to the compiler lint that opts out of it.
var allowLints = map[string]string{
	StylePascal:         "non_camel_case_types",
	StyleSnake:          "non_snake_case",
	StyleScreamingSnake: "non_upper_case_globals",
}

// Naming checks declared names against a per-kind casing policy.
type Naming struct {
	cfg NamingConfig
}

// NewNaming creates the naming rule.
func NewNaming(cfg NamingConfig) *Naming {
	return &Naming{cfg: cfg}
}

func (r *Naming) ID() m.RuleID { return NamingID }

func (r *Naming) Description() string {
	return "Declared names that break the casing policy of their kind"
}

func (r *Naming) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *Naming) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{
		syntax.NodeStruct, syntax.NodeEnum, syntax.NodeTrait, syntax.NodeTypeAlias,
		syntax.NodeVariant, syntax.NodeFunction, syntax.NodeLet, syntax.NodeParam,
		syntax.NodeModule, syntax.NodeField, syntax.NodeConst, syntax.NodeStatic,
		syntax.NodeMacroDef,
	}}
}

// declKind maps a node kind to its naming-policy key.
func declKind(kind syntax.NodeKind) string {
	switch kind {
	case syntax.NodeStruct, syntax.NodeEnum, syntax.NodeTrait, syntax.NodeTypeAlias:
		return DeclType
	case syntax.NodeVariant:
		return DeclVariant
	case syntax.NodeFunction:
		return DeclFunction
	case syntax.NodeLet:
		return DeclVariable
	case syntax.NodeParam:
		return DeclParameter
	case syntax.NodeModule:
		return DeclModule
	case syntax.NodeField:
		return DeclField
	case syntax.NodeConst:
		return DeclConstant
	case syntax.NodeStatic:
		return DeclStatic
	case syntax.NodeMacroDef:
		return DeclMacro
	}

	return ""
}

func (r *Naming) Evaluate(ctx *Context) []m.Finding {
	f := ctx.File
	n := ctx.Current()

	name := strings.TrimLeft(strings.TrimPrefix(n.Name, "r#"), "_")
	if name == "" || n.Has(syntax.FlagSelfParam) {
		return nil
	}

	style, ok := r.cfg.Styles[declKind(n.Kind)]
	if !ok || stylePatterns[style].MatchString(name) {
		return nil
	}

	if f.Enclosing(ctx.Node, syntax.NodeExternBlock) != syntax.NoNode || traitImplMember(f, ctx.Node) {
		return nil
	}

	if allowed(f, ctx.Node, allowLints[style]) || (r.cfg.ExemptTests && ctx.InTest()) {
		return nil
	}

	fixed := ConvertCase(n.Name, style)
	msg := fmt.Sprintf("%s `%s` should be %s", n.Kind, n.Name, styleLabels[style])

	if fixed != "" && fixed != n.Name {
		msg += fmt.Sprintf(", e.g. `%s`", fixed)
	}

	finding := ctx.Finding(n.NameSpan, msg)
	finding.Suggestion = fixed

	return []m.Finding{finding}
}

// traitImplMember reports whether id is declared directly in a trait impl,
// where the trait dictates the name.
func traitImplMember(f *syntax.File, id syntax.NodeID) bool {
	parent := f.Parent(id)

	return parent != syntax.NoNode && f.Node(parent).Kind == syntax.NodeImpl && f.Node(parent).Has(syntax.FlagTraitImpl)
}

// allowed reports whether lint is allowed on id or one of its ancestors.
func allowed(f *syntax.File, id syntax.NodeID, lint string) bool {
	if lint == "" {
		return false
	}

	for n := id; n != syntax.NoNode; n = f.Parent(n) {
		for _, attr := range f.Attributes(n) {
			if attr.Name == "allow" && strings.Contains(attr.Text, lint) {
				return true
			}
		}
	}

	return false
}

// ConvertCase rewrites name into style, keeping a raw prefix and leading
// underscores.
func ConvertCase(name, style string) string {
	prefix := ""
	if strings.HasPrefix(name, "r#") {
		prefix, name = "r#", name[2:]
	}

	trimmed := strings.TrimLeft(name, "_")
	prefix += name[:len(name)-len(trimmed)]

	words := splitWords(trimmed)
	if len(words) == 0 {
		return ""
	}

	title := cases.Title(language.Und)
	lower := cases.Lower(language.Und)
	upper := cases.Upper(language.Und)

	out := make([]string, len(words))

	for i, w := range words {
		switch style {
		case StylePascal:
			out[i] = title.String(w)
		case StyleCamel:
			if i == 0 {
				out[i] = lower.String(w)
			} else {
				out[i] = title.String(w)
			}
		case StyleScreamingSnake:
			out[i] = upper.String(w)
		default:
			out[i] = lower.String(w)
		}
	}

	sep := ""
	if style == StyleSnake || style == StyleScreamingSnake {
		sep = "_"
	}

	return prefix + strings.Join(out, sep)
}

// splitWords breaks an identifier at underscores and case changes:
// getHTTPResponse2 becomes get, HTTP, Response2.
func splitWords(name string) []string {
	var (
		words []string
		cur   []rune
	)

	runes := []rune(name)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, c := range runes {
		if c == '_' {
			flush()
			continue
		}

		if unicode.IsUpper(c) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}

		cur = append(cur, c)
	}

	flush()

	return words
}
