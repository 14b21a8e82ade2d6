package domain

import (
	"fmt"
	"strings"

	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// ToolNamespace prefixes rule names in `#[allow(ferrule::rule_name)]`.
const ToolNamespace = "ferrule::"

var blockLike = []syntax.NodeKind{
	syntax.NodeBlock,
	syntax.NodeUnsafeBlock,
	syntax.NodeMatch,
	syntax.NodeImpl,
	syntax.NodeTrait,
	syntax.NodeModule,
	syntax.NodeStruct,
	syntax.NodeEnum,
	syntax.NodeExternBlock,
}

// suppression is one resolved directive: the region it covers and the rules
// it silences.
type suppression struct {
	// origin is where the directive is written.
	origin m.Span
	// line is set for line directives, which match on the finding's line or
	// inside target.
	line      int
	target    m.Span
	span      m.Span
	rules     []m.RuleID
	unknown   []m.RuleID
	malformed bool
	used      bool
}

func (s *suppression) covers(f m.Finding) bool {
	if s.malformed {
		return false
	}

	if s.line > 0 {
		if f.Position.Line != s.line && (s.target.Empty() || !s.target.Contains(f.Span)) {
			return false
		}
	} else if !s.span.Contains(f.Span) {
		return false
	}

	if len(s.rules) == 0 {
		return true
	}

	for _, r := range s.rules {
		if r == f.Rule {
			return true
		}
	}

	return false
}

// SuppressionResolver filters findings through the directives of a file and
// reports directives that never silenced anything.
type SuppressionResolver struct {
	registry *Registry
}

// NewSuppressionResolver creates a resolver reporting with registry's
// settings.
func NewSuppressionResolver(registry *Registry) *SuppressionResolver {
	return &SuppressionResolver{registry: registry}
}

// Resolve drops the findings covered by a directive of file. The returned
// meta findings are never filtered themselves.
func (s *SuppressionResolver) Resolve(file *syntax.File, findings []m.Finding) ([]m.Finding, []m.Finding) {
	scopes := collectSuppressions(file)
	if len(scopes) == 0 {
		return findings, nil
	}

	kept := findings[:0:0]

	for _, f := range findings {
		suppressed := false

		for _, sc := range scopes {
			if sc.covers(f) {
				sc.used = true
				suppressed = true
			}
		}

		if !suppressed {
			kept = append(kept, f)
		}
	}

	if !s.registry.Enabled(rules.UnusedSuppressionID) {
		return kept, nil
	}

	return kept, s.report(file, scopes)
}

func (s *SuppressionResolver) report(file *syntax.File, scopes []*suppression) []m.Finding {
	var meta []m.Finding

	severity := s.registry.Severity(rules.UnusedSuppressionID)
	known := rules.IDStrings(rules.DefaultOrder())

	finding := func(span m.Span, msg string) m.Finding {
		return m.Finding{
			Rule:     rules.UnusedSuppressionID,
			Severity: severity,
			Span:     span,
			Position: file.Position(span.Start),
			Message:  msg,
		}
	}

	for _, sc := range scopes {
		switch {
		case sc.malformed:
			meta = append(meta, finding(sc.origin, "malformed suppression directive: the rule list is missing its closing `)`"))
			continue
		case len(sc.unknown) > 0:
			for _, id := range sc.unknown {
				f := finding(sc.origin, fmt.Sprintf("suppression names unknown rule `%s`", id))
				if suggestions := Suggest(string(id), known); len(suggestions) > 0 {
					f.Suggestion = suggestions[0]
				}

				meta = append(meta, f)
			}
		}

		if sc.used || !s.watches(sc) {
			continue
		}

		if len(sc.rules) == 0 {
			meta = append(meta, finding(sc.origin, "suppression directive never matched a finding"))
			continue
		}

		names := make([]string, 0, len(sc.rules))
		for _, id := range sc.rules {
			names = append(names, "`"+string(id)+"`")
		}

		meta = append(meta, finding(sc.origin, fmt.Sprintf("suppression of %s never matched a finding", strings.Join(names, ", "))))
	}

	return meta
}

// watches reports whether an unused directive is worth reporting: at least
// one rule it names must be enabled.
func (s *SuppressionResolver) watches(sc *suppression) bool {
	if len(sc.rules) == 0 {
		return true
	}

	for _, id := range sc.rules {
		if s.registry.Enabled(id) {
			return true
		}
	}

	return false
}

func collectSuppressions(file *syntax.File) []*suppression {
	scopes := make([]*suppression, 0, len(file.Directives))

	for _, d := range file.Directives {
		sc := &suppression{origin: d.Span, malformed: d.Malformed}

		switch d.Scope {
		case syntax.ScopeLine:
			sc.line = d.Line
			sc.target = d.Target
		case syntax.ScopeBlock:
			sc.span = enclosingBlock(file, d.Span.Start)
		case syntax.ScopeFile:
			sc.span = file.Span()
		}

		sc.rules, sc.unknown = splitKnown(d.Rules)
		if len(d.Rules) > 0 && len(sc.rules) == 0 && !sc.malformed {
			// only unknown rules: the directive silences nothing
			sc.rules = sc.unknown
		}

		scopes = append(scopes, sc)
	}

	for id := range file.Nodes {
		n := file.Node(syntax.NodeID(id))
		if n.Kind != syntax.NodeAttribute {
			continue
		}

		ids, ok := allowAttribute(n.Text)
		if !ok {
			continue
		}

		sc := &suppression{
			origin: n.Span,
			span:   file.Node(file.Parent(syntax.NodeID(id))).Span,
		}

		sc.rules, sc.unknown = splitKnown(ids)
		if len(sc.rules) == 0 {
			sc.rules = sc.unknown
		}

		scopes = append(scopes, sc)
	}

	return scopes
}

// enclosingBlock returns the span of the innermost block-like node around
// off, or the whole file.
func enclosingBlock(file *syntax.File, off uint32) m.Span {
	id := file.NodeAt(off)
	if id == syntax.NoNode {
		return file.Span()
	}

	for n := id; n != syntax.NoNode; n = file.Parent(n) {
		for _, kind := range blockLike {
			if file.Node(n).Kind == kind {
				return file.Node(n).Span
			}
		}
	}

	return file.Span()
}

// allowAttribute reads the ferrule rules of a compacted `allow(...)` body.
func allowAttribute(text string) ([]m.RuleID, bool) {
	inner, ok := strings.CutPrefix(text, "allow(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return nil, false
	}

	var ids []m.RuleID

	for _, lint := range strings.Split(strings.TrimSuffix(inner, ")"), ",") {
		name, ok := strings.CutPrefix(lint, ToolNamespace)
		if !ok || name == "" {
			continue
		}

		ids = append(ids, m.RuleID(strings.ReplaceAll(name, "_", "-")))
	}

	return ids, len(ids) > 0
}

func splitKnown(ids []m.RuleID) (known, unknown []m.RuleID) {
	for _, id := range ids {
		if rules.Known(id) {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}

	return known, unknown
}
