package rules

import (
	"embed"
	"fmt"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

//go:embed docs/*.md
var docs embed.FS

// DefaultOrder returns every rule id in default dispatch order.
func DefaultOrder() []m.RuleID {
	return []m.RuleID{
		MagicNumberID,
		CommentedCodeID,
		TodoCommentID,
		MissingDocsID,
		NamingID,
		UnsafeUsageID,
		ErrorHandlingID,
		ComplexityID,
		StructureID,
		PatternMatchingID,
		OwnershipID,
		DuplicateCodeID,
		UnusedSuppressionID,
	}
}

// IDStrings converts rule ids to plain strings.
func IDStrings(ids []m.RuleID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}

	return out
}

// Known reports whether id names a rule.
func Known(id m.RuleID) bool {
	for _, k := range DefaultOrder() {
		if k == id {
			return true
		}
	}

	return false
}

// ResolveOrder returns every rule id with the configured ones first. Unknown
// ids are reported as an error.
func ResolveOrder(order []string) ([]m.RuleID, error) {
	seen := make(map[m.RuleID]bool, len(order))
	out := make([]m.RuleID, 0, len(DefaultOrder()))

	for _, raw := range order {
		id := m.RuleID(raw)
		if !Known(id) {
			return nil, fmt.Errorf("unknown rule %q", raw)
		}

		if seen[id] {
			continue
		}

		seen[id] = true
		out = append(out, id)
	}

	for _, id := range DefaultOrder() {
		if !seen[id] {
			out = append(out, id)
		}
	}

	return out, nil
}

// New constructs the visitor rule id configured by cfg. The duplication
// detector and the unused-suppression meta rule are not visitors and yield
// false.
func New(id m.RuleID, cfg Config) (Rule, bool) {
	switch id {
	case MagicNumberID:
		return NewMagicNumber(cfg.MagicNumber), true
	case CommentedCodeID:
		return NewCommentedCode(cfg.CommentedCode), true
	case TodoCommentID:
		return NewTodoComment(cfg.TodoComment), true
	case MissingDocsID:
		return NewMissingDocs(cfg.MissingDocs), true
	case NamingID:
		return NewNaming(cfg.Naming), true
	case UnsafeUsageID:
		return NewUnsafeUsage(cfg.UnsafeUsage), true
	case ErrorHandlingID:
		return NewErrorHandling(cfg.ErrorHandling), true
	case ComplexityID:
		return NewComplexity(cfg.Complexity), true
	case StructureID:
		return NewStructure(cfg.Structure), true
	case PatternMatchingID:
		return NewPatternMatching(cfg.PatternMatching), true
	case OwnershipID:
		return NewOwnership(cfg.Ownership), true
	}

	return nil, false
}

// Info describes a rule for listings.
type Info struct {
	ID              m.RuleID
	Description     string
	DefaultSeverity m.Severity
	Enabled         bool
}

var metaInfo = map[m.RuleID]Info{
	DuplicateCodeID: {
		ID:              DuplicateCodeID,
		Description:     "Structurally identical or near-identical functions and blocks",
		DefaultSeverity: m.SeverityWarning,
	},
	UnusedSuppressionID: {
		ID:              UnusedSuppressionID,
		Description:     "Suppression directives that never silenced a finding",
		DefaultSeverity: m.SeverityInfo,
	},
}

// Describe returns the listing entry of every rule in cfg's order.
func Describe(cfg Config) ([]Info, error) {
	order, err := ResolveOrder(cfg.Order)
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(order))

	for _, id := range order {
		common, _ := cfg.CommonFor(id)

		info, ok := metaInfo[id]
		if r, visitor := New(id, cfg); visitor {
			info = Info{ID: id, Description: r.Description(), DefaultSeverity: r.DefaultSeverity()}
			ok = true
		}

		if !ok {
			continue
		}

		info.Enabled = common.Enabled
		infos = append(infos, info)
	}

	return infos, nil
}

// Doc returns the markdown documentation of rule id.
func Doc(id m.RuleID) (string, error) {
	if !Known(id) {
		return "", fmt.Errorf("unknown rule %q", id)
	}

	data, err := docs.ReadFile("docs/" + string(id) + ".md")
	if err != nil {
		return "", fmt.Errorf("read documentation of %s: %w", id, err)
	}

	return string(data), nil
}
