package domain

import (
	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

type registered struct {
	rule     rules.Rule
	severity m.Severity
}

// Registry owns the enabled rules and the dispatch tables built from their
// subscriptions. It is immutable after NewRegistry and shared by all runs.
type Registry struct {
	order      []m.RuleID
	rank       map[m.RuleID]int
	severities map[m.RuleID]m.Severity
	visitors   []registered
	byNode     [][]int
	byToken    map[syntax.TokenKind][]int
}

// NewRegistry builds the registry for cfg. cfg must have been validated.
func NewRegistry(cfg Config) (*Registry, error) {
	enabled, err := cfg.Enabled()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		order:      enabled,
		rank:       make(map[m.RuleID]int, len(enabled)),
		severities: make(map[m.RuleID]m.Severity, len(enabled)),
		byNode:     make([][]int, len(syntax.NodeKinds())),
		byToken:    map[syntax.TokenKind][]int{},
	}

	infos, err := rules.Describe(cfg.Rules)
	if err != nil {
		return nil, err
	}

	defaults := make(map[m.RuleID]m.Severity, len(infos))
	for _, info := range infos {
		defaults[info.ID] = info.DefaultSeverity
	}

	for i, id := range enabled {
		r.rank[id] = i

		common, _ := cfg.Rules.CommonFor(id)

		severity, err := common.ResolveSeverity(defaults[id])
		if err != nil {
			return nil, &ConfigurationError{Key: "rules." + string(id) + ".severity", Value: common.Severity, Reason: err.Error()}
		}

		r.severities[id] = severity

		rule, ok := rules.New(id, cfg.Rules)
		if !ok {
			continue
		}

		idx := len(r.visitors)
		r.visitors = append(r.visitors, registered{rule: rule, severity: severity})

		sub := rule.Subscription()
		for _, kind := range sub.Nodes {
			r.byNode[kind] = append(r.byNode[kind], idx)
		}

		for _, kind := range sub.Tokens {
			r.byToken[kind] = append(r.byToken[kind], idx)
		}
	}

	return r, nil
}

// Rules returns the enabled rule ids in dispatch order.
func (r *Registry) Rules() []m.RuleID {
	return r.order
}

// Enabled reports whether rule id runs.
func (r *Registry) Enabled(id m.RuleID) bool {
	_, ok := r.rank[id]
	return ok
}

// Rank returns the dispatch position of rule id. Unknown ids sort last.
func (r *Registry) Rank(id m.RuleID) int {
	if rank, ok := r.rank[id]; ok {
		return rank
	}

	return len(r.order)
}

// Severity returns the effective severity of rule id.
func (r *Registry) Severity(id m.RuleID) m.Severity {
	return r.severities[id]
}

func (r *Registry) forNode(kind syntax.NodeKind) []int {
	if int(kind) >= len(r.byNode) {
		return nil
	}

	return r.byNode[kind]
}

func (r *Registry) forToken(kind syntax.TokenKind) []int {
	return r.byToken[kind]
}
