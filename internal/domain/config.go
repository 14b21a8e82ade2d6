package domain

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

const maxSuggestions = 3

// SuppressionConfig configures directive recognition and exemption policies.
type SuppressionConfig struct {
	// Markers are the comment prefixes read as suppression directives.
	Markers []string `mapstructure:"markers" yaml:"markers"`
	// GeneratedMarkers skip a whole file when found in its leading comments.
	GeneratedMarkers []string `mapstructure:"generated_markers" yaml:"generated_markers"`
}

// Config is the engine configuration.
type Config struct {
	Rules       rules.Config      `mapstructure:"rules" yaml:"rules"`
	Suppression SuppressionConfig `mapstructure:"suppression" yaml:"suppression"`
	// Select restricts the run to the listed rules when non-empty.
	Select []string `mapstructure:"select" yaml:"select"`
	// Ignore disables the listed rules.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
}

// DefaultConfig returns the engine configuration used without overrides.
func DefaultConfig() Config {
	return Config{
		Rules: rules.DefaultConfig(),
		Suppression: SuppressionConfig{
			Markers:          []string{syntax.DefaultDirectiveMarker},
			GeneratedMarkers: []string{"@generated", "DO NOT EDIT"},
		},
	}
}

// Validate checks the whole configuration and returns a *ConfigurationError
// describing the first problem found.
func (c Config) Validate() error {
	known := rules.IDStrings(rules.DefaultOrder())

	for _, list := range []struct {
		key string
		ids []string
	}{
		{"rules.order", c.Rules.Order},
		{"select", c.Select},
		{"ignore", c.Ignore},
	} {
		for _, id := range list.ids {
			if rules.Known(m.RuleID(id)) {
				continue
			}

			return &ConfigurationError{
				Key:         list.key,
				Value:       id,
				Reason:      "unknown rule",
				Suggestions: Suggest(id, known),
			}
		}
	}

	if err := c.Rules.Validate(); err != nil {
		return &ConfigurationError{Key: "rules", Reason: err.Error()}
	}

	if len(c.Suppression.Markers) == 0 {
		return &ConfigurationError{Key: "suppression.markers", Reason: "at least one marker is required"}
	}

	for _, marker := range c.Suppression.Markers {
		if strings.TrimSpace(marker) == "" || strings.ContainsAny(marker, " \t()") {
			return &ConfigurationError{
				Key:    "suppression.markers",
				Value:  marker,
				Reason: "markers must be non-empty and contain no spaces or parentheses",
			}
		}
	}

	return nil
}

// Enabled returns the ids of the rules that run, in dispatch order.
func (c Config) Enabled() ([]m.RuleID, error) {
	order, err := rules.ResolveOrder(c.Rules.Order)
	if err != nil {
		return nil, fmt.Errorf("resolve rule order: %w", err)
	}

	selected := toSet(c.Select)
	ignored := toSet(c.Ignore)

	out := make([]m.RuleID, 0, len(order))

	for _, id := range order {
		common, _ := c.Rules.CommonFor(id)
		if !common.Enabled || ignored[id] || (len(selected) > 0 && !selected[id]) {
			continue
		}

		out = append(out, id)
	}

	return out, nil
}

func toSet(ids []string) map[m.RuleID]bool {
	set := make(map[m.RuleID]bool, len(ids))
	for _, id := range ids {
		set[m.RuleID(id)] = true
	}

	return set
}

// Suggest returns up to three candidates close to value. Underscores are read
// as dashes; when nothing matches, the tail of value is dropped until at least
// half of it remains.
func Suggest(value string, candidates []string) []string {
	value = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "_", "-"))

	for n := len(value); n > 0 && n*2 >= len(value); n-- {
		matches := fuzzy.Find(value[:n], candidates)
		if len(matches) == 0 {
			continue
		}

		out := make([]string, 0, maxSuggestions)
		for _, match := range matches {
			if len(out) == maxSuggestions {
				break
			}

			out = append(out, match.Str)
		}

		return out
	}

	return nil
}
