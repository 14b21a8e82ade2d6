package domain

import (
	"fmt"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

// ConfigurationError reports an invalid setting. It is raised before any file
// is analysed.
type ConfigurationError struct {
	Key    string
	Value  string
	Reason string
	// Suggestions holds close matches for an unknown value.
	Suggestions []string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "invalid configuration %s", e.Key)

	if e.Value != "" {
		fmt.Fprintf(&b, "=%q", e.Value)
	}

	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}

	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}

	return b.String()
}

// InternalError reports a broken engine invariant, such as a rule panic or a
// finding outside the source buffer.
type InternalError struct {
	Stage Stage
	Path  m.Path
	// Rule is set when a single rule caused the failure.
	Rule m.RuleID
	Err  error
}

func (e *InternalError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: internal error while %s (rule %s): %v", e.Path, e.Stage, e.Rule, e.Err)
	}

	return fmt.Sprintf("%s: internal error while %s: %v", e.Path, e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
