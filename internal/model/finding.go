package model

import (
	"fmt"
	"strings"
)

// RuleID identifies a detection rule, e.g. "magic-number".
type RuleID string

// Severity represents how serious a finding is.
type Severity int

const (
	// SeverityInfo marks informational findings.
	SeverityInfo Severity = iota
	// SeverityWarning marks findings that should be fixed.
	SeverityWarning
	// SeverityError marks findings that fail the run.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}

	return "unknown"
}

// ParseSeverity converts a textual severity into a Severity.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "info", "note":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}

	return SeverityInfo, fmt.Errorf("unknown severity %q", value)
}

// Finding is one reported rule violation. Findings are immutable once
// created; later stages only filter or reorder them.
type Finding struct {
	Rule     RuleID
	Severity Severity
	Span     Span
	Position Position
	Message  string
	// Suggestion is optional fix text.
	Suggestion string
	// GroupID links sibling occurrences reported by the duplication detector.
	GroupID string
}

// Key identifies a finding for de-duplication within one run.
func (f Finding) Key() string {
	return string(f.Rule) + "@" + f.Span.String()
}
