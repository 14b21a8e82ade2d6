package model

import "sort"

// Status describes how the analysis of one input unit ended.
type Status int

const (
	// Analyzed indicates the run completed; the report may hold zero findings.
	Analyzed Status = iota
	// Failed indicates the run aborted; the report holds no findings.
	Failed
	// Skipped indicates the unit was excluded by an exemption policy.
	Skipped
)

func (s Status) String() string {
	switch s {
	case Analyzed:
		return "analyzed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}

	return "unknown"
}

// Report represents the result of analysing one input unit.
type Report struct {
	Path     Path
	Hash     string
	Status   Status
	Findings []Finding
	// Error holds the failure message when Status is Failed, or why a skipped
	// unit was never analysed.
	Error string
	// Stage names the engine stage a failed run stopped in.
	Stage string
}

// Summary aggregates counts over a set of reports.
type Summary struct {
	Files      int
	Failed     int
	Skipped    int
	Findings   int
	ByRule     map[RuleID]int
	BySeverity map[Severity]int
}

// HasErrors reports whether any error-severity finding or failed file exists.
func (s Summary) HasErrors() bool {
	return s.Failed > 0 || s.BySeverity[SeverityError] > 0
}

// Rules returns the rule ids present in the summary in sorted order.
func (s Summary) Rules() []RuleID {
	ids := make([]RuleID, 0, len(s.ByRule))
	for id := range s.ByRule {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Summarize computes a Summary for the given reports.
func Summarize(reports []Report) Summary {
	summary := Summary{
		ByRule:     map[RuleID]int{},
		BySeverity: map[Severity]int{},
	}

	for _, report := range reports {
		summary.Files++

		switch report.Status {
		case Failed:
			summary.Failed++
			continue
		case Skipped:
			summary.Skipped++
		case Analyzed:
		}

		for _, finding := range report.Findings {
			summary.Findings++
			summary.ByRule[finding.Rule]++
			summary.BySeverity[finding.Severity]++
		}
	}

	return summary
}

// RunReport is the output of one analysis run over many input units.
type RunReport struct {
	Version int
	Reports []Report
	Summary Summary
}
