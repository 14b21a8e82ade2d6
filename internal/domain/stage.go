package domain

// Stage is a state of the per-file engine run.
type Stage int

// Engine stages. A run moves forward through Parsing, Traversing and
// Aggregating and ends in Done or Failed.
const (
	StageIdle Stage = iota
	StageParsing
	StageTraversing
	StageAggregating
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageParsing:
		return "parsing"
	case StageTraversing:
		return "traversing"
	case StageAggregating:
		return "aggregating"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	}

	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}
