package domain

import (
	"sort"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

// ProjectIndex accumulates duplication candidates of many files for
// project-wide grouping. It has a single writer: the workflow adds the
// candidates of every finished file after all per-file runs returned.
type ProjectIndex struct {
	candidates []Candidate
	files      map[m.Path]bool
}

// NewProjectIndex creates an empty index.
func NewProjectIndex() *ProjectIndex {
	return &ProjectIndex{files: map[m.Path]bool{}}
}

// Add merges the candidates of one file. Adding the same file twice is a
// no-op.
func (p *ProjectIndex) Add(path m.Path, candidates []Candidate) {
	if p.files[path] {
		return
	}

	p.files[path] = true
	p.candidates = append(p.candidates, candidates...)
}

// Len returns the number of indexed candidates.
func (p *ProjectIndex) Len() int {
	return len(p.candidates)
}

// Findings groups the indexed candidates across files and returns the
// duplicate-code findings of each file.
func (p *ProjectIndex) Findings(detector *DuplicationDetector) map[m.Path][]m.Finding {
	sort.SliceStable(p.candidates, func(i, j int) bool {
		return lessCandidate(p.candidates[i], p.candidates[j])
	})

	return detector.Findings(detector.Group(p.candidates))
}
