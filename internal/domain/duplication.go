package domain

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// Canonical placeholders.
const (
	placeholderIdent    = "$id"
	placeholderLiteral  = "$lit"
	placeholderLifetime = "$lt"
)

// Candidate is a function or control-flow block considered by the
// duplication detector.
type Candidate struct {
	Path m.Path
	// Span is the reported region: the whole function, or the block.
	Span m.Span
	// Body is the compared region.
	Body     m.Span
	Position m.Position
	Function bool
	Name     string
	// Canonical is the normalised token sequence of Body.
	Canonical []string
	Hash      string
}

func (c Candidate) label() string {
	if c.Function {
		return fmt.Sprintf("function `%s`", c.Name)
	}

	return "block"
}

func (c Candidate) location() string {
	return fmt.Sprintf("%s:%d:%d", c.Path, c.Position.Line, c.Position.Column)
}

func (c Candidate) inside(other Candidate) bool {
	return c.Path == other.Path && other.Body.Contains(c.Span) && c.Span != other.Span
}

// DuplicateGroup is a set of structurally similar candidates. The first
// member is the canonical occurrence and is not reported.
type DuplicateGroup struct {
	ID      string
	Members []Candidate
}

// DuplicationDetector groups structurally identical or similar code.
type DuplicationDetector struct {
	cfg      rules.DuplicateCodeConfig
	severity m.Severity
}

// NewDuplicationDetector creates a detector reporting with severity.
func NewDuplicationDetector(cfg rules.DuplicateCodeConfig, severity m.Severity) *DuplicationDetector {
	return &DuplicationDetector{cfg: cfg, severity: severity}
}

// Candidates extracts the candidates of one file.
func (d *DuplicationDetector) Candidates(file *syntax.File) []Candidate {
	var out []Candidate

	file.Walk(func(id syntax.NodeID, _ int) bool {
		n := file.Node(id)

		if d.cfg.ExemptTests && n.Has(syntax.FlagTest) {
			return false
		}

		var body syntax.NodeID

		switch n.Kind {
		case syntax.NodeFunction:
			body = functionBody(file, id)
		case syntax.NodeBlock:
			switch file.Node(file.Parent(id)).Kind {
			case syntax.NodeIf, syntax.NodeLoop, syntax.NodeMatchArm:
				body = id
			default:
				return true
			}
		default:
			return true
		}

		if body == syntax.NoNode {
			return true
		}

		tokens := file.SignificantTokens(body)
		if len(tokens) < d.cfg.MinTokens {
			return true
		}

		canonical := Canonicalize(tokens)
		out = append(out, Candidate{
			Path:      file.Path,
			Span:      n.Span,
			Body:      file.Node(body).Span,
			Position:  file.Position(n.Span.Start),
			Function:  n.Kind == syntax.NodeFunction,
			Name:      n.Name,
			Canonical: canonical,
			Hash:      hashCanonical(canonical),
		})

		return true
	})

	return out
}

func functionBody(file *syntax.File, fn syntax.NodeID) syntax.NodeID {
	for _, c := range file.Node(fn).Children {
		if file.Node(c).Kind == syntax.NodeBlock {
			return c
		}
	}

	return syntax.NoNode
}

// Canonicalize erases identifier names and literal values from tokens.
func Canonicalize(tokens []syntax.Token) []string {
	out := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		switch {
		case tok.Kind == syntax.TokenIdent:
			out = append(out, placeholderIdent)
		case tok.Kind == syntax.TokenLifetime:
			out = append(out, placeholderLifetime)
		case tok.IsLiteral():
			out = append(out, placeholderLiteral)
		default:
			out = append(out, tok.Text)
		}
	}

	return out
}

func hashCanonical(canonical []string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(strings.Join(canonical, " "))))
}

// Group partitions candidates into duplicate groups. The result depends only
// on the set of candidates, not on their order.
func (d *DuplicationDetector) Group(candidates []Candidate) []DuplicateGroup {
	cands := append([]Candidate(nil), candidates...)

	// larger candidates first so nested duplicates are absorbed by their
	// enclosing group
	sort.SliceStable(cands, func(i, j int) bool {
		if len(cands[i].Canonical) != len(cands[j].Canonical) {
			return len(cands[i].Canonical) > len(cands[j].Canonical)
		}

		return lessCandidate(cands[i], cands[j])
	})

	sets := newUnionFind(len(cands))
	grouped := make([]bool, len(cands))

	covered := func(i int) bool {
		for j := range cands {
			if grouped[j] && cands[i].inside(cands[j]) {
				return true
			}
		}

		return false
	}

	byHash := map[string][]int{}

	var hashes []string

	for i, c := range cands {
		if _, ok := byHash[c.Hash]; !ok {
			hashes = append(hashes, c.Hash)
		}

		byHash[c.Hash] = append(byHash[c.Hash], i)
	}

	for _, h := range hashes {
		var members []int

		for _, i := range byHash[h] {
			if !covered(i) {
				members = append(members, i)
			}
		}

		if len(members) < 2 {
			continue
		}

		for _, i := range members {
			grouped[i] = true
			sets.union(members[0], i)
		}
	}

	d.nearPass(cands, sets, grouped, covered)

	return collectGroups(cands, sets)
}

func (d *DuplicationDetector) nearPass(cands []Candidate, sets *unionFind, grouped []bool, covered func(int) bool) {
	threshold := d.cfg.SimilarityThreshold

	var funcs []int

	for i, c := range cands {
		if c.Function && (grouped[i] || !covered(i)) {
			funcs = append(funcs, i)
		}
	}

	for x, i := range funcs {
		for _, j := range funcs[x+1:] {
			a, b := cands[i], cands[j]
			if a.Hash == b.Hash || sets.find(i) == sets.find(j) {
				continue
			}

			if lengthRatio(len(a.Canonical), len(b.Canonical)) < threshold {
				continue
			}

			if similarity(a.Canonical, b.Canonical) >= threshold {
				sets.union(i, j)
			}
		}
	}
}

func lengthRatio(a, b int) float64 {
	if a > b {
		a, b = b, a
	}

	if b == 0 {
		return 1
	}

	return float64(a) / float64(b)
}

// similarity is the difflib match ratio of two canonical sequences, with the
// shorter sequence first so the score does not depend on argument order.
func similarity(a, b []string) float64 {
	if len(a) > len(b) || (len(a) == len(b) && strings.Join(a, " ") > strings.Join(b, " ")) {
		a, b = b, a
	}

	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)
	if matcher.RealQuickRatio() == 0 {
		return 0
	}

	return matcher.Ratio()
}

func collectGroups(cands []Candidate, sets *unionFind) []DuplicateGroup {
	components := map[int][]Candidate{}

	for i, c := range cands {
		root := sets.find(i)
		components[root] = append(components[root], c)
	}

	var groups []DuplicateGroup

	for _, members := range components {
		if len(members) < 2 {
			continue
		}

		sort.SliceStable(members, func(i, j int) bool { return lessCandidate(members[i], members[j]) })
		groups = append(groups, DuplicateGroup{ID: groupID(members), Members: members})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return lessCandidate(groups[i].Members[0], groups[j].Members[0])
	})

	return groups
}

func lessCandidate(a, b Candidate) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}

	if a.Span.Start != b.Span.Start {
		return a.Span.Start < b.Span.Start
	}

	return a.Span.End < b.Span.End
}

func groupID(members []Candidate) string {
	h := sha256.New()
	for _, c := range members {
		fmt.Fprintf(h, "%s:%s;", c.Path, c.Span)
	}

	return fmt.Sprintf("dup-%x", h.Sum(nil)[:6])
}

// Findings turns groups into findings keyed by the file they belong to.
// Every member but the first is reported.
func (d *DuplicationDetector) Findings(groups []DuplicateGroup) map[m.Path][]m.Finding {
	out := map[m.Path][]m.Finding{}

	for _, g := range groups {
		first := g.Members[0]

		for _, c := range g.Members[1:] {
			var msg string

			if c.Hash == first.Hash {
				msg = fmt.Sprintf("%s duplicates the %s at %s (%d occurrences)",
					c.label(), first.label(), first.location(), len(g.Members))
			} else {
				msg = fmt.Sprintf("%s is %.0f%% similar to the %s at %s (%d occurrences)",
					c.label(), similarity(first.Canonical, c.Canonical)*100, first.label(), first.location(), len(g.Members))
			}

			out[c.Path] = append(out[c.Path], m.Finding{
				Rule:     rules.DuplicateCodeID,
				Severity: d.severity,
				Span:     c.Span,
				Position: c.Position,
				Message:  msg,
				GroupID:  g.ID,
			})
		}
	}

	return out
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}

	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}

	return i
}

// union links the sets of i and j, keeping the smaller root.
func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return
	}

	if ri < rj {
		u.parent[rj] = ri
	} else {
		u.parent[ri] = rj
	}
}
