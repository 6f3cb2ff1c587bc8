package irv

import (
	"context"
	"fmt"
	"strings"
)

// Verdict is the result of checking an assertion set against a reported winner.
type Verdict int

const (
	// Proved means every elimination order the assertions allow ends with the
	// reported winner.
	Proved Verdict = iota
	// Disproved means some allowed elimination order ends with another candidate.
	Disproved
)

func (v Verdict) String() string {
	switch v {
	case Proved:
		return "Proved"
	case Disproved:
		return "Disproved"
	default:
		return "?"
	}
}

// SearchStats describes how much of the elimination-order space was visited.
type SearchStats struct {
	Explored int `json:"explored" yaml:"explored"`
	Pruned   int `json:"pruned" yaml:"pruned"`
}

// Outcome is the result of Verify.
type Outcome struct {
	Verdict Verdict
	// Counterexample is the order in which candidates are eliminated, set only
	// when Verdict is Disproved. Its last entry is the runner-up.
	Counterexample []Candidate
	// Survivor is the candidate left standing at the end of Counterexample.
	Survivor Candidate
	Stats    SearchStats
}

func (o Outcome) IsProved() bool {
	return o.Verdict == Proved
}

func (o Outcome) String() string {
	if o.Verdict == Proved {
		return "Proved"
	}
	names := make([]string, len(o.Counterexample))
	for i, c := range o.Counterexample {
		names[i] = string(c)
	}
	return fmt.Sprintf("Disproved: eliminate [%s], %s wins", strings.Join(names, " "), o.Survivor)
}

// cancelCheckInterval is how many states are expanded between context checks.
const cancelCheckInterval = 1 << 12

// Verify checks that the assertions exclude every elimination order ending in a
// winner other than reportedWinner.
func Verify(candidates []Candidate, reportedWinner Candidate, assertions []Assertion) (Outcome, error) {
	return VerifyContext(context.Background(), candidates, reportedWinner, assertions)
}

// VerifyContext is Verify with a context that can abandon a long search.
func VerifyContext(ctx context.Context, candidates []Candidate, reportedWinner Candidate, assertions []Assertion) (Outcome, error) {
	idx, err := NewIndex(candidates, assertions)
	if err != nil {
		return Outcome{}, err
	}
	return idx.Verify(ctx, reportedWinner)
}

// Verify searches elimination orders depth first in canonical candidate order
// and returns the first one that survives every assertion and ends with a
// candidate other than reportedWinner.
func (idx *Index) Verify(ctx context.Context, reportedWinner Candidate) (Outcome, error) {
	w, ok := idx.arena.position(reportedWinner)
	if !ok {
		return Outcome{}, fmt.Errorf("reported winner: %w", unknownCandidate(reportedWinner))
	}

	n := idx.arena.size()
	s := &search{
		idx:    idx,
		ctx:    ctx,
		winner: w,
		state:  fullCandidateSet(n),
		order:  make([]int, 0, n),
		dead:   make(map[string]struct{}),
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	found := s.run(n)
	if s.err != nil {
		return Outcome{}, s.err
	}
	if !found {
		return Outcome{Verdict: Proved, Stats: s.stats}, nil
	}

	out := Outcome{
		Verdict:        Disproved,
		Counterexample: make([]Candidate, len(s.order)),
		Stats:          s.stats,
	}
	for i, c := range s.order {
		out.Counterexample[i] = idx.arena.name(c)
	}
	for i := 0; i < n; i++ {
		if s.state.has(i) {
			out.Survivor = idx.arena.name(i)
		}
	}
	return out, nil
}

type search struct {
	idx    *Index
	ctx    context.Context
	winner int
	state  candidateSet
	order  []int
	// dead holds continuing sets from which no counterexample is reachable.
	// The outcome of a state does not depend on how it was reached.
	dead   map[string]struct{}
	stats  SearchStats
	err    error
}

// run explores the state with remaining candidates standing. It returns true
// when a counterexample has been found (s.order and s.state then describe it)
// or when the search was cancelled (s.err is set).
func (s *search) run(remaining int) bool {
	s.stats.Explored++
	if s.stats.Explored%cancelCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return true
		}
	}

	if remaining == 1 {
		return !s.state.has(s.winner)
	}

	key := s.state.key()
	if _, ok := s.dead[key]; ok {
		return false
	}

	n := s.idx.arena.size()
	for c := 0; c < n; c++ {
		if !s.state.has(c) {
			continue
		}
		if s.idx.excludes(c, s.state, key) {
			s.stats.Pruned++
			continue
		}

		s.state.remove(c)
		s.order = append(s.order, c)
		if s.run(remaining - 1) {
			return true
		}
		s.order = s.order[:len(s.order)-1]
		s.state.add(c)
	}
	s.dead[key] = struct{}{}
	return false
}
