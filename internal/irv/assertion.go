// Package irv checks whether a set of RAIRE assertions proves the reported
// winner of an instant-runoff contest.
package irv

import (
	"fmt"
	"slices"
	"strings"
)

// Assertion is either an NEB or an NEN. No other implementations exist.
type Assertion interface {
	// Handle is the stable external key used by audit logs.
	Handle() string
	IsProved() bool

	isAssertion()
}

// NEB is a "not eliminated before" (winner-only) assertion: Winner can never be
// eliminated while Loser is still standing, whatever else has been eliminated.
type NEB struct {
	Winner Candidate
	Loser  Candidate
	Proved bool
}

func NewNEB(winner, loser Candidate) NEB {
	return NEB{Winner: winner, Loser: loser}
}

func (a NEB) Handle() string {
	return fmt.Sprintf("%s v %s", a.Winner, a.Loser)
}

func (a NEB) IsProved() bool { return a.Proved }

func (a NEB) Equal(b NEB) bool {
	return a.Winner == b.Winner && a.Loser == b.Loser
}

func (NEB) isAssertion() {}

// NEN is a "not eliminated next" (IRV elimination) assertion. It only applies in
// the round where exactly Continuing is still standing, and says Winner cannot be
// the candidate eliminated in that round.
type NEN struct {
	Winner Candidate
	Loser  Candidate
	// Eliminated and Continuing are kept in canonical order; together they
	// partition the candidate set the assertion was built against.
	Eliminated []Candidate
	Continuing []Candidate
	Proved     bool
}

// NewNEN builds an NEN from the already-eliminated candidates and the full
// candidate set. The order of eliminated does not matter.
func NewNEN(winner, loser Candidate, eliminated, candidates []Candidate) NEN {
	elim := SortCandidates(eliminated)
	full := SortCandidates(candidates)

	continuing := make([]Candidate, 0, len(full))
	for _, c := range full {
		if _, found := slices.BinarySearchFunc(elim, c, Compare); !found {
			continuing = append(continuing, c)
		}
	}

	return NEN{
		Winner:     winner,
		Loser:      loser,
		Eliminated: elim,
		Continuing: continuing,
	}
}

func (a NEN) Handle() string {
	names := make([]string, len(a.Eliminated))
	for i, c := range a.Eliminated {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s v %s elim %s", a.Winner, a.Loser, strings.Join(names, " "))
}

func (a NEN) IsProved() bool { return a.Proved }

func (a NEN) Equal(b NEN) bool {
	return a.Winner == b.Winner &&
		a.Loser == b.Loser &&
		slices.Equal(a.Eliminated, b.Eliminated) &&
		slices.Equal(a.Continuing, b.Continuing)
}

func (NEN) isAssertion() {}

// WithProved returns a copy of a with its proved flag set.
func WithProved(a Assertion, proved bool) Assertion {
	switch v := a.(type) {
	case NEB:
		v.Proved = proved
		return v
	case *NEB:
		c := *v
		c.Proved = proved
		return c
	case NEN:
		v.Proved = proved
		return v
	case *NEN:
		c := *v
		c.Proved = proved
		return c
	default:
		panic(fmt.Sprintf("irv: unexpected assertion type %T", a))
	}
}

// ProvedOnly keeps the assertions a risk-limiting audit has confirmed.
func ProvedOnly(assertions []Assertion) []Assertion {
	out := make([]Assertion, 0, len(assertions))
	for _, a := range assertions {
		if a.IsProved() {
			out = append(out, a)
		}
	}
	return out
}

// NormalizeHandle rewrites an assertion handle so the eliminated list is in
// canonical order, making handles from differently ordered sources comparable.
func NormalizeHandle(h string) string {
	head, tail, ok := strings.Cut(strings.TrimSpace(h)+" ", " elim ")
	if !ok {
		return strings.Join(strings.Fields(head), " ")
	}
	fields := strings.Fields(tail)
	elim := make([]Candidate, len(fields))
	for i, f := range fields {
		elim[i] = Candidate(f)
	}
	elim = SortCandidates(elim)
	names := make([]string, len(elim))
	for i, c := range elim {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s elim %s", strings.Join(strings.Fields(head), " "), strings.Join(names, " "))
}
