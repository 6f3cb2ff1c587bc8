package audit

import (
	"fmt"

	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/irv"
)

// Assertion converts one raw record. candidates is the contest's full
// candidate set, needed to derive an NEN's continuing set.
func Assertion(rec domain.AssertionRecord, candidates []irv.Candidate) (irv.Assertion, error) {
	var a irv.Assertion
	switch rec.AssertionType {
	case domain.AssertionWinnerOnly:
		a = irv.NewNEB(irv.Candidate(rec.Winner), irv.Candidate(rec.Loser))
	case domain.AssertionIRVElimination:
		a = irv.NewNEN(irv.Candidate(rec.Winner), irv.Candidate(rec.Loser), Candidates(rec.AlreadyEliminated), candidates)
	default:
		return nil, fmt.Errorf("%w %q (%s v %s)", ErrUnknownAssertionType, rec.AssertionType, rec.Winner, rec.Loser)
	}
	if rec.Proved {
		a = irv.WithProved(a, true)
	}
	return a, nil
}

// Assertions converts every record of a contest, marking as proved the ones an
// audit log confirmed.
func Assertions(c domain.ContestAudit) ([]irv.Assertion, error) {
	candidates := Candidates(c.Candidates)
	out := make([]irv.Assertion, 0, len(c.Records))
	for i, rec := range c.Records {
		a, err := Assertion(rec, candidates)
		if err != nil {
			return nil, fmt.Errorf("assertion %d: %w", i, err)
		}
		if c.ProvedHandles[irv.NormalizeHandle(a.Handle())] {
			a = irv.WithProved(a, true)
		}
		out = append(out, a)
	}
	return out, nil
}

func Candidates(ids []string) []irv.Candidate {
	out := make([]irv.Candidate, len(ids))
	for i, id := range ids {
		out[i] = irv.Candidate(id)
	}
	return out
}

func IDs(cs []irv.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
