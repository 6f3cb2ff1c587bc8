package irv

import (
	"context"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Scenarios(t *testing.T) {
	c3 := cands("15", "16", "17")

	tests := []struct {
		name       string
		candidates []Candidate
		winner     Candidate
		assertions []Assertion
		verdict    Verdict
		order      []Candidate
	}{
		{
			name:       "single NEB proves two-candidate contest",
			candidates: cands("X", "Y"),
			winner:     "X",
			assertions: []Assertion{NewNEB("X", "Y")},
			verdict:    Proved,
		},
		{
			name:       "no assertions",
			candidates: cands("X", "Y", "Z"),
			winner:     "X",
			verdict:    Disproved,
			order:      cands("X", "Y"),
		},
		{
			name:       "NEN chain proves winner",
			candidates: c3,
			winner:     "15",
			assertions: []Assertion{
				NewNEN("15", "16", cands("17"), c3),
				NewNEN("15", "17", cands("16"), c3),
				NewNEN("15", "17", nil, c3),
			},
			verdict: Proved,
		},
		{
			name:       "single NEN leaves winner exposed",
			candidates: c3,
			winner:     "15",
			assertions: []Assertion{NewNEN("15", "16", cands("17"), c3)},
			verdict:    Disproved,
			order:      cands("15", "16"),
		},
		{
			name:       "sole candidate",
			candidates: cands("15"),
			winner:     "15",
			verdict:    Proved,
		},
		{
			name:       "NEBs against every rival",
			candidates: c3,
			winner:     "15",
			assertions: []Assertion{NewNEB("15", "16"), NewNEB("15", "17")},
			verdict:    Proved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Verify(tt.candidates, tt.winner, tt.assertions)
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, out.Verdict)
			assert.Equal(t, tt.order, out.Counterexample)
			if tt.verdict == Proved {
				assert.True(t, out.IsProved())
				assert.Empty(t, out.Survivor)
			} else {
				assert.NotEqual(t, tt.winner, out.Survivor)
				assert.NotContains(t, out.Counterexample, out.Survivor)
			}
		})
	}
}

func TestVerify_EmptyAssertionsDisproves(t *testing.T) {
	for n := 2; n <= 6; n++ {
		all := make([]Candidate, n)
		for i := range all {
			all[i] = Candidate(string(rune('A' + i)))
		}
		out, err := Verify(all, all[n-1], nil)
		require.NoError(t, err)
		assert.Equal(t, Disproved, out.Verdict)
		assert.Len(t, out.Counterexample, n-1)
	}
}

func TestVerify_Errors(t *testing.T) {
	_, err := Verify(cands("15", "16"), "99", nil)
	assert.ErrorIs(t, err, ErrUnknownCandidate)

	_, err = Verify(nil, "15", nil)
	assert.ErrorIs(t, err, ErrUnknownCandidate)

	_, err = Verify(cands("15", "16"), "15", []Assertion{NewNEB("15", "99")})
	assert.ErrorIs(t, err, ErrMalformedAssertion)
}

func TestVerify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := VerifyContext(ctx, cands("15", "16", "17"), "15", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify_IgnoresProvedFlag(t *testing.T) {
	all := cands("X", "Y")
	a, err := Verify(all, "X", []Assertion{NewNEB("X", "Y")})
	require.NoError(t, err)
	b, err := Verify(all, "X", []Assertion{WithProved(NewNEB("X", "Y"), true)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestVerify_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	all := cands("1", "2", "3", "4", "5")
	for i := 0; i < 50; i++ {
		as := randomAssertions(rng, all, 6)
		shuffled := slices.Clone(as)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		first, err := Verify(all, "1", as)
		require.NoError(t, err)
		second, err := Verify(all, "1", as)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		third, err := Verify(all, "1", shuffled)
		require.NoError(t, err)
		assert.Equal(t, first.Verdict, third.Verdict)
		assert.Equal(t, first.Counterexample, third.Counterexample)
	}
}

// TestVerify_MatchesBruteForce checks the verdict and counterexample minimality
// against an enumeration of every elimination order.
func TestVerify_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	all := cands("1", "2", "3", "4", "5")

	for i := 0; i < 300; i++ {
		as := randomAssertions(rng, all, rng.Intn(14))
		winner := all[rng.Intn(len(all))]

		idx, err := NewIndex(all, as)
		require.NoError(t, err)
		out, err := idx.Verify(context.Background(), winner)
		require.NoError(t, err)

		want := bruteForce(t, idx, all, winner)
		if want == nil {
			assert.Equal(t, Proved, out.Verdict, "case %d", i)
			continue
		}
		assert.Equal(t, Disproved, out.Verdict, "case %d", i)
		assert.Equal(t, want, out.Counterexample, "case %d", i)
	}
}

func TestVerify_Monotone(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	all := cands("1", "2", "3", "4")
	proved := 0

	for i := 0; i < 400 && proved < 25; i++ {
		as := append([]Assertion{NewNEB("1", "2"), NewNEB("1", "3")}, randomAssertions(rng, all, 8)...)
		out, err := Verify(all, "1", as)
		require.NoError(t, err)
		if !out.IsProved() {
			continue
		}
		proved++

		more := append(slices.Clone(as), randomAssertions(rng, all, 3)...)
		again, err := Verify(all, "1", more)
		require.NoError(t, err)
		assert.True(t, again.IsProved())
	}
	assert.Positive(t, proved)
}

func TestVerify_LargeContestTerminates(t *testing.T) {
	all := make([]Candidate, 0, 14)
	for i := 1; i <= 14; i++ {
		all = append(all, Candidate(string(rune('a'+i))))
	}
	winner := all[0]
	var as []Assertion
	for _, c := range all[1:] {
		as = append(as, NewNEB(winner, c))
	}

	out, err := Verify(all, winner, as)
	require.NoError(t, err)
	assert.True(t, out.IsProved())
	assert.Positive(t, out.Stats.Pruned)
}

func randomAssertions(rng *rand.Rand, all []Candidate, n int) []Assertion {
	out := make([]Assertion, 0, n)
	for len(out) < n {
		w := all[rng.Intn(len(all))]
		l := all[rng.Intn(len(all))]
		if w == l {
			continue
		}
		if rng.Intn(2) == 0 {
			out = append(out, NewNEB(w, l))
			continue
		}
		var elim []Candidate
		for _, c := range all {
			if c != w && c != l && rng.Intn(2) == 0 {
				elim = append(elim, c)
			}
		}
		out = append(out, NewNEN(w, l, elim, all))
	}
	return out
}

// bruteForce returns the smallest assertion-consistent elimination order that
// ends with someone other than winner, or nil if there is none.
func bruteForce(t *testing.T, idx *Index, all []Candidate, winner Candidate) []Candidate {
	t.Helper()
	var best []Candidate

	var permute func(order, rest []Candidate)
	permute = func(order, rest []Candidate) {
		if len(rest) == 1 {
			if rest[0] != winner && consistent(t, idx, all, order) {
				if best == nil || slices.CompareFunc(order, best, Compare) < 0 {
					best = slices.Clone(order)
				}
			}
			return
		}
		for i := range rest {
			next := append(slices.Clone(rest[:i]), rest[i+1:]...)
			permute(append(slices.Clone(order), rest[i]), next)
		}
	}
	permute(nil, all)
	return best
}

func consistent(t *testing.T, idx *Index, all []Candidate, order []Candidate) bool {
	standing := slices.Clone(all)
	for _, c := range order {
		excluded, err := idx.Excludes(c, standing)
		require.NoError(t, err)
		if excluded {
			return false
		}
		standing = slices.DeleteFunc(standing, func(s Candidate) bool { return s == c })
	}
	return true
}
