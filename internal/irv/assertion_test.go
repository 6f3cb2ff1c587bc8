package irv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cands(ids ...string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate(id)
	}
	return out
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"6", "47", -1},
		{"47", "6", 1},
		{"15", "15", 0},
		{"007", "7", -1},
		{"9", "Alice", -1},
		{"Alice", "Bob", -1},
		{"Bob", "10", 1},
	}
	for _, tt := range tests {
		got := Compare(Candidate(tt.a), Candidate(tt.b))
		switch {
		case tt.want < 0:
			assert.Negative(t, got, "%s vs %s", tt.a, tt.b)
		case tt.want > 0:
			assert.Positive(t, got, "%s vs %s", tt.a, tt.b)
		default:
			assert.Zero(t, got, "%s vs %s", tt.a, tt.b)
		}
	}
}

func TestSortCandidates(t *testing.T) {
	got := SortCandidates(cands("47", "6", "1", "6", "Write-in"))
	assert.Equal(t, cands("1", "6", "47", "Write-in"), got)
}

func TestSoleWinner(t *testing.T) {
	w, err := SoleWinner(cands("15", "15"))
	assert.NoError(t, err)
	assert.Equal(t, Candidate("15"), w)

	_, err = SoleWinner(nil)
	assert.ErrorIs(t, err, ErrAmbiguousReportedWinner)

	_, err = SoleWinner(cands("15", "16"))
	assert.ErrorIs(t, err, ErrAmbiguousReportedWinner)
}

func TestNEB(t *testing.T) {
	a := NewNEB("18", "15")
	assert.Equal(t, Candidate("18"), a.Winner)
	assert.Equal(t, Candidate("15"), a.Loser)
	assert.False(t, a.IsProved())
	assert.Equal(t, "18 v 15", a.Handle())
	assert.True(t, a.Equal(NEB{Winner: "18", Loser: "15", Proved: true}))
	assert.False(t, a.Equal(NewNEB("15", "18")))
}

func TestNEN_Continuing(t *testing.T) {
	all := cands("45", "15", "16", "17", "18")

	a := NewNEN("18", "17", cands("15", "16", "45"), all)
	assert.Equal(t, cands("17", "18"), a.Continuing)
	assert.Equal(t, cands("15", "16", "45"), a.Eliminated)
	assert.False(t, a.IsProved())

	b := NewNEN("18", "17", nil, all)
	assert.Equal(t, cands("15", "16", "17", "18", "45"), b.Continuing)
	assert.Empty(t, b.Eliminated)

	c := NewNEN("18", "17", cands("17", "18"), all)
	assert.Equal(t, cands("15", "16", "45"), c.Continuing)
}

func TestNEN_EqualIgnoresEliminatedOrder(t *testing.T) {
	all := cands("1", "3", "5", "6", "47")
	a := NewNEN("5", "3", cands("1", "6", "47"), all)
	b := NewNEN("5", "3", cands("47", "1", "6", "6"), all)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Continuing, b.Continuing)
	assert.Equal(t, "5 v 3 elim 1 6 47", a.Handle())
	assert.Equal(t, a.Handle(), b.Handle())

	c := NewNEN("5", "3", cands("1", "6"), all)
	assert.False(t, a.Equal(c))
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "5 v 3 elim 1 6 47", NormalizeHandle("5 v 3 elim 47 1 6"))
	assert.Equal(t, "5 v 47", NormalizeHandle(" 5 v 47 "))
	assert.Equal(t, "27 v 26 elim 28 50", NormalizeHandle("27 v 26 elim 50 28"))

	a := NewNEN("15", "17", nil, cands("15", "16", "17"))
	assert.Equal(t, a.Handle(), NormalizeHandle(a.Handle()))
}

func TestWithProvedAndProvedOnly(t *testing.T) {
	all := cands("15", "16", "17")
	as := []Assertion{
		NewNEB("15", "16"),
		WithProved(NewNEB("15", "17"), true),
		WithProved(NewNEN("15", "16", cands("17"), all), true),
	}

	kept := ProvedOnly(as)
	assert.Len(t, kept, 2)
	for _, a := range kept {
		assert.True(t, a.IsProved())
	}

	p := &NEB{Winner: "16", Loser: "17"}
	assert.True(t, WithProved(p, true).IsProved())
	assert.False(t, p.Proved)
}
