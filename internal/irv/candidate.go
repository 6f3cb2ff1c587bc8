package irv

import (
	"encoding/binary"
	"math/bits"
	"slices"
	"strings"
)

// Candidate is an opaque candidate identifier as it appears in assertion files.
type Candidate string

// Compare orders candidates canonically. Identifiers made only of decimal digits
// compare numerically (so "6" sorts before "47") and sort before any other
// identifier; everything else compares byte-wise.
func Compare(a, b Candidate) int {
	an, bn := isNumeric(string(a)), isNumeric(string(b))
	switch {
	case an && bn:
		at, bt := strings.TrimLeft(string(a), "0"), strings.TrimLeft(string(b), "0")
		if len(at) != len(bt) {
			return len(at) - len(bt)
		}
		if c := strings.Compare(at, bt); c != 0 {
			return c
		}
		return strings.Compare(string(a), string(b))
	case an:
		return -1
	case bn:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SortCandidates returns a sorted, de-duplicated copy of cs.
func SortCandidates(cs []Candidate) []Candidate {
	out := slices.Clone(cs)
	slices.SortFunc(out, Compare)
	return slices.Compact(out)
}

// SoleWinner returns the single reported winner, or ErrAmbiguousReportedWinner
// when the reported winner set does not have exactly one member.
func SoleWinner(winners []Candidate) (Candidate, error) {
	ws := SortCandidates(winners)
	if len(ws) != 1 {
		return "", ambiguousWinner(ws)
	}
	return ws[0], nil
}

// arena assigns every candidate a dense position in canonical order.
type arena struct {
	names []Candidate
	pos   map[Candidate]int
}

func newArena(candidates []Candidate) *arena {
	names := SortCandidates(candidates)
	a := &arena{
		names: names,
		pos:   make(map[Candidate]int, len(names)),
	}
	for i, c := range names {
		a.pos[c] = i
	}
	return a
}

func (a *arena) size() int {
	return len(a.names)
}

func (a *arena) position(c Candidate) (int, bool) {
	i, ok := a.pos[c]
	return i, ok
}

func (a *arena) name(i int) Candidate {
	return a.names[i]
}

func (a *arena) setOf(cs []Candidate) (candidateSet, error) {
	s := newCandidateSet(a.size())
	for _, c := range cs {
		i, ok := a.position(c)
		if !ok {
			return candidateSet{}, unknownCandidate(c)
		}
		s.add(i)
	}
	return s, nil
}

// candidateSet is a bitset over arena positions.
type candidateSet struct {
	words []uint64
}

func newCandidateSet(n int) candidateSet {
	return candidateSet{words: make([]uint64, (n+63)/64)}
}

func fullCandidateSet(n int) candidateSet {
	s := newCandidateSet(n)
	for i := 0; i < n; i++ {
		s.add(i)
	}
	return s
}

func (s candidateSet) has(i int) bool {
	return s.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (s candidateSet) add(i int) {
	s.words[i/64] |= 1 << (uint(i) % 64)
}

func (s candidateSet) remove(i int) {
	s.words[i/64] &^= 1 << (uint(i) % 64)
}

func (s candidateSet) len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// key encodes the set as a string usable as a map key.
func (s candidateSet) key() string {
	buf := make([]byte, 0, 8*len(s.words))
	for _, w := range s.words {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	return string(buf)
}
