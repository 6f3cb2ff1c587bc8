package irv

import "fmt"

// Index holds the assertions of one contest in the shape the search needs:
// an NEB matrix over arena positions and NEN facts grouped by continuing set.
// An Index is read-only once built and safe for concurrent use.
type Index struct {
	arena *arena
	// neb[w][l] is true iff NEB(w, l) was supplied.
	neb [][]bool
	// nen groups NEN facts by the key of their continuing set, in insertion order.
	nen map[string][]nenFact

	nebCount int
	nenCount int
}

type nenFact struct {
	winner int
	loser  int
	NEN
}

// NewIndex validates every assertion against candidates and indexes it.
// Any reference to a candidate outside the set fails with ErrMalformedAssertion.
func NewIndex(candidates []Candidate, assertions []Assertion) (*Index, error) {
	ar := newArena(candidates)
	n := ar.size()

	idx := &Index{
		arena: ar,
		neb:   make([][]bool, n),
		nen:   make(map[string][]nenFact),
	}
	for i := range idx.neb {
		idx.neb[i] = make([]bool, n)
	}

	for _, a := range assertions {
		switch v := a.(type) {
		case NEB:
			if err := idx.addNEB(v); err != nil {
				return nil, err
			}
		case *NEB:
			if err := idx.addNEB(*v); err != nil {
				return nil, err
			}
		case NEN:
			if err := idx.addNEN(v); err != nil {
				return nil, err
			}
		case *NEN:
			if err := idx.addNEN(*v); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unsupported assertion type %T", ErrMalformedAssertion, a)
		}
	}

	return idx, nil
}

func (idx *Index) addNEB(a NEB) error {
	w, ok := idx.arena.position(a.Winner)
	if !ok {
		return malformed(a.Handle(), "winner %q is not a candidate", a.Winner)
	}
	l, ok := idx.arena.position(a.Loser)
	if !ok {
		return malformed(a.Handle(), "loser %q is not a candidate", a.Loser)
	}
	if w == l {
		return malformed(a.Handle(), "winner and loser are the same candidate")
	}
	if !idx.neb[w][l] {
		idx.neb[w][l] = true
		idx.nebCount++
	}
	return nil
}

func (idx *Index) addNEN(a NEN) error {
	w, ok := idx.arena.position(a.Winner)
	if !ok {
		return malformed(a.Handle(), "winner %q is not a candidate", a.Winner)
	}
	l, ok := idx.arena.position(a.Loser)
	if !ok {
		return malformed(a.Handle(), "loser %q is not a candidate", a.Loser)
	}
	if w == l {
		return malformed(a.Handle(), "winner and loser are the same candidate")
	}

	elim, err := idx.arena.setOf(a.Eliminated)
	if err != nil {
		return malformed(a.Handle(), "already eliminated set is not a subset of the candidates: %v", err)
	}
	continuing, err := idx.arena.setOf(a.Continuing)
	if err != nil {
		return malformed(a.Handle(), "continuing set is not a subset of the candidates: %v", err)
	}
	if len(a.Continuing) == 0 {
		return malformed(a.Handle(), "no candidates continuing")
	}
	if !continuing.has(w) || !continuing.has(l) {
		return malformed(a.Handle(), "winner and loser must both be continuing")
	}
	if elim.len()+continuing.len() != idx.arena.size() {
		return malformed(a.Handle(), "eliminated and continuing sets do not partition the candidates")
	}
	for i := 0; i < idx.arena.size(); i++ {
		if elim.has(i) && continuing.has(i) {
			return malformed(a.Handle(), "candidate %q is both eliminated and continuing", idx.arena.name(i))
		}
	}

	key := continuing.key()
	idx.nen[key] = append(idx.nen[key], nenFact{winner: w, loser: l, NEN: a})
	idx.nenCount++
	return nil
}

// Candidates returns the indexed candidates in canonical order.
func (idx *Index) Candidates() []Candidate {
	out := make([]Candidate, len(idx.arena.names))
	copy(out, idx.arena.names)
	return out
}

// NEBCount and NENCount report the number of distinct NEB cells and NEN facts indexed.
func (idx *Index) NEBCount() int { return idx.nebCount }
func (idx *Index) NENCount() int { return idx.nenCount }
