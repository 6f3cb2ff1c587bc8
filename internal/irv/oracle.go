package irv

import "fmt"

// Excludes reports whether some indexed assertion rules out eliminating c next
// when exactly continuing is still standing. continuing must contain c.
func (idx *Index) Excludes(c Candidate, continuing []Candidate) (bool, error) {
	pos, ok := idx.arena.position(c)
	if !ok {
		return false, unknownCandidate(c)
	}
	s, err := idx.arena.setOf(continuing)
	if err != nil {
		return false, err
	}
	if !s.has(pos) {
		return false, fmt.Errorf("%w: %q", ErrNotContinuing, c)
	}
	return idx.excludes(pos, s, s.key()), nil
}

// excludes is Excludes on arena positions; key must be s.key().
func (idx *Index) excludes(c int, s candidateSet, key string) bool {
	// NEB(c, l) with l still standing: c cannot go before l.
	row := idx.neb[c]
	for l := range row {
		if row[l] && l != c && s.has(l) {
			return true
		}
	}

	// NEN facts apply only to their exact continuing set.
	if len(idx.nen) == 0 {
		return false
	}
	for _, f := range idx.nen[key] {
		if f.winner == c {
			return true
		}
	}
	return false
}
