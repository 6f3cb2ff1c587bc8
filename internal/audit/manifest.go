package audit

import (
	"fmt"

	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/tidwall/gjson"
)

// Manifest maps numeric candidate codes to display names, as read from a
// Dominion CandidateManifest.json ({"List": [{"Id": 15, "Description": "..."}]}).
type Manifest struct {
	names map[string]string
}

// NamedCandidate pairs a candidate code with its display name.
type NamedCandidate struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func ParseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: candidate manifest is not valid JSON", ErrUnknownFormat)
	}
	list := gjson.GetBytes(data, "List")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: candidate manifest has no \"List\" array", ErrUnknownFormat)
	}

	m := &Manifest{names: make(map[string]string)}
	list.ForEach(func(_, e gjson.Result) bool {
		id := e.Get("Id").String()
		if id != "" {
			m.names[id] = e.Get("Description").String()
		}
		return true
	})
	return m, nil
}

// Name returns the display name for id, or id itself if the manifest does not
// know it. A nil manifest knows nothing.
func (m *Manifest) Name(id string) string {
	if m == nil {
		return id
	}
	if name, ok := m.names[id]; ok && name != "" {
		return name
	}
	return id
}

func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// ApparentWinnerAndLosers returns the reported winner's display name and the
// other candidates in the order the contest lists them as eliminated.
func ApparentWinnerAndLosers(c domain.ContestAudit, m *Manifest) (string, []NamedCandidate) {
	winner := ""
	if len(c.Winners) > 0 {
		winner = m.Name(c.Winners[0])
	}

	losers := c.Eliminated
	if len(losers) == 0 {
		isWinner := make(map[string]bool, len(c.Winners))
		for _, w := range c.Winners {
			isWinner[w] = true
		}
		for _, id := range c.Candidates {
			if !isWinner[id] {
				losers = append(losers, id)
			}
		}
	}

	out := make([]NamedCandidate, 0, len(losers))
	for _, id := range losers {
		out = append(out, NamedCandidate{ID: id, Name: m.Name(id)})
	}
	return winner, out
}
