package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Verdict string

const (
	VerdictProved    Verdict = "proved"
	VerdictDisproved Verdict = "disproved"
)

// Assertion types as they appear in RAIRE output and SHANGRLA logs.
const (
	AssertionWinnerOnly     = "WINNER_ONLY"
	AssertionIRVElimination = "IRV_ELIMINATION"
)

// CandidateList accepts either a JSON array of ids or a string. RAIRE writes
// "" for the already-eliminated set of winner-only assertions.
type CandidateList []string

func (l *CandidateList) UnmarshalJSON(data []byte) error {
	var ids []json.RawMessage
	if err := json.Unmarshal(data, &ids); err == nil {
		out := make(CandidateList, 0, len(ids))
		for _, raw := range ids {
			id, err := candidateID(raw)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		*l = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("candidate list: expected array or string, got %s", string(data))
	}
	*l = CandidateList(strings.Fields(s))
	return nil
}

// candidateID reads an id written either as a string or as a bare number.
func candidateID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("candidate id: %s", string(raw))
	}
	return n.String(), nil
}

// AssertionRecord is one raw assertion as produced by RAIRE.
type AssertionRecord struct {
	Winner            string        `json:"winner"`
	Loser             string        `json:"loser"`
	AlreadyEliminated CandidateList `json:"already_eliminated"`
	AssertionType     string        `json:"assertion_type"`
	Explanation       string        `json:"explanation,omitempty"`
	Proved            bool          `json:"proved,omitempty"`
}

// ContestAudit is everything needed to check one contest's assertions.
type ContestAudit struct {
	ContestID  string            `json:"contest_id"`
	Candidates []string          `json:"candidates"`
	Winners    []string          `json:"winners"`
	Eliminated []string          `json:"eliminated,omitempty"`
	Records    []AssertionRecord `json:"assertions"`
	// ProvedHandles holds the normalized handles an audit log marked as proved.
	ProvedHandles map[string]bool `json:"-"`
}

type VerificationRequest struct {
	Contest    ContestAudit
	ProvedOnly bool
}

type VerificationRun struct {
	ID             uuid.UUID `json:"id"`
	ContestID      string    `json:"contest_id"`
	ReportedWinner string    `json:"reported_winner"`
	Candidates     []string  `json:"candidates"`
	Verdict        Verdict   `json:"verdict"`
	Counterexample []string  `json:"counterexample,omitempty"`
	Survivor       string    `json:"survivor,omitempty"`
	AssertionCount int       `json:"assertion_count"`
	ProvedOnly     bool      `json:"proved_only"`
	StatesExplored int64     `json:"states_explored"`
	Pruned         int64     `json:"pruned"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

type RunStore interface {
	Create(ctx context.Context, r *VerificationRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*VerificationRun, error)
	ListByContest(ctx context.Context, contestID string, limit int) ([]VerificationRun, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
