// Package audit reads RAIRE assertion files, SHANGRLA audit logs and Dominion
// candidate manifests, and turns their records into irv assertions.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/irv"
	"github.com/tidwall/gjson"
)

var (
	ErrUnknownFormat        = errors.New("unrecognised audit file format")
	ErrUnknownAssertionType = errors.New("unknown assertion type")
)

type Format string

const (
	// FormatRAIRE is the assertion generator's output: {"audits": [...]}.
	FormatRAIRE Format = "raire"
	// FormatRLALog is the audit engine's log: {"contests": {"<id>": {...}}}.
	FormatRLALog Format = "rla-log"
)

type File struct {
	Format   Format
	Contests []domain.ContestAudit
}

// IsLogFile reports whether the file came from the audit engine rather than
// directly from the assertion generator.
func (f *File) IsLogFile() bool {
	return f.Format == FormatRLALog
}

// Parse detects which of the two schemas data uses and reads every contest in it.
func Parse(data []byte) (*File, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUnknownFormat)
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.Get("audits").IsArray():
		contests, err := parseRAIRE(root.Get("audits"))
		if err != nil {
			return nil, err
		}
		return &File{Format: FormatRAIRE, Contests: contests}, nil
	case root.Get("contests").IsObject():
		contests, err := parseRLALog(root.Get("contests"))
		if err != nil {
			return nil, err
		}
		return &File{Format: FormatRLALog, Contests: contests}, nil
	default:
		return nil, fmt.Errorf("%w: expected an \"audits\" array or a \"contests\" object", ErrUnknownFormat)
	}
}

func parseRAIRE(audits gjson.Result) ([]domain.ContestAudit, error) {
	var contests []domain.ContestAudit
	for i, a := range audits.Array() {
		winner := a.Get("winner").String()
		eliminated := stringList(a.Get("eliminated"))

		c := domain.ContestAudit{
			ContestID:  a.Get("contest").String(),
			Winners:    []string{winner},
			Candidates: append([]string{winner}, eliminated...),
			Eliminated: eliminated,
		}
		if c.ContestID == "" {
			c.ContestID = fmt.Sprintf("audit-%d", i)
		}

		recs, err := parseRecords(a.Get("assertions"))
		if err != nil {
			return nil, fmt.Errorf("contest %s: %w", c.ContestID, err)
		}
		c.Records = recs
		contests = append(contests, c)
	}
	return contests, nil
}

func parseRLALog(entries gjson.Result) ([]domain.ContestAudit, error) {
	var contests []domain.ContestAudit
	var parseErr error

	entries.ForEach(func(key, v gjson.Result) bool {
		c := domain.ContestAudit{
			ContestID:  key.String(),
			Candidates: stringList(v.Get("candidates")),
			Winners:    stringList(v.Get("winner")),
		}
		if id := v.Get("id").String(); id != "" {
			c.ContestID = id
		}

		winners := make(map[string]bool, len(c.Winners))
		for _, w := range c.Winners {
			winners[w] = true
		}
		for _, cand := range c.Candidates {
			if !winners[cand] {
				c.Eliminated = append(c.Eliminated, cand)
			}
		}

		recs, err := parseRecords(v.Get("assertion_json"))
		if err != nil {
			parseErr = fmt.Errorf("contest %s: %w", c.ContestID, err)
			return false
		}
		c.Records = recs

		c.ProvedHandles = make(map[string]bool)
		v.Get("assertions").ForEach(func(handle, a gjson.Result) bool {
			if a.Get("proved").Bool() {
				c.ProvedHandles[irv.NormalizeHandle(handle.String())] = true
			}
			return true
		})

		contests = append(contests, c)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return contests, nil
}

func parseRecords(v gjson.Result) ([]domain.AssertionRecord, error) {
	if !v.Exists() {
		return nil, nil
	}
	var recs []domain.AssertionRecord
	if err := json.Unmarshal([]byte(v.Raw), &recs); err != nil {
		return nil, fmt.Errorf("decode assertions: %w", err)
	}
	return recs, nil
}

// stringList reads an array of ids, a single id, or nothing.
func stringList(v gjson.Result) []string {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if !v.IsArray() {
		if s := v.String(); s != "" {
			return []string{s}
		}
		return nil
	}
	arr := v.Array()
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, e.String())
	}
	return out
}
