// Package report renders verification results for people and for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/DemocracyDevelopers/irvcheck/internal/audit"
	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/service"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

var (
	contestStyle   = color.New(color.FgCyan, color.Bold)
	provedStyle    = color.New(color.FgGreen, color.Bold)
	disprovedStyle = color.New(color.FgRed, color.Bold)
	errorStyle     = color.New(color.FgYellow, color.Bold)
	detailStyle    = color.New(color.FgBlue)
)

// ContestReport is the machine-readable form of one contest's result.
type ContestReport struct {
	ContestID      string                 `json:"contest_id" yaml:"contest_id"`
	Verdict        string                 `json:"verdict" yaml:"verdict"`
	ReportedWinner *audit.NamedCandidate  `json:"reported_winner,omitempty" yaml:"reported_winner,omitempty"`
	Counterexample []audit.NamedCandidate `json:"counterexample,omitempty" yaml:"counterexample,omitempty"`
	Survivor       *audit.NamedCandidate  `json:"survivor,omitempty" yaml:"survivor,omitempty"`
	AssertionCount int                    `json:"assertion_count,omitempty" yaml:"assertion_count,omitempty"`
	ProvedOnly     bool                   `json:"proved_only,omitempty" yaml:"proved_only,omitempty"`
	StatesExplored int64                  `json:"states_explored,omitempty" yaml:"states_explored,omitempty"`
	DurationMS     int64                  `json:"duration_ms" yaml:"duration_ms"`
	Error          string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// Build converts results into reports, naming candidates from m when given.
func Build(results []service.ContestResult, m *audit.Manifest) []ContestReport {
	out := make([]ContestReport, 0, len(results))
	for _, res := range results {
		r := ContestReport{ContestID: res.ContestID}
		if res.Run == nil {
			r.Verdict = "error"
			r.Error = res.Error
			if r.Error == "" && res.Err != nil {
				r.Error = res.Err.Error()
			}
			out = append(out, r)
			continue
		}

		run := res.Run
		r.Verdict = string(run.Verdict)
		r.ReportedWinner = named(run.ReportedWinner, m)
		r.AssertionCount = run.AssertionCount
		r.ProvedOnly = run.ProvedOnly
		r.StatesExplored = run.StatesExplored
		r.DurationMS = run.DurationMS
		if run.Verdict == domain.VerdictDisproved {
			for _, id := range run.Counterexample {
				r.Counterexample = append(r.Counterexample, *named(id, m))
			}
			r.Survivor = named(run.Survivor, m)
		}
		out = append(out, r)
	}
	return out
}

func named(id string, m *audit.Manifest) *audit.NamedCandidate {
	return &audit.NamedCandidate{ID: id, Name: m.Name(id)}
}

// Render writes results to w in the given format.
func Render(w io.Writer, results []service.ContestResult, m *audit.Manifest, format Format) error {
	reports := Build(results, m)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, Text(reports))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Text formats reports for a terminal.
func Text(reports []ContestReport) string {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString(contestStyle.Sprintf("Contest %s: ", r.ContestID))
		switch r.Verdict {
		case string(domain.VerdictProved):
			b.WriteString(provedStyle.Sprint("PROVED"))
			fmt.Fprintf(&b, "  winner %s\n", label(r.ReportedWinner))
		case string(domain.VerdictDisproved):
			b.WriteString(disprovedStyle.Sprint("NOT PROVED"))
			fmt.Fprintf(&b, "  reported winner %s\n", label(r.ReportedWinner))
			b.WriteString(formatCounterexample(r))
		default:
			b.WriteString(errorStyle.Sprint("ERROR"))
			fmt.Fprintf(&b, "  %s\n", r.Error)
			continue
		}
		b.WriteString(detailStyle.Sprintf("  %d assertions", r.AssertionCount))
		if r.ProvedOnly {
			b.WriteString(detailStyle.Sprint(" (proved only)"))
		}
		b.WriteString(detailStyle.Sprintf(", %d states explored in %dms\n", r.StatesExplored, r.DurationMS))
	}
	return b.String()
}

func formatCounterexample(r ContestReport) string {
	steps := make([]string, len(r.Counterexample))
	for i, c := range r.Counterexample {
		steps[i] = label(&c)
	}
	return fmt.Sprintf("  eliminating %s leaves %s\n",
		strings.Join(steps, ", "), disprovedStyle.Sprint(label(r.Survivor)))
}

func label(c *audit.NamedCandidate) string {
	if c == nil {
		return "?"
	}
	if c.Name == "" || c.Name == c.ID {
		return c.ID
	}
	return fmt.Sprintf("%s (%s)", c.ID, c.Name)
}
