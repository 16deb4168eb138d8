package materialize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coolbeans/lawgit/pkg/types"
)

// Status is the outcome of one entry.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusSkipped   Status = "skipped"
)

// SkipReason names the step at which an entry was skipped.
type SkipReason string

const (
	SkipMissingContent   SkipReason = "missing_content"
	SkipMalformedContent SkipReason = "malformed_content"
	SkipNoMinister       SkipReason = "no_minister"
	SkipCommitFailed     SkipReason = "commit_failed"
)

// Report summarizes a run. Processed + Skipped always equals Attempted.
type Report struct {
	Attempted int       `json:"attempted"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Entries   []Outcome `json:"entries"`
}

// Outcome records what happened to one entry.
type Outcome struct {
	VersionID     string     `json:"version_id"`
	AmendmentName string     `json:"amendment_name"`
	AdoptionDate  types.Date `json:"adoption_date"`
	Status        Status     `json:"status"`
	Reason        SkipReason `json:"reason,omitempty"`
	Error         string     `json:"error,omitempty"`
	Minister      string     `json:"minister,omitempty"`
	Commit        string     `json:"commit,omitempty"`
}

func (outcome Outcome) skip(reason SkipReason, err error) Outcome {
	outcome.Status = StatusSkipped
	outcome.Reason = reason
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}

func (report *Report) record(outcome Outcome) {
	report.Attempted++
	if outcome.Status == StatusCommitted {
		report.Processed++
	} else {
		report.Skipped++
	}
	report.Entries = append(report.Entries, outcome)
}

// SkipCounts tallies skipped entries by reason.
func (report *Report) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, outcome := range report.Entries {
		if outcome.Status == StatusSkipped {
			counts[outcome.Reason]++
		}
	}
	return counts
}

// FormatReport formats a Report for terminal output.
func FormatReport(report *Report) string {
	var builder strings.Builder

	builder.WriteString("\nMaterialization Report\n")
	builder.WriteString(strings.Repeat("═", 60) + "\n")
	builder.WriteString(fmt.Sprintf("Attempted: %d | Committed: %d | Skipped: %d\n",
		report.Attempted, report.Processed, report.Skipped))
	builder.WriteString(strings.Repeat("─", 60) + "\n")

	for _, outcome := range report.Entries {
		status := "[OK]"
		if outcome.Status == StatusSkipped {
			status = "[SKIP]"
		}

		line := fmt.Sprintf("  %-6s %s %-12s %-10s", status, outcome.AdoptionDate, outcome.AmendmentName, outcome.VersionID)
		if outcome.Minister != "" {
			line += " " + outcome.Minister
		}
		if outcome.Reason != "" {
			line += fmt.Sprintf(" %s: %s", outcome.Reason, outcome.Error)
		}
		builder.WriteString(line + "\n")
	}

	return builder.String()
}

// FormatReportJSON formats a Report as JSON.
func FormatReportJSON(report *Report) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
