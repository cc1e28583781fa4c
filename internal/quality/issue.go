package quality

import (
	"math"

	"datasteward/pkg/contracts/domain"
)

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

// cellIssue builds an issue anchored to a single cell
func cellIssue(kind domain.IssueKind, sev domain.Severity, row int, col string, details map[string]any) domain.Issue {
	return domain.Issue{Kind: kind, Severity: sev, Row: intPtr(row), Col: strPtr(col), Details: details}
}

// columnIssue builds an issue that applies to a whole column
func columnIssue(kind domain.IssueKind, sev domain.Severity, col string, details map[string]any) domain.Issue {
	return domain.Issue{Kind: kind, Severity: sev, Col: strPtr(col), Details: details}
}

// rowIssue builds an issue that applies to a whole row
func rowIssue(kind domain.IssueKind, sev domain.Severity, row int, details map[string]any) domain.Issue {
	return domain.Issue{Kind: kind, Severity: sev, Row: intPtr(row), Details: details}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Summarize aggregates issues per kind and severity
func Summarize(issues []domain.Issue, totalRows int) domain.IssueSummary {
	summary := domain.IssueSummary{
		TotalIssues: len(issues),
		ByKind:      make(map[string]int),
		BySeverity:  make(map[string]int),
		TotalRows:   totalRows,
	}
	rows := make(map[int]struct{})
	for _, issue := range issues {
		summary.ByKind[string(issue.Kind)]++
		summary.BySeverity[string(issue.Severity)]++
		if issue.Row != nil {
			rows[*issue.Row] = struct{}{}
		}
	}
	summary.AffectedRows = len(rows)
	return summary
}
