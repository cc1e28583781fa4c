package quality

import (
	"fmt"
	"strings"

	"datasteward/internal/dataprocessing"
	"datasteward/pkg/contracts/domain"
)

// fixProposal is the outcome of planning a correction for one issue
type fixProposal struct {
	after       string
	ok          bool
	explanation string
}

// propose plans the correction of issue given the current cell text. It never
// touches the dataset. hasValue is false for issues not anchored to a cell.
func (e *Engine) propose(issue domain.Issue, current string, hasValue bool) fixProposal {
	switch issue.Kind {
	case domain.IssueEmailInvalid:
		return fixProposal{explanation: "Email format invalid - manual review required"}

	case domain.IssuePhoneInvalid:
		if hasValue {
			normalized := NormalizePhone(current, e.settings.CountryCode)
			if normalized != "" && checkPhone(normalized, e.settings.CountryCode, e.settings.PhoneLength).Valid {
				return fixProposal{
					after:       normalized,
					ok:          true,
					explanation: "Normalized to E.164 format: " + normalized,
				}
			}
		}
		return fixProposal{explanation: "Could not normalize phone - manual review required"}

	case domain.IssueDateFormat:
		if hasValue {
			if iso, ok := NormalizeDate(current, e.settings.DateOutputLayout); ok {
				if iso == current {
					return fixProposal{explanation: "Already in ISO format (YYYY-MM-DD) - no change needed"}
				}
				return fixProposal{after: iso, ok: true, explanation: "Converted to ISO format (YYYY-MM-DD)"}
			}
		}
		return fixProposal{explanation: "Could not parse date - manual review required"}

	case domain.IssueCurrency:
		if hasValue {
			if amount, code, ok := NormalizeCurrency(current); ok {
				return fixProposal{
					after:       FormatCurrency(amount, code),
					ok:          true,
					explanation: fmt.Sprintf("Normalized to %s format", code),
				}
			}
		}
		return fixProposal{explanation: "Could not parse currency - manual review required"}

	case domain.IssuePriceZero:
		return fixProposal{explanation: "Zero price requires manual review"}

	case domain.IssueIDMissing:
		if issue.Row == nil || issue.Col == nil {
			break
		}
		id := GenerateRowID(*issue.Row, current)
		return fixProposal{after: id, ok: true, explanation: "Generated ID: " + id}

	case domain.IssueDuplicate:
		if of, ok := issue.Details["duplicate_of"]; ok {
			return fixProposal{explanation: fmt.Sprintf("Duplicate of row %v - consider removing", of)}
		}

	case domain.IssueWhitespace:
		if hasValue {
			if trimmed := strings.TrimSpace(current); trimmed != current {
				return fixProposal{after: trimmed, ok: true, explanation: "Trimmed surrounding whitespace"}
			}
		}

	case domain.IssueInconsistentCase:
		if suggestion, ok := issue.Details["suggestion"].(string); ok && hasValue && suggestion != current {
			return fixProposal{after: suggestion, ok: true, explanation: "Replaced with " + suggestion}
		}

	case domain.IssuePriceNegative, domain.IssueNIFCIFBasic,
		domain.IssueMissingValue, domain.IssueSpecialChars:
	}
	return fixProposal{explanation: "Issue detected: " + string(issue.Kind)}
}

// cellText resolves the cell an issue points at
func cellText(ds *dataprocessing.Dataset, issue domain.Issue) (string, bool) {
	if issue.Row == nil || issue.Col == nil {
		return "", false
	}
	c, ok := ds.Cell(*issue.Row, *issue.Col)
	if !ok {
		return "", false
	}
	return c.String(), true
}

// harmonizeDates rewrites every remaining parseable date in column to the
// output layout and returns the number of cells changed.
func (e *Engine) harmonizeDates(ds *dataprocessing.Dataset, column string) int {
	cells, ok := ds.Column(column)
	if !ok {
		return 0
	}
	changed := 0
	for row, c := range cells {
		if c.IsBlank() {
			continue
		}
		value := strings.TrimSpace(c.String())
		if DetectDateFormat(value) == "" {
			continue
		}
		iso, ok := NormalizeDate(value, e.settings.DateOutputLayout)
		if !ok || iso == c.String() {
			continue
		}
		if err := ds.Set(row, column, dataprocessing.TextCell(iso)); err == nil {
			changed++
		}
	}
	return changed
}

func ruleIDOf(issue domain.Issue) *string {
	if id, ok := issue.Details["rule_id"].(string); ok && id != "" {
		return strPtr(id)
	}
	return nil
}
