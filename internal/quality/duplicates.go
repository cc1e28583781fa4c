package quality

import (
	"strings"

	"datasteward/internal/dataprocessing"
	"datasteward/pkg/contracts/domain"
)

// DuplicateMatcher finds near-duplicate rows on a composite key. An exact
// hash match short-circuits fuzzy comparison; otherwise the row is compared
// with every previously stored row and the first one whose averaged
// similarity reaches the threshold wins.
type DuplicateMatcher struct {
	KeyColumns []string
	Threshold  float64
}

func (DuplicateMatcher) Name() string { return "duplicates" }

type storedRow struct {
	row    int
	values []string
}

// DetectTable reports one issue per row that duplicates an earlier row
func (m DuplicateMatcher) DetectTable(ds *dataprocessing.Dataset) []domain.Issue {
	keys := m.resolveKeys(ds)
	if len(keys) == 0 {
		return nil
	}

	columns := make([][]dataprocessing.Cell, len(keys))
	for i, key := range keys {
		columns[i], _ = ds.Column(key)
	}

	var issues []domain.Issue
	seen := make(map[string]int)
	var stored []storedRow

	for row := 0; row < ds.Len(); row++ {
		values := make([]string, len(keys))
		for i := range keys {
			values[i] = strings.ToLower(strings.TrimSpace(columns[i][row].String()))
		}
		hash := HashKey(values)

		if first, ok := seen[hash]; ok {
			issues = append(issues, rowIssue(domain.IssueDuplicate, domain.SeverityWarn, row, map[string]any{
				"duplicate_of": first,
				"match_fields": keys,
				"similarity":   1.0,
				"method":       "exact",
			}))
			continue
		}

		for _, prior := range stored {
			avg, ok := averageSimilarity(values, prior.values)
			if !ok || avg < m.Threshold {
				continue
			}
			issues = append(issues, rowIssue(domain.IssueDuplicate, domain.SeverityWarn, row, map[string]any{
				"duplicate_of": prior.row,
				"match_fields": keys,
				"similarity":   round2(avg),
				"method":       "fuzzy",
			}))
			break
		}

		seen[hash] = row
		stored = append(stored, storedRow{row: row, values: values})
	}
	return issues
}

// averageSimilarity averages Ratio over key columns where both sides are
// non-empty. ok is false when no column qualifies.
func averageSimilarity(a, b []string) (float64, bool) {
	var sum float64
	n := 0
	for i := range a {
		if a[i] == "" || b[i] == "" {
			continue
		}
		sum += Ratio(a[i], b[i])
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// resolveKeys keeps the configured keys present in the dataset, falling back
// to the first two text-like columns.
func (m DuplicateMatcher) resolveKeys(ds *dataprocessing.Dataset) []string {
	var keys []string
	for _, key := range m.KeyColumns {
		if ds.HasColumn(key) {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		return keys
	}

	for _, name := range ds.Columns() {
		if isTextLike(ds, name) {
			keys = append(keys, name)
			if len(keys) == 2 {
				break
			}
		}
	}
	return keys
}

// isTextLike reports whether a column holds at least one non-numeric value
func isTextLike(ds *dataprocessing.Dataset, column string) bool {
	cells, _ := ds.Column(column)
	for _, c := range cells {
		if c.IsNull() {
			continue
		}
		if _, ok := c.Float(); !ok {
			return true
		}
	}
	return false
}
