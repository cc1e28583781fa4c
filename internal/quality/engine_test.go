package quality

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasteward/internal/dataprocessing"
	"datasteward/internal/shared/testutil"
	"datasteward/pkg/contracts/domain"
)

func newEngine(t *testing.T, rules ...domain.RuleSpec) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultSettings(), rules, testutil.Logger(t))
	require.NoError(t, err)
	return e
}

func customersFixture(t *testing.T) *dataprocessing.Dataset {
	return newDataset(t,
		[]string{"id", "nombre", "email", "telefono", "fecha_alta", "precio"},
		[]string{"C1", "Juan", "juan@x.com", "612345678", "2024-01-15", "10.5"},
		[]string{"", "Ana", "ana@x.com", "+34 699 111 222", "20/02/2024", "0"},
		[]string{"C3", "Juan", "juan@x.com", "+34612345678", "2024-03-01", "12"},
		[]string{"C4", "Luis", "luis-at-x.com", "699 222 333", "2024-04-10", "-3"},
		[]string{"C5", "Eva", "eva@x.com", "", "05.05.2024", "1.234,50 €"},
	)
}

func countKinds(issues []domain.Issue) map[domain.IssueKind]int {
	out := make(map[domain.IssueKind]int)
	for _, issue := range issues {
		out[issue.Kind]++
	}
	return out
}

func TestEngine_DetectIssues(t *testing.T) {
	e := newEngine(t)
	ds := customersFixture(t)

	resp := e.DetectIssues(context.Background(), ds)

	kinds := countKinds(resp.Issues)
	assert.Equal(t, 1, kinds[domain.IssueIDMissing])
	assert.Equal(t, 1, kinds[domain.IssueEmailInvalid])
	assert.Equal(t, 2, kinds[domain.IssuePhoneInvalid])
	assert.Equal(t, 2, kinds[domain.IssueDateFormat])
	assert.Equal(t, 1, kinds[domain.IssuePriceZero])
	assert.Equal(t, 1, kinds[domain.IssuePriceNegative])
	assert.Equal(t, 1, kinds[domain.IssueDuplicate])

	assert.Equal(t, len(resp.Issues), resp.Summary.TotalIssues)
	assert.Equal(t, 5, resp.Summary.TotalRows)
	assert.Equal(t, kinds[domain.IssuePhoneInvalid], resp.Summary.ByKind["phone_invalid"])

	// Columns are scanned in order before the table detectors
	last := resp.Issues[len(resp.Issues)-1]
	assert.Equal(t, domain.IssueDuplicate, last.Kind)
	assert.Equal(t, 2, *last.Row)
	assert.Equal(t, 0, last.Details["duplicate_of"])
}

func TestEngine_DetectOnEmptyDataset(t *testing.T) {
	e := newEngine(t)
	ds := newDataset(t, []string{"email", "telefono"})

	resp := e.DetectIssues(context.Background(), ds)

	assert.NotNil(t, resp.Issues)
	assert.Empty(t, resp.Issues)
	assert.Equal(t, 0, resp.Summary.AffectedRows)
}

func TestEngine_PreviewDoesNotMutate(t *testing.T) {
	e := newEngine(t)
	ds := customersFixture(t)
	before := ds.Records()
	issuesBefore := e.Detect(context.Background(), ds)

	resp := e.Preview(context.Background(), ds)

	assert.NotEmpty(t, resp.Preview)
	assert.Nil(t, resp.Note)
	assert.Equal(t, before, ds.Records())
	assert.Equal(t, issuesBefore, e.Detect(context.Background(), ds))
}

func TestEngine_PreviewExplanations(t *testing.T) {
	e := newEngine(t)
	resp := e.Preview(context.Background(), customersFixture(t))

	find := func(col string, row int) domain.FixPreview {
		t.Helper()
		for _, p := range resp.Preview {
			if p.Col != nil && *p.Col == col && p.Row != nil && *p.Row == row {
				return p
			}
		}
		t.Fatalf("no preview for %s row %d", col, row)
		return domain.FixPreview{}
	}

	phone := find("telefono", 0)
	require.NotNil(t, phone.Before)
	assert.Equal(t, "612345678", *phone.Before)
	require.NotNil(t, phone.After)
	assert.Equal(t, "+34612345678", *phone.After)
	assert.Equal(t, "Normalized to E.164 format: +34612345678", phone.Explanation)

	date := find("fecha_alta", 1)
	require.NotNil(t, date.After)
	assert.Equal(t, "2024-02-20", *date.After)
	assert.Equal(t, "Converted to ISO format (YYYY-MM-DD)", date.Explanation)

	email := find("email", 3)
	assert.Nil(t, email.After)
	assert.Equal(t, "Email format invalid - manual review required", email.Explanation)

	zero := find("precio", 1)
	assert.Nil(t, zero.After)
	assert.Equal(t, "Zero price requires manual review", zero.Explanation)

	negative := find("precio", 3)
	assert.Equal(t, "Issue detected: price_negative", negative.Explanation)

	id := find("id", 1)
	require.NotNil(t, id.After)
	assert.Equal(t, "Generated ID: "+*id.After, id.Explanation)
	assert.Nil(t, id.RuleID)

	var dup *domain.FixPreview
	for i := range resp.Preview {
		if resp.Preview[i].Col == nil {
			dup = &resp.Preview[i]
		}
	}
	require.NotNil(t, dup)
	assert.Nil(t, dup.Before)
	assert.Equal(t, "Duplicate of row 0 - consider removing", dup.Explanation)
}

func TestEngine_PreviewLimit(t *testing.T) {
	settings := DefaultSettings()
	settings.PreviewMaxRows = 3
	e, err := NewEngine(settings, nil, testutil.Logger(t))
	require.NoError(t, err)

	values := make([]string, 10)
	for i := range values {
		values[i] = strings.Repeat(string(rune('a'+i)), i+1)
	}
	resp := e.Preview(context.Background(), singleColumn(t, "email", values...))

	assert.Len(t, resp.Preview, 3)
	require.NotNil(t, resp.Note)
	assert.Equal(t, "Preview limited to 3 fixes. Total issues: 10", *resp.Note)
}

func TestEngine_PreviewIncludesColumnIssues(t *testing.T) {
	e := newEngine(t)
	resp := e.Preview(context.Background(), singleColumn(t, "precio", "10 €", "$12"))

	require.Len(t, resp.Preview, 1)
	p := resp.Preview[0]
	assert.Nil(t, p.Row)
	require.NotNil(t, p.Col)
	assert.Equal(t, "precio", *p.Col)
	assert.Nil(t, p.Before)
	assert.Nil(t, p.After)
	assert.Equal(t, "Could not parse currency - manual review required", p.Explanation)
}

func TestEngine_Apply(t *testing.T) {
	e := newEngine(t)
	ds := customersFixture(t)
	before := ds.Records()

	clean, result := e.Apply(context.Background(), ds)

	assert.Equal(t, before, ds.Records(), "source dataset must not change")
	assert.Equal(t, result.Summary.OriginalRows, result.Summary.CleanRows)
	assert.Equal(t, 5, result.Summary.OriginalRows)
	assert.Equal(t, result.Summary.TotalIssues, result.Applied+result.Rejected)

	// id, two phones, two dates, one currency
	assert.Equal(t, 6, result.Applied)

	cell := func(row int, col string) string {
		c, ok := clean.Cell(row, col)
		require.True(t, ok)
		return c.String()
	}
	assert.Equal(t, "+34612345678", cell(0, "telefono"))
	assert.Equal(t, "+34699222333", cell(3, "telefono"))
	assert.Equal(t, "2024-02-20", cell(1, "fecha_alta"))
	assert.Equal(t, "2024-05-05", cell(4, "fecha_alta"))
	assert.Regexp(t, `^ID-[0-9a-f]{8}$`, cell(1, "id"))
	assert.Equal(t, "luis-at-x.com", cell(3, "email"))
	assert.Equal(t, "-3", cell(3, "precio"))
	assert.Equal(t, "1234.50 EUR", cell(4, "precio"))
}

func TestEngine_ApplyRoundTrip(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	clean, _ := e.Apply(ctx, customersFixture(t))
	kinds := countKinds(e.Detect(ctx, clean))

	assert.Zero(t, kinds[domain.IssuePhoneInvalid])
	assert.Zero(t, kinds[domain.IssueDateFormat])
	assert.Zero(t, kinds[domain.IssueIDMissing])
	assert.Equal(t, 1, kinds[domain.IssueEmailInvalid])
	assert.Equal(t, 1, kinds[domain.IssueDuplicate])

	again, result := e.Apply(ctx, clean)
	assert.Equal(t, clean.Records(), again.Records())
	assert.Zero(t, result.Applied)
}

func TestEngine_ApplyRejectsUnfixablePhone(t *testing.T) {
	e := newEngine(t)
	ds := singleColumn(t, "telefono", "700", "+33612345678")

	clean, result := e.Apply(context.Background(), ds)

	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 2, result.Rejected)
	assert.Equal(t, ds.Records(), clean.Records())
}

func TestEngine_ApplyHarmonizesDateColumn(t *testing.T) {
	e := newEngine(t)
	ds := singleColumn(t, "fecha", "15/01/2024", "16/01/2024", "2024-01-17", "n/d")

	clean, result := e.Apply(context.Background(), ds)

	// the flagged value is already ISO, so only harmonization rewrites cells
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 2, result.Summary.CellsHarmonized)
	col, _ := clean.Column("fecha")
	got := make([]string, len(col))
	for i, c := range col {
		got[i] = c.String()
	}
	assert.Equal(t, []string{"2024-01-15", "2024-01-16", "2024-01-17", "n/d"}, got)
	assert.Zero(t, countKinds(e.Detect(context.Background(), clean))[domain.IssueDateFormat])
}

func TestEngine_ApplyRuleSuggestionAndUnparsableCurrency(t *testing.T) {
	e := newEngine(t, domain.RuleSpec{ID: "r1", Kind: domain.RuleMap, Spec: map[string]any{
		"column":    "estado",
		"mapping":   map[string]any{"activo": "ACTIVE"},
		"lowercase": true,
	}})
	ds := newDataset(t, []string{"precio", "estado"},
		[]string{"10", " Activo "},
		[]string{"abc", "ACTIVE"},
	)

	clean, result := e.Apply(context.Background(), ds)

	c, _ := clean.Cell(0, "estado")
	assert.Equal(t, "ACTIVE", c.String())
	c, _ = clean.Cell(1, "precio")
	assert.Equal(t, "abc", c.String())
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Rejected)
}

func TestEngine_DateConsistencyFixture(t *testing.T) {
	values := []string{"15/01/2024", "2024-01-16", "15-01-2024", "2024/01/17", "16/01/2024"}
	ctx := context.Background()

	t.Run("apply counts only rewritten cells", func(t *testing.T) {
		e := newEngine(t)
		ds := singleColumn(t, "fecha", values...)

		clean, result := e.Apply(ctx, ds)

		assert.Equal(t, 2, result.Applied)
		assert.Equal(t, 1, result.Rejected)
		assert.Equal(t, 2, result.Summary.CellsHarmonized)
		assert.Equal(t, 5, result.Summary.CleanRows)

		col, _ := clean.Column("fecha")
		got := make([]string, len(col))
		for i, c := range col {
			got[i] = c.String()
		}
		assert.Equal(t, []string{"2024-01-15", "2024-01-16", "2024-01-15", "2024-01-17", "2024-01-16"}, got)
	})

	t.Run("round trip leaves no date issues", func(t *testing.T) {
		e := newEngine(t)
		clean, _ := e.Apply(ctx, singleColumn(t, "fecha", values...))

		assert.Zero(t, countKinds(e.Detect(ctx, clean))[domain.IssueDateFormat])

		again, result := e.Apply(ctx, clean)
		assert.Equal(t, clean.Records(), again.Records())
		assert.Zero(t, result.Applied)
	})

	t.Run("preview proposes no change for ISO values", func(t *testing.T) {
		e := newEngine(t)
		resp := e.Preview(ctx, singleColumn(t, "fecha", values...))

		require.Len(t, resp.Preview, 3)
		iso := resp.Preview[0]
		require.NotNil(t, iso.Row)
		assert.Equal(t, 1, *iso.Row)
		require.NotNil(t, iso.Before)
		assert.Equal(t, "2024-01-16", *iso.Before)
		assert.Nil(t, iso.After)
		assert.Equal(t, "Already in ISO format (YYYY-MM-DD) - no change needed", iso.Explanation)

		for _, p := range resp.Preview[1:] {
			require.NotNil(t, p.After)
			assert.NotEqual(t, *p.Before, *p.After)
		}
	})

	t.Run("unpadded ISO minority is rewritten", func(t *testing.T) {
		e := newEngine(t)
		ds := singleColumn(t, "fecha", "15/01/2024", "16/01/2024", "2024-1-5")

		clean, result := e.Apply(ctx, ds)

		assert.Equal(t, 1, result.Applied)
		c, _ := clean.Cell(2, "fecha")
		assert.Equal(t, "2024-01-05", c.String())
		assert.Zero(t, countKinds(e.Detect(ctx, clean))[domain.IssueDateFormat])
	})
}
