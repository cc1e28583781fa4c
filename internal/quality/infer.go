package quality

import (
	"fmt"
	"regexp"
	"strings"

	"datasteward/internal/dataprocessing"
	"datasteward/pkg/contracts/domain"
)

const displaySampleSize = 5

var (
	phonePattern    = regexp.MustCompile(`^[\+\d\s\-\(\)]{8,15}$`)
	currencyPattern = regexp.MustCompile(`[$€£¥]|EUR|USD|GBP`)
	nonDigit        = regexp.MustCompile(`\D`)

	dateNameHints  = []string{"fecha", "date", "born", "created", "updated"}
	idNameHints    = []string{"id", "sku", "code", "codigo", "código"}
	priceNameHints = []string{"precio", "price"}
	booleanTokens  = map[string]bool{
		"true": true, "false": true, "yes": true, "no": true,
		"1": true, "0": true, "si": true, "sí": true,
	}
)

// Inferrer classifies columns from a bounded, reproducible sample
type Inferrer struct {
	settings Settings
}

// NewInferrer creates an inferrer
func NewInferrer(settings Settings) *Inferrer {
	return &Inferrer{settings: settings}
}

// InferType returns the semantic type of a column and a confidence in [0, 1].
// An all-null column is text with confidence 0.
func (inf *Inferrer) InferType(name string, cells []dataprocessing.Cell) (domain.InferredType, float64) {
	values := nonNull(cells)
	if len(values) == 0 {
		return domain.TypeText, 0.0
	}

	sample := SampleValues(values, inf.sampleSize(), inf.settings.SampleSeed)
	total := float64(len(sample))
	lowerName := strings.ToLower(name)

	ratio := func(match func(string) bool) float64 {
		hits := 0
		for _, v := range sample {
			if match(v) {
				hits++
			}
		}
		return float64(hits) / total
	}

	if r := ratio(emailPattern.MatchString); r > 0.7 {
		return domain.TypeEmail, round2(r)
	}

	if r := ratio(func(v string) bool { return phonePattern.MatchString(strings.TrimSpace(v)) }); r > 0.7 {
		national := ratio(func(v string) bool {
			return strings.Contains(v, inf.settings.CountryCode) ||
				len(nonDigit.ReplaceAllString(v, "")) == inf.settings.PhoneLength
		})
		if national > 0.5 {
			return domain.TypePhoneES, round2(r)
		}
		return domain.TypePhone, round2(r)
	}

	if containsAny(lowerName, dateNameHints) {
		return domain.TypeDate, 0.8
	}

	if r := ratio(currencyPattern.MatchString); r > 0.5 {
		return domain.TypeCurrency, round2(r)
	}

	if ratio(func(v string) bool { _, ok := dataprocessing.ParseNumber(v); return ok }) == 1 {
		return domain.TypeNumeric, 0.95
	}

	if r := ratio(func(v string) bool { return booleanTokens[strings.ToLower(v)] }); r > 0.8 {
		return domain.TypeBoolean, round2(r)
	}

	if containsAny(lowerName, idNameHints) {
		return domain.TypeID, 0.7
	}

	return domain.TypeText, 0.5
}

// InferColumn builds the full report for one column. Missing percentage and
// unique count cover the whole column, not the sample.
func (inf *Inferrer) InferColumn(ds *dataprocessing.Dataset, name string) domain.ColumnInfo {
	cells, _ := ds.Column(name)
	values := nonNull(cells)

	missingPct := 0.0
	if ds.Len() > 0 {
		missingPct = float64(ds.Len()-len(values)) / float64(ds.Len()) * 100
	}

	unique := distinct(values)
	var sample []string
	if len(values) <= displaySampleSize {
		sample = unique
	} else {
		sample = SampleValues(values, displaySampleSize, inf.settings.SampleSeed)
	}
	if sample == nil {
		sample = []string{}
	}

	inferred, confidence := inf.InferType(name, cells)
	return domain.ColumnInfo{
		Name:         name,
		InferredType: inferred,
		Confidence:   confidence,
		Sample:       sample,
		MissingPct:   round2(missingPct),
		UniqueCount:  len(unique),
	}
}

// Infer reports every column plus table KPIs and warnings
func (inf *Inferrer) Infer(ds *dataprocessing.Dataset) domain.InferResult {
	columns := make([]domain.ColumnInfo, 0, ds.Width())
	for _, name := range ds.Columns() {
		columns = append(columns, inf.InferColumn(ds, name))
	}

	kpis := ComputeKPIs(ds)
	warnings := []string{}
	if kpis.EmptiesPct > 10 {
		warnings = append(warnings, fmt.Sprintf("High percentage of empty cells: %.1f%%", kpis.EmptiesPct))
	}
	if kpis.DuplicatesSuspected > 0 {
		warnings = append(warnings, fmt.Sprintf("Suspected duplicates: %d", kpis.DuplicatesSuspected))
	}

	return domain.InferResult{Columns: columns, KPIs: kpis, Warnings: warnings}
}

// ComputeKPIs calculates table level indicators. The duplicate count covers
// exact whole-row repeats only.
func ComputeKPIs(ds *dataprocessing.Dataset) domain.KPIs {
	kpis := domain.KPIs{Rows: ds.Len(), Cols: ds.Width()}

	totalCells := ds.Len() * ds.Width()
	empty := 0
	seen := make(map[string]struct{}, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		var key strings.Builder
		for _, c := range row {
			if c.IsNull() {
				empty++
				key.WriteString("\x00N")
			} else {
				key.WriteString("\x00T")
				key.WriteString(c.String())
			}
		}
		if _, dup := seen[key.String()]; dup {
			kpis.DuplicatesSuspected++
		} else {
			seen[key.String()] = struct{}{}
		}
	}
	if totalCells > 0 {
		kpis.EmptiesPct = round2(float64(empty) / float64(totalCells) * 100)
	}

	priceCols := 0
	zeros := 0
	for _, name := range ds.Columns() {
		if !containsAny(strings.ToLower(name), priceNameHints) {
			continue
		}
		priceCols++
		cells, _ := ds.Column(name)
		for _, c := range cells {
			if f, ok := c.Float(); ok && f == 0 {
				zeros++
			}
		}
	}
	if priceCols > 0 {
		kpis.PriceZeros = &zeros
	}

	return kpis
}

func (inf *Inferrer) sampleSize() int {
	if inf.settings.SampleSize > 0 {
		return inf.settings.SampleSize
	}
	return 50
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
