package quality

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"datasteward/internal/dataprocessing"
	"datasteward/pkg/contracts/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nifPattern   = regexp.MustCompile(`^[A-Z0-9]{8,10}$`)
)

// Detector scans one column and reports issues. Implementations are
// stateless and never mutate the dataset; an absent column yields no issues.
type Detector interface {
	Name() string
	Detect(ds *dataprocessing.Dataset, column string) []domain.Issue
}

// TableDetector scans the whole table
type TableDetector interface {
	Name() string
	DetectTable(ds *dataprocessing.Dataset) []domain.Issue
}

// eachValue calls fn with the trimmed text of every non-blank cell
func eachValue(ds *dataprocessing.Dataset, column string, fn func(row int, value string)) {
	cells, ok := ds.Column(column)
	if !ok {
		return
	}
	for i, c := range cells {
		if c.IsBlank() {
			continue
		}
		fn(i, strings.TrimSpace(c.String()))
	}
}

// EmailDetector flags values that do not look like an address
type EmailDetector struct{}

func (EmailDetector) Name() string { return "email" }

func (EmailDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	var issues []domain.Issue
	eachValue(ds, column, func(row int, value string) {
		if emailPattern.MatchString(value) {
			return
		}
		issues = append(issues, cellIssue(domain.IssueEmailInvalid, domain.SeverityError, row, column, map[string]any{
			"value":  value,
			"reason": "Email format invalid",
		}))
	})
	return issues
}

// PhoneDetector validates national numbers against a country code
type PhoneDetector struct {
	CountryCode string
	Length      int
}

func (PhoneDetector) Name() string { return "phone" }

func (d PhoneDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	var issues []domain.Issue
	eachValue(ds, column, func(row int, value string) {
		check := checkPhone(value, d.CountryCode, d.Length)
		if check.Valid {
			return
		}
		details := map[string]any{
			"value":      value,
			"normalized": check.Normalized,
			"reason":     check.Reason,
		}
		if check.Suggestion != "" {
			details["suggestion"] = check.Suggestion
		}
		issues = append(issues, cellIssue(domain.IssuePhoneInvalid, check.Severity, row, column, details))
	})
	return issues
}

// DateDetector reports values whose format differs from the column's
// dominant format.
type DateDetector struct{}

func (DateDetector) Name() string { return "dates" }

func (DateDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	type occurrence struct {
		row   int
		value string
	}
	var order []string
	byFormat := make(map[string][]occurrence)

	eachValue(ds, column, func(row int, value string) {
		format := DetectDateFormat(value)
		if format == "" {
			return
		}
		if _, seen := byFormat[format]; !seen {
			order = append(order, format)
		}
		byFormat[format] = append(byFormat[format], occurrence{row: row, value: value})
	})

	if len(order) <= 1 {
		return nil
	}

	dominant := order[0]
	for _, format := range order[1:] {
		if len(byFormat[format]) > len(byFormat[dominant]) {
			dominant = format
		}
	}

	var issues []domain.Issue
	for _, format := range order {
		if format == dominant {
			continue
		}
		for _, occ := range byFormat[format] {
			issues = append(issues, cellIssue(domain.IssueDateFormat, domain.SeverityWarn, occ.row, column, map[string]any{
				"value":           occ.value,
				"detected_format": format,
				"dominant_format": dominant,
				"reason":          fmt.Sprintf("Inconsistent date format. Found %s, expected %s", format, dominant),
			}))
		}
	}

	sort.SliceStable(issues, func(i, j int) bool { return *issues[i].Row < *issues[j].Row })
	return issues
}

// CurrencyDetector flags unparsable amounts and columns mixing currencies
type CurrencyDetector struct{}

func (CurrencyDetector) Name() string { return "currency" }

func (CurrencyDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	var issues []domain.Issue
	found := make(map[string]struct{})

	eachValue(ds, column, func(row int, value string) {
		if cur := scanCurrency(value); cur != "" {
			found[cur] = struct{}{}
		}
		if _, ok := parseCurrencyAmount(value); ok {
			return
		}
		issues = append(issues, cellIssue(domain.IssueCurrency, domain.SeverityError, row, column, map[string]any{
			"value":  value,
			"reason": "Cannot parse numeric value from currency string",
		}))
	})

	if len(found) > 1 {
		currencies := make([]string, 0, len(found))
		for cur := range found {
			currencies = append(currencies, cur)
		}
		sort.Strings(currencies)
		issues = append(issues, columnIssue(domain.IssueCurrency, domain.SeverityWarn, column, map[string]any{
			"reason":     "Mixed currencies detected: " + strings.Join(currencies, ", "),
			"currencies": currencies,
		}))
	}
	return issues
}

// PriceDetector flags zero and negative prices. Non-numeric cells are
// skipped silently; the currency detector owns parse failures.
type PriceDetector struct{}

func (PriceDetector) Name() string { return "price" }

func (PriceDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	cells, ok := ds.Column(column)
	if !ok {
		return nil
	}
	var issues []domain.Issue
	for row, c := range cells {
		price, ok := c.Float()
		if !ok {
			continue
		}
		switch {
		case price == 0:
			issues = append(issues, cellIssue(domain.IssuePriceZero, domain.SeverityWarn, row, column, map[string]any{
				"value":  price,
				"reason": "Zero price may indicate missing data",
			}))
		case price < 0:
			issues = append(issues, cellIssue(domain.IssuePriceNegative, domain.SeverityError, row, column, map[string]any{
				"value":  price,
				"reason": "Negative prices are invalid",
			}))
		}
	}
	return issues
}

// IDDetector requires a non-blank identifier in every row
type IDDetector struct{}

func (IDDetector) Name() string { return "id_sku" }

func (IDDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	cells, ok := ds.Column(column)
	if !ok {
		return nil
	}
	var issues []domain.Issue
	for row, c := range cells {
		if !c.IsBlank() {
			continue
		}
		issues = append(issues, cellIssue(domain.IssueIDMissing, domain.SeverityError, row, column, map[string]any{
			"value":  c.String(),
			"reason": "Required ID field is empty",
		}))
	}
	return issues
}

// NIFDetector is a superficial shape check on Spanish tax identifiers; it
// does not validate check digits.
type NIFDetector struct{}

func (NIFDetector) Name() string { return "nif_cif" }

func (NIFDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	var issues []domain.Issue
	eachValue(ds, column, func(row int, value string) {
		upper := strings.ToUpper(value)
		if nifPattern.MatchString(upper) {
			return
		}
		issues = append(issues, cellIssue(domain.IssueNIFCIFBasic, domain.SeverityWarn, row, column, map[string]any{
			"value":  value,
			"reason": "Does not match typical NIF/CIF pattern (8-10 alphanumeric characters)",
		}))
	})
	return issues
}
