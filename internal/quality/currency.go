package quality

import (
	"fmt"
	"regexp"
	"strings"

	"datasteward/internal/dataprocessing"
)

var (
	currencySymbols = []string{"€", "$", "£", "¥"}
	currencyCodes   = []string{"EUR", "USD", "GBP", "JPY"}
	symbolToCode    = map[string]string{"€": "EUR", "$": "USD", "£": "GBP", "¥": "JPY"}

	currencyCodePattern = regexp.MustCompile(`(?i)EUR|USD|GBP|JPY`)
)

const defaultCurrencyCode = "EUR"

// scanCurrency returns the first currency symbol found in value, or the
// first currency code when no symbol is present.
func scanCurrency(value string) string {
	for _, sym := range currencySymbols {
		if strings.Contains(value, sym) {
			return sym
		}
	}
	upper := strings.ToUpper(value)
	for _, code := range currencyCodes {
		if strings.Contains(upper, code) {
			return code
		}
	}
	return ""
}

// stripCurrency removes symbols and codes. Codes match in any case, as in
// scanCurrency.
func stripCurrency(value string) string {
	for _, sym := range currencySymbols {
		value = strings.ReplaceAll(value, sym, "")
	}
	value = currencyCodePattern.ReplaceAllString(value, "")
	return strings.TrimSpace(value)
}

// parseCurrencyAmount applies the lenient parse used for detection: a comma
// becomes a decimal point.
func parseCurrencyAmount(value string) (float64, bool) {
	residual := strings.ReplaceAll(stripCurrency(value), ",", ".")
	return parseFloat(residual)
}

// NormalizeCurrency extracts the amount and ISO code from a currency string.
// When both '.' and ',' appear the dot is a thousands separator.
func NormalizeCurrency(value string) (float64, string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, "", false
	}

	code := defaultCurrencyCode
	for _, sym := range currencySymbols {
		if strings.Contains(value, sym) {
			code = symbolToCode[sym]
			break
		}
	}
	upper := strings.ToUpper(value)
	for _, c := range currencyCodes {
		if strings.Contains(upper, c) {
			code = c
			break
		}
	}

	numeric := stripCurrency(value)
	switch {
	case strings.Contains(numeric, ".") && strings.Contains(numeric, ","):
		numeric = strings.ReplaceAll(numeric, ".", "")
		numeric = strings.ReplaceAll(numeric, ",", ".")
	case strings.Contains(numeric, ","):
		numeric = strings.ReplaceAll(numeric, ",", ".")
	}

	amount, ok := parseFloat(numeric)
	if !ok {
		return 0, "", false
	}
	return amount, code, true
}

// FormatCurrency renders the canonical "<amount> <CODE>" form
func FormatCurrency(amount float64, code string) string {
	return fmt.Sprintf("%.2f %s", amount, code)
}

func parseFloat(s string) (float64, bool) {
	return dataprocessing.ParseNumber(s)
}
