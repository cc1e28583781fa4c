package quality

import (
	"fmt"
	"strings"

	"datasteward/pkg/contracts/domain"
)

// StripPhone keeps digits and a leading plus sign
func StripPhone(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	b.Grow(len(value))
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone converts a phone number to international form, prefixing the
// country code when the number has none.
func NormalizePhone(value, countryCode string) string {
	cleaned := StripPhone(value)
	if cleaned == "" || strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	return countryCode + cleaned
}

// phoneCheck is the verdict on a single phone value
type phoneCheck struct {
	Valid      bool
	Severity   domain.Severity
	Normalized string
	Reason     string
	Suggestion string
}

// checkPhone validates a phone number against a country code and the digit
// count of the national number.
func checkPhone(value, countryCode string, length int) phoneCheck {
	normalized := StripPhone(value)

	if strings.HasPrefix(normalized, "+") {
		expected := len(countryCode) + length
		if len(normalized) != expected {
			return phoneCheck{
				Severity:   domain.SeverityError,
				Normalized: normalized,
				Reason:     fmt.Sprintf("Expected %d characters with %s, got %d", expected, countryCode, len(normalized)),
			}
		}
		if !strings.HasPrefix(normalized, countryCode) {
			return phoneCheck{
				Severity:   domain.SeverityError,
				Normalized: normalized,
				Reason:     fmt.Sprintf("Expected country code %s", countryCode),
			}
		}
		return phoneCheck{Valid: true, Normalized: normalized}
	}

	if len(normalized) == length {
		return phoneCheck{
			Severity:   domain.SeverityWarn,
			Normalized: normalized,
			Reason:     fmt.Sprintf("Missing country code %s", countryCode),
			Suggestion: countryCode + normalized,
		}
	}

	return phoneCheck{
		Severity:   domain.SeverityError,
		Normalized: normalized,
		Reason:     fmt.Sprintf("Expected %d digits, got %d", length, len(normalized)),
	}
}
