package quality

import (
	"strings"
	"time"
)

// Layouts tried in order when rewriting a date; the first match wins.
var dateLayouts = []string{
	"2006-1-2",   // ISO, padding optional
	"2/1/2006",   // European slash
	"2-1-2006",   // European dash
	"2.1.2006",   // European dot
	"1/2/2006",   // US slash
	"1-2-2006",   // US dash
	"2/1/06",     // two-digit year
	"2-1-06",
	"2006/1/2",
}

// DetectDateFormat classifies a date string by separator and part lengths.
// It returns "" when the value is not recognized.
func DetectDateFormat(value string) string {
	var sep string
	switch {
	case strings.Contains(value, "/"):
		sep = "/"
	case strings.Contains(value, "-"):
		sep = "-"
	case strings.Contains(value, "."):
		sep = "."
	default:
		return ""
	}

	parts := strings.Split(value, sep)
	if len(parts) != 3 {
		return ""
	}
	p1, p2, p3 := len(parts[0]), len(parts[1]), len(parts[2])

	switch {
	case p1 == 4:
		return "YYYY" + sep + "MM" + sep + "DD"
	case p3 == 4:
		return "DD" + sep + "MM" + sep + "YYYY"
	case p3 == 2 && p1 <= 2 && p2 <= 2:
		// Day-first wins over the ambiguous month-first reading
		return "DD" + sep + "MM" + sep + "YY"
	}
	return ""
}

// NormalizeDate reparses value against the known layouts and renders it with
// outputLayout. ok is false when no layout matches.
func NormalizeDate(value, outputLayout string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if outputLayout == "" {
		outputLayout = "2006-01-02"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(outputLayout), true
		}
	}
	return "", false
}
