package quality

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TextOptions controls NormalizeText
type TextOptions struct {
	Lowercase    bool
	StripAccents bool
}

// NormalizeText trims value and optionally lower-cases it and removes
// diacritics.
func NormalizeText(value string, opts TextOptions) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return text
	}
	if opts.Lowercase {
		text = strings.ToLower(text)
	}
	if opts.StripAccents {
		text = StripAccents(text)
	}
	return text
}

// StripAccents removes combining marks after canonical decomposition, so
// "María" becomes "Maria" and "Ñ" becomes "N".
func StripAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}
