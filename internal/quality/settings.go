package quality

// Settings holds the tunables of the engine. A Settings value is immutable
// once an Engine is built from it; per-request rules produce a modified copy.
type Settings struct {
	CountryCode      string
	PhoneLength      int
	DupThreshold     float64
	DupKeyColumns    []string
	DateOutputLayout string
	PreviewMaxRows   int
	SampleSize       int
	SampleSeed       int64
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() Settings {
	return Settings{
		CountryCode:      "+34",
		PhoneLength:      9,
		DupThreshold:     0.90,
		DupKeyColumns:    []string{"nombre", "email"},
		DateOutputLayout: "2006-01-02",
		PreviewMaxRows:   100,
		SampleSize:       50,
		SampleSeed:       42,
	}
}

// clone returns a copy that shares no slices with s
func (s Settings) clone() Settings {
	s.DupKeyColumns = append([]string(nil), s.DupKeyColumns...)
	return s
}
