package quality

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"datasteward/internal/dataprocessing"
	apperrors "datasteward/internal/errors"
	"datasteward/pkg/contracts/domain"
)

// routedDetector binds a detector to a column named by a rule
type routedDetector struct {
	column   string
	detector Detector
}

// compileRules folds per-request rules into a settings copy and a list of
// explicitly routed detectors.
func compileRules(base Settings, rules []domain.RuleSpec) (Settings, []routedDetector, error) {
	settings := base.clone()
	var routes []routedDetector

	for _, rule := range rules {
		spec := rule.Spec
		column := strings.ToLower(strings.TrimSpace(specString(spec, "column")))
		needColumn := func() error {
			if column == "" {
				return ruleError(rule, "spec.column is required")
			}
			return nil
		}

		switch rule.Kind {
		case domain.RulePhoneES:
			if cc := specString(spec, "country_code"); cc != "" {
				if !strings.HasPrefix(cc, "+") {
					cc = "+" + cc
				}
				settings.CountryCode = cc
			}
			if n, ok := specInt(spec, "length"); ok {
				if n <= 0 {
					return settings, nil, ruleError(rule, "spec.length must be positive")
				}
				settings.PhoneLength = n
			}
			if column != "" {
				routes = append(routes, routedDetector{column, nil})
			}

		case domain.RuleUnique:
			if cols := specStrings(spec, "columns"); len(cols) > 0 {
				for i := range cols {
					cols[i] = strings.ToLower(cols[i])
				}
				settings.DupKeyColumns = cols
			}
			if th, ok := specFloat(spec, "threshold"); ok {
				if th <= 0 || th > 1 {
					return settings, nil, ruleError(rule, "spec.threshold must be in (0, 1]")
				}
				settings.DupThreshold = th
			}

		case domain.RuleEmail:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			routes = append(routes, routedDetector{column, EmailDetector{}})

		case domain.RuleDate:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			routes = append(routes, routedDetector{column, DateDetector{}})

		case domain.RulePriceGT0, domain.RuleNumeric:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			routes = append(routes, routedDetector{column, PriceDetector{}})

		case domain.RuleIDNotEmpty:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			routes = append(routes, routedDetector{column, IDDetector{}})

		case domain.RuleRequired:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			routes = append(routes, routedDetector{column, RequiredDetector{RuleID: rule.ID}})

		case domain.RuleRegex:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			pattern := specString(spec, "pattern")
			if pattern == "" {
				return settings, nil, ruleError(rule, "spec.pattern is required")
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return settings, nil, ruleError(rule, fmt.Sprintf("invalid pattern: %v", err))
			}
			kind := domain.IssueSpecialChars
			if k := specString(spec, "issue_kind"); k != "" {
				kind = domain.IssueKind(k)
				if !kind.IsValid() {
					return settings, nil, ruleError(rule, fmt.Sprintf("unknown issue_kind %q", k))
				}
			}
			routes = append(routes, routedDetector{column, PatternDetector{RuleID: rule.ID, Pattern: re, Kind: kind}})

		case domain.RuleEnum:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			values := specStrings(spec, "values")
			if len(values) == 0 {
				return settings, nil, ruleError(rule, "spec.values is required")
			}
			routes = append(routes, routedDetector{column, EnumDetector{RuleID: rule.ID, Values: values}})

		case domain.RuleMap:
			if err := needColumn(); err != nil {
				return settings, nil, err
			}
			routes = append(routes, routedDetector{column, MappingDetector{
				RuleID:  rule.ID,
				Mapping: specMapping(spec, "mapping"),
				Options: TextOptions{
					Lowercase:    specBool(spec, "lowercase"),
					StripAccents: specBool(spec, "strip_accents"),
				},
			}})

		default:
			return settings, nil, ruleError(rule, fmt.Sprintf("unsupported rule kind %q", rule.Kind))
		}
	}

	// Phone routes are bound once the final country settings are known
	for i := range routes {
		if routes[i].detector == nil {
			routes[i].detector = PhoneDetector{CountryCode: settings.CountryCode, Length: settings.PhoneLength}
		}
	}

	return settings, routes, nil
}

func ruleError(rule domain.RuleSpec, msg string) error {
	return apperrors.NewAppValidationError(fmt.Sprintf("rule %s: %s", rule.ID, msg)).
		WithContext("rule_id", rule.ID).
		WithContext("kind", string(rule.Kind))
}

// RequiredDetector flags blank cells
type RequiredDetector struct {
	RuleID string
}

func (RequiredDetector) Name() string { return "required" }

func (d RequiredDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	cells, ok := ds.Column(column)
	if !ok {
		return nil
	}
	var issues []domain.Issue
	for row, c := range cells {
		if !c.IsBlank() {
			continue
		}
		issues = append(issues, cellIssue(domain.IssueMissingValue, domain.SeverityError, row, column, map[string]any{
			"value":   c.String(),
			"reason":  "Required field is empty",
			"rule_id": d.RuleID,
		}))
	}
	return issues
}

// PatternDetector flags values not matching a regular expression
type PatternDetector struct {
	RuleID  string
	Pattern *regexp.Regexp
	Kind    domain.IssueKind
}

func (PatternDetector) Name() string { return "regex" }

func (d PatternDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	var issues []domain.Issue
	eachValue(ds, column, func(row int, value string) {
		if d.Pattern.MatchString(value) {
			return
		}
		issues = append(issues, cellIssue(d.Kind, domain.SeverityWarn, row, column, map[string]any{
			"value":   value,
			"pattern": d.Pattern.String(),
			"reason":  "Value does not match pattern",
			"rule_id": d.RuleID,
		}))
	})
	return issues
}

// EnumDetector flags values outside an allowed set. A value that matches an
// allowed value except for case is reported with the canonical spelling.
type EnumDetector struct {
	RuleID string
	Values []string
}

func (EnumDetector) Name() string { return "enum" }

func (d EnumDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	exact := make(map[string]bool, len(d.Values))
	folded := make(map[string]string, len(d.Values))
	for _, v := range d.Values {
		exact[v] = true
		key := strings.ToLower(v)
		if _, dup := folded[key]; !dup {
			folded[key] = v
		}
	}

	var issues []domain.Issue
	eachValue(ds, column, func(row int, value string) {
		if exact[value] {
			return
		}
		if canonical, ok := folded[strings.ToLower(value)]; ok {
			issues = append(issues, cellIssue(domain.IssueInconsistentCase, domain.SeverityWarn, row, column, map[string]any{
				"value":      value,
				"suggestion": canonical,
				"reason":     fmt.Sprintf("Expected %q", canonical),
				"rule_id":    d.RuleID,
			}))
			return
		}
		issues = append(issues, cellIssue(domain.IssueSpecialChars, domain.SeverityWarn, row, column, map[string]any{
			"value":   value,
			"allowed": d.Values,
			"reason":  "Value is not in the allowed set",
			"rule_id": d.RuleID,
		}))
	})
	return issues
}

// MappingDetector normalizes text and proposes mapped replacements
type MappingDetector struct {
	RuleID  string
	Mapping map[string]string
	Options TextOptions
}

func (MappingDetector) Name() string { return "map" }

func (d MappingDetector) Detect(ds *dataprocessing.Dataset, column string) []domain.Issue {
	lookup := make(map[string]string, len(d.Mapping))
	for from, to := range d.Mapping {
		lookup[NormalizeText(from, d.Options)] = to
	}

	cells, ok := ds.Column(column)
	if !ok {
		return nil
	}
	var issues []domain.Issue
	for row, c := range cells {
		if c.IsBlank() {
			continue
		}
		raw := c.String()
		normalized := NormalizeText(raw, d.Options)
		if target, ok := lookup[normalized]; ok && target != raw {
			issues = append(issues, cellIssue(domain.IssueInconsistentCase, domain.SeverityWarn, row, column, map[string]any{
				"value":      raw,
				"suggestion": target,
				"reason":     fmt.Sprintf("Mapped value %q", target),
				"rule_id":    d.RuleID,
			}))
			continue
		}
		if trimmed := strings.TrimSpace(raw); trimmed != raw {
			issues = append(issues, cellIssue(domain.IssueWhitespace, domain.SeverityInfo, row, column, map[string]any{
				"value":      raw,
				"suggestion": trimmed,
				"reason":     "Leading or trailing whitespace",
				"rule_id":    d.RuleID,
			}))
		}
	}
	return issues
}

func specString(spec map[string]any, key string) string {
	v, ok := spec[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func specFloat(spec map[string]any, key string) (float64, bool) {
	switch t := spec[key].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func specInt(spec map[string]any, key string) (int, bool) {
	f, ok := specFloat(spec, key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func specBool(spec map[string]any, key string) bool {
	switch t := spec[key].(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}

// specStrings accepts a list or a comma separated string
func specStrings(spec map[string]any, key string) []string {
	switch t := spec[key].(type) {
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			out = append(out, strings.TrimSpace(fmt.Sprint(v)))
		}
		return out
	}
	return nil
}

// specMapping accepts JSON objects and YAML maps
func specMapping(spec map[string]any, key string) map[string]string {
	out := make(map[string]string)
	switch t := spec[key].(type) {
	case map[string]any:
		for k, v := range t {
			out[k] = fmt.Sprint(v)
		}
	case map[string]string:
		for k, v := range t {
			out[k] = v
		}
	case map[any]any:
		for k, v := range t {
			out[fmt.Sprint(k)] = fmt.Sprint(v)
		}
	}
	return out
}
