package domain

// IssueKind identifies the data-quality rule that produced an issue
type IssueKind string

const (
	IssueEmailInvalid     IssueKind = "email_invalid"
	IssuePhoneInvalid     IssueKind = "phone_invalid"
	IssueDuplicate        IssueKind = "duplicate"
	IssueDateFormat       IssueKind = "date_format"
	IssueCurrency         IssueKind = "currency"
	IssuePriceZero        IssueKind = "price_zero"
	IssuePriceNegative    IssueKind = "price_negative"
	IssueIDMissing        IssueKind = "id_missing"
	IssueNIFCIFBasic      IssueKind = "nif_cif_basic"
	IssueMissingValue     IssueKind = "missing_value"
	IssueInconsistentCase IssueKind = "inconsistent_case"
	IssueWhitespace       IssueKind = "whitespace"
	IssueSpecialChars     IssueKind = "special_chars"
)

// AllIssueKinds lists every kind in declaration order
var AllIssueKinds = []IssueKind{
	IssueEmailInvalid, IssuePhoneInvalid, IssueDuplicate, IssueDateFormat,
	IssueCurrency, IssuePriceZero, IssuePriceNegative, IssueIDMissing,
	IssueNIFCIFBasic, IssueMissingValue, IssueInconsistentCase,
	IssueWhitespace, IssueSpecialChars,
}

// IsValid reports whether k is one of the known kinds
func (k IssueKind) IsValid() bool {
	for _, known := range AllIssueKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Severity is ordered info < warn < error
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Rank returns the position of the severity in its total order
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarn:
		return 1
	case SeverityError:
		return 2
	default:
		return -1
	}
}

// InferredType is the semantic type assigned to a column
type InferredType string

const (
	TypeEmail    InferredType = "email"
	TypePhone    InferredType = "phone"
	TypePhoneES  InferredType = "phone_es"
	TypeDate     InferredType = "date"
	TypeNumeric  InferredType = "numeric"
	TypeCurrency InferredType = "currency"
	TypeText     InferredType = "text"
	TypeID       InferredType = "id"
	TypeBoolean  InferredType = "boolean"
)

// FileType is the declared format of an input source
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// RuleKind selects the behaviour of a per-request rule override
type RuleKind string

const (
	RuleRegex      RuleKind = "regex"
	RuleNumeric    RuleKind = "numeric"
	RuleDate       RuleKind = "date"
	RuleMap        RuleKind = "map"
	RulePhoneES    RuleKind = "phone_es"
	RuleEmail      RuleKind = "email"
	RuleEnum       RuleKind = "enum"
	RuleRequired   RuleKind = "required"
	RuleUnique     RuleKind = "unique"
	RuleIDNotEmpty RuleKind = "id_not_empty"
	RulePriceGT0   RuleKind = "price_gt0"
)

// RuleSpec is a per-request rule override
type RuleSpec struct {
	ID   string         `json:"id" yaml:"id" validate:"required"`
	Name string         `json:"name" yaml:"name"`
	Kind RuleKind       `json:"kind" yaml:"kind" validate:"required,oneof=regex numeric date map phone_es email enum required unique id_not_empty price_gt0"`
	Spec map[string]any `json:"spec,omitempty" yaml:"spec,omitempty"`
}

// InputSpec describes where a dataset comes from and how to decode it.
// Exactly one of FilePath and ContentB64 must be set.
type InputSpec struct {
	FilePath   string            `json:"file_path,omitempty" validate:"required_without=ContentB64,excluded_with=ContentB64"`
	ContentB64 string            `json:"content_b64,omitempty" validate:"required_without=FilePath,excluded_with=FilePath"`
	FileType   FileType          `json:"file_type" validate:"required,oneof=csv xlsx"`
	Delimiter  string            `json:"delimiter,omitempty" validate:"omitempty,len=1"`
	Encoding   string            `json:"encoding,omitempty"`
	Header     *bool             `json:"header,omitempty"`
	ColumnsMap map[string]string `json:"columns_map,omitempty"`
	Rules      []RuleSpec        `json:"rules,omitempty" validate:"omitempty,dive"`
}

// HasHeader reports whether the first row holds column names (default true)
func (s InputSpec) HasHeader() bool {
	return s.Header == nil || *s.Header
}

// Issue is a single detected defect. Row is nil for column or table wide
// issues and Col is nil for row wide issues.
type Issue struct {
	Kind     IssueKind      `json:"kind"`
	Severity Severity       `json:"severity"`
	Row      *int           `json:"row"`
	Col      *string        `json:"col"`
	Details  map[string]any `json:"details"`
}

// ColumnInfo is the inference report for one column
type ColumnInfo struct {
	Name         string       `json:"name"`
	InferredType InferredType `json:"inferred_type"`
	Confidence   float64      `json:"confidence"`
	Sample       []string     `json:"sample"`
	MissingPct   float64      `json:"missing_pct"`
	UniqueCount  int          `json:"unique_count"`
}

// KPIs are table level indicators computed during inference
type KPIs struct {
	Rows                int     `json:"rows"`
	Cols                int     `json:"cols"`
	EmptiesPct          float64 `json:"empties_pct"`
	DuplicatesSuspected int     `json:"duplicates_suspected"`
	PriceZeros          *int    `json:"price_zeros,omitempty"`
}

// InferResult is the response of the infer operation
type InferResult struct {
	Columns  []ColumnInfo `json:"columns"`
	KPIs     KPIs         `json:"kpis"`
	Warnings []string     `json:"warnings"`
}

// IssueSummary aggregates an issue list
type IssueSummary struct {
	TotalIssues  int            `json:"total_issues"`
	ByKind       map[string]int `json:"by_kind"`
	BySeverity   map[string]int `json:"by_severity"`
	AffectedRows int            `json:"affected_rows"`
	TotalRows    int            `json:"total_rows"`
}

// DetectIssuesResponse is the response of the detect_issues operation
type DetectIssuesResponse struct {
	Issues  []Issue      `json:"issues"`
	Summary IssueSummary `json:"summary"`
}

// FixPreview is a proposed cell correction. After is nil when the issue
// needs manual review.
type FixPreview struct {
	Row         *int    `json:"row"`
	Col         *string `json:"col"`
	Before      *string `json:"before"`
	After       *string `json:"after"`
	RuleID      *string `json:"rule_id"`
	Explanation string  `json:"explanation"`
}

// PreviewFixesResponse is the response of the preview_fixes operation
type PreviewFixesResponse struct {
	Preview []FixPreview `json:"preview"`
	Note    *string      `json:"note"`
}

// FixSummary reports row and issue counts for an apply run
type FixSummary struct {
	TotalIssues     int `json:"total_issues"`
	RowsAffected    int `json:"rows_affected"`
	OriginalRows    int `json:"original_rows"`
	CleanRows       int `json:"clean_rows"`
	CellsHarmonized int `json:"cells_harmonized"`
}

// FixResult is the response of the apply_fixes operation
type FixResult struct {
	Applied       int        `json:"applied"`
	Rejected      int        `json:"rejected"`
	FileCleanPath string     `json:"file_clean_path"`
	Summary       FixSummary `json:"summary"`
}
