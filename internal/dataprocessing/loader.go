package dataprocessing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "datasteward/internal/errors"
	"datasteward/internal/validation"
	"datasteward/pkg/contracts/domain"
)

// Tokens read as missing values in delimited text
var naTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-NaN": true, "-nan": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

var encodingAliases = map[string]string{
	"utf8":      "utf-8",
	"utf-8-sig": "utf-8",
	"latin-1":   "latin1",
	"latin_1":   "latin1",
	"cp-1252":   "windows-1252",
	"ansi":      "windows-1252",
}

// Loader decodes an InputSpec into a Dataset. Every failure is reported as a
// parsing AppError so callers can surface it as a client error.
type Loader struct {
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewLoader creates a dataset loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		validator: validation.NewFileValidator(logger),
		logger:    logger.With(slog.String("component", "loader")),
	}
}

// Load reads the source described by spec, applies the rename map and
// normalizes column names.
func (l *Loader) Load(ctx context.Context, spec domain.InputSpec) (*Dataset, error) {
	hasPath := spec.FilePath != ""
	hasBlob := spec.ContentB64 != ""
	if hasPath == hasBlob {
		return nil, apperrors.NewParsingError("exactly one of file_path or content_b64 must be provided", nil)
	}

	raw, err := l.readSource(spec)
	if err != nil {
		return nil, err
	}

	var header []string
	var rows [][]Cell
	switch spec.FileType {
	case domain.FileTypeCSV:
		header, rows, err = l.parseDelimited(raw, spec)
	case domain.FileTypeXLSX:
		header, rows, err = l.parseWorkbook(raw, spec)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported file type: %s", spec.FileType), nil)
	}
	if err != nil {
		return nil, err
	}

	columns := normalizeColumns(header, spec.ColumnsMap)
	ds, err := NewDataset(columns, rows)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to load dataframe", err)
	}

	l.logger.DebugContext(ctx, "dataset loaded",
		slog.String("file_type", string(spec.FileType)),
		slog.Int("rows", ds.Len()),
		slog.Int("cols", ds.Width()))

	return ds, nil
}

func (l *Loader) readSource(spec domain.InputSpec) ([]byte, error) {
	if spec.ContentB64 != "" {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(spec.ContentB64))
		if err != nil {
			return nil, apperrors.NewParsingError("failed to decode base64 content", err)
		}
		return data, nil
	}

	var verr error
	if spec.FileType == domain.FileTypeXLSX {
		verr = l.validator.ValidateSpreadsheet(spec.FilePath)
	} else {
		verr = l.validator.ValidateDelimited(spec.FilePath)
	}
	if verr != nil {
		return nil, apperrors.NewParsingError(verr.Error(), nil).WithContext("file_path", spec.FilePath)
	}

	data, err := os.ReadFile(spec.FilePath)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read file", err).WithContext("file_path", spec.FilePath)
	}
	return data, nil
}

func (l *Loader) parseDelimited(raw []byte, spec domain.InputSpec) ([]string, [][]Cell, error) {
	enc, err := lookupEncoding(spec.Encoding)
	if err != nil {
		return nil, nil, apperrors.NewParsingError(err.Error(), nil)
	}

	var src io.Reader = bytes.NewReader(raw)
	src = transform.NewReader(src, unicode.BOMOverride(enc.NewDecoder()))

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if spec.Delimiter != "" {
		reader.Comma = []rune(spec.Delimiter)[0]
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to parse delimited content", err)
	}
	if len(records) == 0 {
		return nil, nil, apperrors.NewParsingError("no columns to parse from file", nil)
	}

	toCell := func(s string) Cell {
		if naTokens[s] {
			return NullCell()
		}
		return TextCell(s)
	}
	header, rows := splitHeader(records, spec.HasHeader(), toCell)
	return header, rows, nil
}

func (l *Loader) parseWorkbook(raw []byte, spec domain.InputSpec) ([]string, [][]Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperrors.NewParsingError("workbook has no sheets", nil)
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheets[0])
	}
	if len(records) == 0 {
		return nil, nil, apperrors.NewParsingError("no columns to parse from file", nil)
	}

	l.logger.Debug("workbook sheet selected",
		slog.String("sheet", sheets[0]),
		slog.Int("sheets", len(sheets)))

	toCell := func(s string) Cell {
		if s == "" {
			return NullCell()
		}
		if n, ok := ParseNumber(s); ok {
			return Cell{Kind: CellNumber, Text: s, Num: n}
		}
		return TextCell(s)
	}
	header, rows := splitHeader(records, spec.HasHeader(), toCell)
	return header, rows, nil
}

func splitHeader(records [][]string, hasHeader bool, toCell func(string) Cell) ([]string, [][]Cell) {
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	var header []string
	body := records
	if hasHeader {
		header = make([]string, len(records[0]))
		copy(header, records[0])
		for i, name := range header {
			if strings.TrimSpace(name) == "" {
				header[i] = "Unnamed: " + strconv.Itoa(i)
			}
		}
		body = records[1:]
	} else {
		header = make([]string, width)
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
	}

	rows := make([][]Cell, 0, len(body))
	for _, rec := range body {
		row := make([]Cell, len(rec))
		for j, v := range rec {
			row[j] = toCell(v)
		}
		rows = append(rows, row)
	}
	return header, rows
}

// normalizeColumns applies the rename map and then trims and lower-cases names
func normalizeColumns(header []string, rename map[string]string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if mapped, ok := rename[name]; ok {
			name = mapped
		}
		out[i] = strings.ToLower(strings.TrimSpace(name))
	}
	return out
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" {
		return unicode.UTF8, nil
	}
	if alias, ok := encodingAliases[label]; ok {
		label = alias
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
	return enc, nil
}

// IsParseError reports whether err came from loading a source
func IsParseError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeParsing
}
