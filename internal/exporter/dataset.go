package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"datasteward/internal/dataprocessing"
	"datasteward/pkg/contracts/domain"
)

// DatasetExporter saves corrected datasets in the format they were read in
type DatasetExporter struct {
	csv    *CSVWriter
	xlsx   *XLSXWriter
	logger *slog.Logger
}

// NewDatasetExporter creates an exporter for both supported formats
func NewDatasetExporter(logger *slog.Logger) *DatasetExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &DatasetExporter{
		csv:    NewCSVWriter(logger),
		xlsx:   NewXLSXWriter(logger),
		logger: logger,
	}
}

// Save writes ds to path and returns the absolute path written
func (e *DatasetExporter) Save(ds *dataprocessing.Dataset, path string, fileType domain.FileType) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}

	switch fileType {
	case domain.FileTypeCSV:
		err = e.csv.WriteCSV(abs, WriteOptions{
			Headers: ds.Columns(),
			Records: ds.Records(),
		})
	case domain.FileTypeXLSX:
		err = e.xlsx.WriteXLSX(abs, ds)
	default:
		return "", fmt.Errorf("unsupported file type: %s", fileType)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save dataset: %w", err)
	}

	e.logger.Info("Dataset saved",
		slog.String("path", abs),
		slog.String("file_type", string(fileType)),
		slog.Int("rows", ds.Len()))

	return abs, nil
}
