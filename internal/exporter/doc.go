// Package exporter writes corrected datasets back to disk.
//
// CSVWriter handles delimited output with an optional UTF-8 BOM for Excel
// compatibility. XLSXWriter produces a single-sheet workbook through excelize,
// keeping numeric cells numeric. DatasetExporter picks the writer that matches
// the format the source was read in.
//
// Example usage:
//
//	exp := exporter.NewDatasetExporter(logger)
//	path, err := exp.Save(ds, "tmp/clean/clean_clients.csv", domain.FileTypeCSV)
package exporter
