// Package dataprocessing turns an InputSpec into an in-memory Dataset.
//
// # Sources
//
// A spec names either a file on disk or base64 encoded content. Delimited
// text is decoded with the requested encoding (utf-8, latin-1, windows-1252
// and any other WHATWG label) and read with encoding/csv. Workbooks are read
// from their first sheet with excelize.
//
// # Cells
//
// Cells are null, text or number. Delimited input keeps every value as text
// except the pandas style NA tokens, which become null. Workbook cells that
// hold numbers stay numeric.
//
// # Columns
//
// The rename map is applied first, then names are trimmed and lower-cased.
// Headerless input is named "0".."n-1". Duplicate names after normalization
// are a parse error.
//
// Every load failure is an AppError of type PARSING so the HTTP layer can
// answer 422.
package dataprocessing
