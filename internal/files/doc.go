// Package files resolves command line arguments into the tabular files a
// batch run should process. Arguments may name files, directories or glob
// patterns.
package files
