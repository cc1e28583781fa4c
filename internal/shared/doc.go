// Package shared holds helpers used across packages that do not belong to a
// single layer. testutil provides a buffered slog handler for asserting on
// log output in tests.
package shared
