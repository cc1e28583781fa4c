package quality

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const shortHashLen = 8

// ShortHash returns the first eight hex characters of the SHA-256 of s
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:shortHashLen]
}

// HashKey hashes already normalized key values joined with '|'
func HashKey(values []string) string {
	return ShortHash(strings.Join(values, "|"))
}

// GenerateRowID derives a stable identifier from a row index and the prior
// content of the cell.
func GenerateRowID(row int, prior string) string {
	return "ID-" + ShortHash(strconv.Itoa(row)+":"+prior)
}
