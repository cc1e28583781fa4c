package quality

import (
	"math/rand"

	"datasteward/internal/dataprocessing"
)

// nonNull returns the text of every non-null cell in order
func nonNull(cells []dataprocessing.Cell) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if !c.IsNull() {
			out = append(out, c.String())
		}
	}
	return out
}

// SampleValues draws up to n values with a seeded generator so repeated calls
// over the same data return the same sample. When there are no more than n
// values they are all returned in order.
func SampleValues(values []string, n int, seed int64) []string {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= n {
		out := make([]string, len(values))
		copy(out, values)
		return out
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(values))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = values[perm[i]]
	}
	return out
}

// distinct keeps the first occurrence of each value
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
