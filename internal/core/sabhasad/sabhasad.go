// Package sabhasad renders and parses sequential membership IDs of the form
// PREFIX-NNNN.
package sabhasad

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPrefix is used when no prefix is configured
const DefaultPrefix = "SAB"

// Width is the minimum number of digits in the numeric suffix
const Width = 4

// Format renders n as an ID with prefix, e.g. SAB-0007
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s-%0*d", prefix, Width, n)
}

// Parse extracts the numeric suffix of id. It fails when id does not carry
// prefix or the suffix is not a positive integer.
func Parse(prefix, id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Next returns the ID following last. An empty or unparsable last yields
// the first ID.
func Next(prefix, last string) string {
	n, ok := Parse(prefix, last)
	if !ok {
		return Format(prefix, 1)
	}
	return Format(prefix, n+1)
}
