// Package codec implements the legacy "<counter>,<vault>" string encoding used
// by the stored amount maps. Older deployments persisted both quantities in a
// single comma-joined field; the repository still reads and writes that shape,
// while the rest of the code works with numeric stock pairs.
package codec

import (
	"strconv"
	"strings"
)

// DecodeAmount parses an encoded pair. Missing, malformed or non-numeric
// input yields (0, 0); it never fails. Negative stored values are clamped to
// zero, stock is never negative.
func DecodeAmount(s string) (counter, vault int) {
	if s == "" {
		return 0, 0
	}

	parts := strings.SplitN(s, ",", 2)

	counter = parseQuantity(parts[0])
	if len(parts) > 1 {
		vault = parseQuantity(parts[1])
	}

	return counter, vault
}

// EncodeAmount formats a stock pair as "<counter>,<vault>". Negative inputs
// are coerced to 0 so a bad caller cannot persist negative stock.
func EncodeAmount(counter, vault int) string {
	if counter < 0 {
		counter = 0
	}
	if vault < 0 {
		vault = 0
	}
	return strconv.Itoa(counter) + "," + strconv.Itoa(vault)
}

func parseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
