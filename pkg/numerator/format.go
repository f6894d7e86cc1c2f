// Package numerator formats and increments human-readable document numbers.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultPadWidth is used when a zero width is requested.
const DefaultPadWidth = 3

// Format creates the final number string: prefix + zero padded value.
// Values wider than padWidth are not truncated.
func Format(prefix string, padWidth int, num int64) string {
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}
	return fmt.Sprintf("%s%0*d", prefix, padWidth, num)
}

// ParseNumber extracts the numeric part of a formatted number by dropping
// every non-digit character. Returns 0 when there are no digits.
func ParseNumber(formatted string) int64 {
	var b strings.Builder
	for _, r := range formatted {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Next returns the number following last. An empty last yields the first
// number of the sequence.
//
//	Next("ENC", 3, "ENC007") == "ENC008"
//	Next("ENC", 3, "")       == "ENC001"
func Next(prefix string, padWidth int, last string) string {
	return Format(prefix, padWidth, ParseNumber(last)+1)
}
