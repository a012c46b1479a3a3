package document

import (
	"math"
	"strings"
)

const nbsp = "\u00a0"

// Normalize applies the character replacements shared by the generate and
// apply passes: non-breaking spaces always become regular spaces, and tabs
// become tabWidth spaces when tabWidth is positive.
func Normalize(s string, tabWidth int) string {
	s = strings.ReplaceAll(s, nbsp, " ")
	if tabWidth > 0 {
		s = strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
	}
	return s
}

// EstimateTokens approximates the token count of text using the common
// one-token-per-four-characters heuristic. Halves round to even.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(math.RoundToEven(float64(len(text)) / 4.0))
}
