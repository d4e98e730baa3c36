package menu

import (
	"math"
	"strconv"
	"strings"
)

// DefaultBuffer is used when no context analysis is available.
const DefaultBuffer = 1

// NormalizeBuffer rounds to the nearest integer and clamps at zero.
// 4.7 becomes 5 and -3 becomes 0.
func NormalizeBuffer(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}

// ParseBuffer normalizes operator input. ok is false when the text is not a
// number, in which case the caller keeps its previous value.
func ParseBuffer(text string) (buffer int, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return NormalizeBuffer(v), true
}
