package graph

import (
	"math"
	"strconv"
	"strings"
)

// SafeLimit coerces a caller-supplied limit into a positive integer. Missing,
// non-integer, zero or negative input yields def; it never panics.
func SafeLimit(v any, def int) int {
	switch val := v.(type) {
	case int:
		return positiveOr(val, def)
	case int32:
		return positiveOr(int(val), def)
	case int64:
		if val > math.MaxInt32 {
			return def
		}
		return positiveOr(int(val), def)
	case float64:
		if val != math.Trunc(val) || val <= 0 || val > math.MaxInt32 {
			return def
		}
		return positiveOr(int(val), def)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return def
		}
		return positiveOr(n, def)
	default:
		return def
	}
}

func positiveOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// limitParam boxes a coerced limit as int64 so the server binds an integer
func limitParam(limit, def int) int64 {
	return int64(SafeLimit(limit, def))
}
