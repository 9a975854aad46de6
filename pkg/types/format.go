// Package types defines the error taxonomy and value formatting shared by
// the deskcalc evaluator and every surface built on it.
package types

import (
	"math"
	"strconv"
)

// FormatNumber renders a value without an exponent. Integral values print
// with no fractional part, so 8/2 displays as "4" rather than "4.000000".
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
