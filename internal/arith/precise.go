// Package arith provides pure decimal-safe arithmetic helpers for the calculator.
//
// Operands are scaled to integers before they are combined so that short decimal
// literals typed by a user (0.1, 0.2) do not accumulate binary floating-point
// drift. The helpers are only exact while the scaled values stay within the
// range of exactly representable integers.
package arith

import (
	"math"
	"strconv"
	"strings"
)

// maxExactInteger is the largest integer a float64 holds without loss (2^53).
const maxExactInteger = 1 << 53

// divideHeadroom is the number of extra decimal digits applied before dividing.
const divideHeadroom = 6

// DecimalPlaces counts the digits after the decimal separator in v's shortest fixed-point form.
func DecimalPlaces(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	idx := strings.IndexByte(s, '.')
	if idx == -1 {
		return 0
	}

	return len(s) - idx - 1
}

// ScaleToInteger rounds v*scale half-up to the nearest integer.
func ScaleToInteger(v, scale float64) float64 {
	return roundHalfUp(v * scale)
}

// PreciseAdd returns a+b computed on integers scaled by the larger decimal precision.
func PreciseAdd(a, b float64) float64 {
	scale := pow10(max(DecimalPlaces(a), DecimalPlaces(b)))
	ai, bi := ScaleToInteger(a, scale), ScaleToInteger(b, scale)
	if !exact(ai, bi, ai+bi) {
		return a + b
	}

	return (ai + bi) / scale
}

// PreciseSubtract returns a-b computed on integers scaled by the larger decimal precision.
func PreciseSubtract(a, b float64) float64 {
	scale := pow10(max(DecimalPlaces(a), DecimalPlaces(b)))
	ai, bi := ScaleToInteger(a, scale), ScaleToInteger(b, scale)
	if !exact(ai, bi, ai-bi) {
		return a - b
	}

	return (ai - bi) / scale
}

// PreciseMultiply scales each operand by its own precision and divides the
// integer product by the product of both scales.
func PreciseMultiply(a, b float64) float64 {
	scaleA := pow10(DecimalPlaces(a))
	scaleB := pow10(DecimalPlaces(b))
	ai, bi := ScaleToInteger(a, scaleA), ScaleToInteger(b, scaleB)
	if !exact(ai, bi, ai*bi) {
		return a * b
	}

	return (ai * bi) / (scaleA * scaleB)
}

// PreciseDivide divides a by b after scaling both by the larger precision plus
// six digits of headroom. The quotient itself is still a float division, so the
// result is an approximation suited to calculator-sized inputs. b must not be zero.
func PreciseDivide(a, b float64) float64 {
	scale := pow10(max(DecimalPlaces(a), DecimalPlaces(b)) + divideHeadroom)
	ai, bi := ScaleToInteger(a, scale), ScaleToInteger(b, scale)
	if !exact(ai, bi) || bi == 0 {
		return a / b
	}

	return ai / bi
}

// RoundResult rounds v to nine decimal places.
func RoundResult(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= maxExactInteger {
		return v
	}

	return roundHalfUp(v*1e9) / 1e9
}

// ToRadians converts degrees to radians.
func ToRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func pow10(n int) float64 {
	return math.Pow(10, float64(n))
}

func exact(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.Abs(v) > maxExactInteger {
			return false
		}
	}
	return true
}
