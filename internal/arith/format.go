package arith

import (
	"math"
	"strconv"
	"strings"
)

const (
	maxPlainMagnitude = 999999999
	minPlainMagnitude = 0.000001
	exponentDigits    = 6

	maxShortestMagnitude = 1e21
)

// FormatNumber renders a numeric string for display. Non-numeric input is
// returned unchanged; very large or very small magnitudes use exponential
// notation with six fractional digits.
func FormatNumber(s string) string {
	text := strings.TrimSpace(s)
	if !isDecimalText(text) {
		return s
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) {
		return s
	}

	return FormatValue(v)
}

// isDecimalText reports whether s is written with decimal digits and an
// optional exponent, or is a signed "Infinity". strconv also accepts forms
// such as "inf", "nan" and hex floats, which are not numbers here.
func isDecimalText(s string) bool {
	unsigned := strings.TrimLeft(s, "+-")
	if len(s)-len(unsigned) > 1 {
		return false
	}
	if unsigned == "Infinity" {
		return true
	}

	digits := false
	for _, r := range unsigned {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-':
		default:
			return false
		}
	}
	return digits
}

// FormatValue renders v using the same rules as FormatNumber.
func FormatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}

	abs := math.Abs(v)
	if abs > maxPlainMagnitude || (abs < minPlainMagnitude && v != 0) {
		return trimExponent(strconv.FormatFloat(v, 'e', exponentDigits, 64))
	}

	return FormatOperand(v)
}

// FormatOperand returns the canonical operand text for v: the shortest
// fixed-point representation, with negative zero collapsed to "0".
func FormatOperand(v float64) string {
	if v == 0 {
		return "0"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatShortest renders v in its shortest round-trip form, switching to
// exponential notation at magnitudes of 1e21 and above or below 1e-6
// ("1e+21", "1.5e-7"). Expressions in the history use it.
func FormatShortest(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return FormatValue(v)
	}

	if abs := math.Abs(v); abs < maxShortestMagnitude && (abs >= minPlainMagnitude || v == 0) {
		return FormatOperand(v)
	}

	return trimExponent(strconv.FormatFloat(v, 'e', -1, 64))
}

// trimExponent drops zero padding from the exponent ("e+07" -> "e+7").
func trimExponent(s string) string {
	idx := strings.IndexByte(s, 'e')
	if idx == -1 || idx+2 >= len(s) {
		return s
	}

	mantissa, sign, digits := s[:idx], s[idx+1], strings.TrimLeft(s[idx+2:], "0")
	if digits == "" {
		digits = "0"
	}

	return mantissa + "e" + string(sign) + digits
}
