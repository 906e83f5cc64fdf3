package arith

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "integer", input: "3", expected: "3"},
		{name: "decimal", input: "-2.5", expected: "-2.5"},
		{name: "trailing separator is normalized", input: "12.", expected: "12"},
		{name: "upper plain bound", input: "999999999", expected: "999999999"},
		{name: "large value", input: "1000000000", expected: "1.000000e+9"},
		{name: "very large value", input: "10000000000", expected: "1.000000e+10"},
		{name: "lower plain bound", input: "0.000001", expected: "0.000001"},
		{name: "tiny value", input: "0.0000001", expected: "1.000000e-7"},
		{name: "negative tiny value", input: "-0.00000012345", expected: "-1.234500e-7"},
		{name: "zero", input: "0", expected: "0"},
		{name: "not a number", input: "abc", expected: "abc"},
		{name: "empty", input: "", expected: ""},
		{name: "infinity word", input: "Infinity", expected: "Infinity"},
		{name: "negative infinity word", input: "-Infinity", expected: "-Infinity"},
		{name: "lowercase inf", input: "inf", expected: "inf"},
		{name: "spelled infinity", input: "infinity", expected: "infinity"},
		{name: "nan", input: "NaN", expected: "NaN"},
		{name: "hex float", input: "0x1p3", expected: "0x1p3"},
		{name: "double sign", input: "--2", expected: "--2"},
		{name: "exponent input", input: "2.5e3", expected: "2500"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatNumber(tc.input))
		})
	}
}

func TestFormatNumberUsesExponentialNotation(t *testing.T) {
	pattern := regexp.MustCompile(`e[+-]\d+$`)
	assert.Regexp(t, pattern, FormatNumber("10000000000"))
}

func TestFormatValueSpecials(t *testing.T) {
	assert.Equal(t, "Infinity", FormatValue(math.Inf(1)))
	assert.Equal(t, "-Infinity", FormatValue(math.Inf(-1)))
}

func TestFormatOperand(t *testing.T) {
	assert.Equal(t, "0", FormatOperand(math.Copysign(0, -1)))
	assert.Equal(t, "0.3", FormatOperand(0.3))
	assert.Equal(t, "-4", FormatOperand(-4))
	assert.Equal(t, "0.0000001", FormatOperand(0.0000001))
}

func TestFormatShortest(t *testing.T) {
	testCases := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "integer", input: 30, expected: "30"},
		{name: "large plain", input: 1e20, expected: "100000000000000000000"},
		{name: "exponent threshold", input: 1e21, expected: "1e+21"},
		{name: "negative large", input: -2.5e22, expected: "-2.5e+22"},
		{name: "lower plain bound", input: 0.000001, expected: "0.000001"},
		{name: "tiny", input: 1.5e-7, expected: "1.5e-7"},
		{name: "zero", input: 0, expected: "0"},
		{name: "negative zero", input: math.Copysign(0, -1), expected: "0"},
		{name: "infinity", input: math.Inf(1), expected: "Infinity"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatShortest(tc.input))
		})
	}
}
