package arith

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalPlaces(t *testing.T) {
	testCases := []struct {
		name     string
		value    float64
		expected int
	}{
		{name: "integer", value: 10, expected: 0},
		{name: "zero", value: 0, expected: 0},
		{name: "one place", value: 0.1, expected: 1},
		{name: "two places", value: 1.25, expected: 2},
		{name: "negative", value: -3.125, expected: 3},
		{name: "tiny value", value: 0.0000001, expected: 7},
		{name: "infinity", value: math.Inf(1), expected: 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DecimalPlaces(tc.value))
		})
	}
}

func TestScaleToInteger(t *testing.T) {
	assert.Equal(t, float64(1), ScaleToInteger(0.1, 10))
	assert.Equal(t, float64(123), ScaleToInteger(1.23, 100))
	assert.Equal(t, float64(3), ScaleToInteger(2.5, 1))
}

func TestPreciseOperations(t *testing.T) {
	testCases := []struct {
		name     string
		fn       func(a, b float64) float64
		a, b     float64
		expected float64
	}{
		{name: "add avoids float drift", fn: PreciseAdd, a: 0.1, b: 0.2, expected: 0.3},
		{name: "add mixed precision", fn: PreciseAdd, a: 1.005, b: 2.1, expected: 3.105},
		{name: "subtract", fn: PreciseSubtract, a: 0.3, b: 0.1, expected: 0.2},
		{name: "subtract to negative", fn: PreciseSubtract, a: 1, b: 2.5, expected: -1.5},
		{name: "multiply decimals", fn: PreciseMultiply, a: 0.1, b: 0.2, expected: 0.02},
		{name: "multiply mixed", fn: PreciseMultiply, a: 1.5, b: 2, expected: 3},
		{name: "divide integers", fn: PreciseDivide, a: 6, b: 3, expected: 2},
		{name: "divide decimals", fn: PreciseDivide, a: 0.3, b: 0.1, expected: 3},
		{name: "add beyond safe range falls back", fn: PreciseAdd, a: 1e300, b: 1, expected: 1e300},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.fn(tc.a, tc.b))
		})
	}
}

func TestPreciseAddMatchesFloatWithinRounding(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		a := randomDecimal(t, rng)
		b := randomDecimal(t, rng)

		got := RoundResult(PreciseAdd(a, b))
		want := RoundResult(a + b)
		assert.InDelta(t, want, got, 1e-9, "a=%v b=%v", a, b)
	}
}

func TestRoundResult(t *testing.T) {
	assert.Equal(t, 0.3, RoundResult(0.1+0.2))
	assert.Equal(t, float64(1), RoundResult(1.0000000004))
	assert.Equal(t, 0.333333333, RoundResult(1.0/3.0))
	assert.True(t, math.IsInf(RoundResult(math.Inf(1)), 1))
}

func TestToRadians(t *testing.T) {
	assert.InDelta(t, math.Pi, ToRadians(180), 1e-15)
	assert.InDelta(t, 0.5, math.Sin(ToRadians(30)), 1e-12)
}

func randomDecimal(t *testing.T, rng *rand.Rand) float64 {
	t.Helper()

	places := rng.Intn(7)
	whole := rng.Intn(2000000) - 1000000
	frac := rng.Intn(int(math.Pow(10, float64(places))) + 1)

	text := strconv.Itoa(whole)
	if places > 0 {
		text = fmt.Sprintf("%s.%0*d", text, places, frac%int(math.Pow(10, float64(places))))
	}

	v, err := strconv.ParseFloat(text, 64)
	require.NoError(t, err)
	return v
}
