package calculator

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func newTestCalculator() *Calculator {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func restored(t *testing.T, s Snapshot) *Calculator {
	t.Helper()

	c, err := Restore(s, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c
}

func press(t *testing.T, c *Calculator, keys ...string) {
	t.Helper()

	for _, key := range keys {
		handled, err := c.HandleKey(key)
		require.True(t, handled, "key %q not handled", key)
		require.NoError(t, err, "key %q", key)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := newTestCalculator()

	assert.Equal(t, "0", c.Current())
	assert.Empty(t, c.Previous())
	assert.Equal(t, OpNone, c.Pending())
	assert.Zero(t, c.Memory())
	assert.Empty(t, c.History())
	assert.Equal(t, ModeIdle, c.Mode())
	assert.False(t, c.AwaitingOperand())
	assert.False(t, c.InError())
	assert.Equal(t, "0", c.Display())
	assert.Equal(t, "0", c.Expression())
	assert.Empty(t, c.MemoryIndicator())
}

func TestInputDigit(t *testing.T) {
	testCases := []struct {
		name     string
		start    Snapshot
		tokens   []string
		expected string
	}{
		{name: "replaces default zero", tokens: []string{"7"}, expected: "7"},
		{name: "appends digits", tokens: []string{"1", "2", "3"}, expected: "123"},
		{name: "decimal on default zero", tokens: []string{".", "5"}, expected: "0.5"},
		{name: "second separator ignored", tokens: []string{"1", ".", "2", ".", "3"}, expected: "1.23"},
		{name: "awaiting replaces operand", start: Snapshot{Current: "42", Mode: ModeAwaitingOperand}, tokens: []string{"9"}, expected: "9"},
		{name: "awaiting separator starts fraction", start: Snapshot{Current: "42", Mode: ModeAwaitingOperand}, tokens: []string{"."}, expected: "0."},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := restored(t, tc.start)
			for _, token := range tc.tokens {
				require.NoError(t, c.InputDigit(token))
			}

			assert.Equal(t, tc.expected, c.Current())
			assert.Equal(t, ModeIdle, c.Mode())
		})
	}
}

func TestInputDigit_InvalidToken(t *testing.T) {
	c := newTestCalculator()

	err := c.InputDigit("x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "0", c.Current())
}

func TestSetOperator(t *testing.T) {
	t.Run("promotes current operand", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "1", "2", "+")

		assert.Equal(t, "12", c.Previous())
		assert.Equal(t, OpAdd, c.Pending())
		assert.True(t, c.AwaitingOperand())
		assert.Equal(t, "12 +", c.Expression())
	})

	t.Run("operator twice replaces pending", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "4", "+", "*")

		assert.Equal(t, OpMultiply, c.Pending())
		assert.Equal(t, "4", c.Previous())
		assert.Equal(t, "4 ×", c.Expression())
	})

	t.Run("chains pending operation", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "2", "+", "3", "-")

		assert.Equal(t, "5", c.Current())
		assert.Equal(t, "5", c.Previous())
		assert.Equal(t, OpSubtract, c.Pending())
		assert.Equal(t, "5 −", c.Expression())
		assert.Empty(t, c.History())
	})

	t.Run("chained division by zero enters error", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "5", "/", "0")

		err := c.SetOperator(OpAdd)
		assert.ErrorIs(t, err, ErrDivisionByZero)
		assert.True(t, c.InError())
		assert.Equal(t, OpDivide, c.Pending())
		assert.Equal(t, "0", c.Current())
		assert.Equal(t, "5", c.Previous())
		assert.Equal(t, "Error", c.Display())
		assert.Equal(t, "No se puede dividir por cero", c.Expression())
	})

	t.Run("unknown operation", func(t *testing.T) {
		c := newTestCalculator()
		assert.Error(t, c.SetOperator(Operation("modulo")))
		assert.Equal(t, OpNone, c.Pending())
	})
}

func TestEvaluateBinary(t *testing.T) {
	testCases := []struct {
		name     string
		snapshot Snapshot
		expected float64
	}{
		{name: "divide", snapshot: Snapshot{Previous: "6", Current: "3", Pending: OpDivide}, expected: 2},
		{name: "add decimals", snapshot: Snapshot{Previous: "0.1", Current: "0.2", Pending: OpAdd}, expected: 0.3},
		{name: "subtract", snapshot: Snapshot{Previous: "10", Current: "2.5", Pending: OpSubtract}, expected: 7.5},
		{name: "multiply", snapshot: Snapshot{Previous: "0.1", Current: "0.2", Pending: OpMultiply}, expected: 0.02},
		{name: "repeating quotient rounded", snapshot: Snapshot{Previous: "1", Current: "3", Pending: OpDivide}, expected: 0.333333333},
		{name: "no pending returns current", snapshot: Snapshot{Current: "8.25"}, expected: 8.25},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := restored(t, tc.snapshot)

			result, err := c.EvaluateBinary()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestEvaluateBinary_DivisionByZero(t *testing.T) {
	c := restored(t, Snapshot{Previous: "6", Current: "0", Pending: OpDivide})

	_, err := c.EvaluateBinary()
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, "6", c.Previous())
	assert.Equal(t, "0", c.Current())
	assert.Equal(t, OpDivide, c.Pending())
}

func TestApplyUnary(t *testing.T) {
	testCases := []struct {
		name       string
		operand    string
		fn         Function
		current    string
		historyRow string
	}{
		{name: "sine in degrees", operand: "30", fn: FuncSin, current: "0.5", historyRow: "sin(30) = 0.5"},
		{name: "cosine in degrees", operand: "60", fn: FuncCos, current: "0.5", historyRow: "cos(60) = 0.5"},
		{name: "tangent in degrees", operand: "45", fn: FuncTan, current: "1", historyRow: "tan(45) = 1"},
		{name: "logarithm", operand: "100", fn: FuncLog, current: "2", historyRow: "log(100) = 2"},
		{name: "square root", operand: "9", fn: FuncSqrt, current: "3", historyRow: "√(9) = 3"},
		{name: "square", operand: "1.5", fn: FuncPower, current: "2.25", historyRow: "1.5² = 2.25"},
		{name: "percent", operand: "50", fn: FuncPercent, current: "0.5", historyRow: "50% = 0.5"},
		{name: "reciprocal", operand: "4", fn: FuncReciprocal, current: "0.25", historyRow: "1/4 = 0.25"},
		{name: "negate", operand: "7", fn: FuncNegate, current: "-7", historyRow: "-(7) = -7"},
		{name: "huge operand in expression", operand: "1000000000000000000000", fn: FuncNegate, current: "-1000000000000000000000", historyRow: "-(1e+21) = -1.000000e+21"},
		{name: "tiny operand in expression", operand: "0.0000005", fn: FuncNegate, current: "-0.0000005", historyRow: "-(5e-7) = -5.000000e-7"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := restored(t, Snapshot{Current: tc.operand})

			require.NoError(t, c.ApplyUnary(tc.fn))
			assert.Equal(t, tc.current, c.Current())
			assert.True(t, c.AwaitingOperand())

			lines := c.HistoryLines()
			require.Len(t, lines, 1)
			assert.Equal(t, tc.historyRow, lines[0])
			assert.Equal(t, "09:30:00", c.History()[0].Timestamp)
		})
	}
}

func TestApplyUnary_DomainErrors(t *testing.T) {
	testCases := []struct {
		name    string
		operand string
		fn      Function
		err     error
		message string
	}{
		{name: "log of zero", operand: "0", fn: FuncLog, err: ErrNonPositiveLogarithm, message: "logaritmo requiere un número positivo"},
		{name: "log of negative", operand: "-3", fn: FuncLog, err: ErrNonPositiveLogarithm, message: "logaritmo requiere un número positivo"},
		{name: "root of negative", operand: "-9", fn: FuncSqrt, err: ErrNegativeRadicand, message: "raíz de un número negativo"},
		{name: "reciprocal of zero", operand: "0", fn: FuncReciprocal, err: ErrReciprocalOfZero, message: "recíproco de cero"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := restored(t, Snapshot{Current: tc.operand})

			err := c.ApplyUnary(tc.fn)
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, c.InError())
			assert.Equal(t, tc.operand, c.Current())
			assert.Empty(t, c.History())
			assert.Equal(t, "Error", c.Display())
			assert.Contains(t, c.Expression(), tc.message)

			domainErr, ok := AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tc.err.(*DomainError).Kind, domainErr.Kind)
		})
	}
}

func TestFinalize(t *testing.T) {
	t.Run("records history and result", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "6", "/", "3")

		require.NoError(t, c.Finalize())
		assert.Equal(t, "2", c.Current())
		assert.Empty(t, c.Previous())
		assert.Equal(t, OpNone, c.Pending())
		assert.True(t, c.AwaitingOperand())
		assert.Equal(t, []string{"6 ÷ 3 = 2"}, c.HistoryLines())
	})

	t.Run("no pending operation is a no-op", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "5")

		require.NoError(t, c.Finalize())
		assert.Equal(t, "5", c.Current())
		assert.Empty(t, c.History())
	})

	t.Run("awaiting operand is a no-op", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "5", "+")

		require.NoError(t, c.Finalize())
		assert.Equal(t, OpAdd, c.Pending())
		assert.Empty(t, c.History())
	})

	t.Run("division by zero enters error", func(t *testing.T) {
		c := newTestCalculator()
		press(t, c, "9", "/", "0")

		assert.ErrorIs(t, c.Finalize(), ErrDivisionByZero)
		assert.True(t, c.InError())
		assert.Empty(t, c.History())
		assert.Equal(t, "9", c.Previous())
		assert.Equal(t, "0", c.Current())
	})
}

func TestErrorModeLocksInput(t *testing.T) {
	c := restored(t, Snapshot{Current: "-9", Memory: 3})
	require.Error(t, c.ApplyUnary(FuncSqrt))

	assert.ErrorIs(t, c.InputDigit("1"), ErrLocked)
	assert.ErrorIs(t, c.SetOperator(OpAdd), ErrLocked)
	assert.ErrorIs(t, c.ApplyUnary(FuncNegate), ErrLocked)
	assert.ErrorIs(t, c.MemoryOp(MemoryAdd), ErrLocked)
	assert.ErrorIs(t, c.Finalize(), ErrLocked)
	assert.Equal(t, "-9", c.Current())
	assert.Equal(t, float64(3), c.Memory())

	handled, err := c.HandleKey("5")
	assert.True(t, handled)
	assert.ErrorIs(t, err, ErrLocked)

	handled, err = c.HandleKey("Escape")
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.False(t, c.InError())
	assert.Equal(t, "0", c.Current())
	assert.Empty(t, c.ErrorMessage())
}

func TestMemoryOp_Sequence(t *testing.T) {
	c := restored(t, Snapshot{Current: "5"})

	require.NoError(t, c.MemoryOp(MemoryAdd))
	assert.Equal(t, float64(5), c.Memory())

	require.NoError(t, c.MemoryOp(MemoryAdd))
	assert.Equal(t, float64(10), c.Memory())
	assert.Equal(t, "Memoria: 10", c.MemoryIndicator())

	require.NoError(t, c.MemoryOp(MemorySubtract))
	assert.Equal(t, float64(5), c.Memory())
	assert.Equal(t, "5", c.Current())

	require.NoError(t, c.MemoryOp(MemoryRecall))
	assert.Equal(t, "5", c.Current())
	assert.True(t, c.AwaitingOperand())

	require.NoError(t, c.MemoryOp(MemoryClear))
	assert.Zero(t, c.Memory())
	assert.Empty(t, c.MemoryIndicator())
}

func TestMemoryOp_AccumulatesDecimals(t *testing.T) {
	c := restored(t, Snapshot{Current: "0.1"})
	require.NoError(t, c.MemoryOp(MemoryAdd))

	c = restored(t, Snapshot{Current: "0.2", Memory: c.Memory()})
	require.NoError(t, c.MemoryOp(MemoryAdd))
	assert.Equal(t, 0.3, c.Memory())
}

func TestReset_KeepsHistoryAndMemory(t *testing.T) {
	c := newTestCalculator()
	press(t, c, "2", "+", "2", "=")
	require.NoError(t, c.MemoryOp(MemoryAdd))
	press(t, c, "7", "*")

	c.Reset()

	assert.Equal(t, "0", c.Current())
	assert.Empty(t, c.Previous())
	assert.Equal(t, OpNone, c.Pending())
	assert.Equal(t, ModeIdle, c.Mode())
	assert.Len(t, c.History(), 1)
	assert.Equal(t, float64(4), c.Memory())
}

func TestRecordHistory_Cap(t *testing.T) {
	c := newTestCalculator()

	for i := 0; i < 12; i++ {
		c.RecordHistory(fmt.Sprintf("expr-%d", i), float64(i))
	}

	history := c.History()
	require.Len(t, history, MaxHistory)
	assert.Equal(t, "expr-11", history[0].Expression)
	assert.Equal(t, "expr-2", history[9].Expression)
	for _, entry := range history {
		assert.NotEqual(t, "expr-0", entry.Expression)
		assert.NotEqual(t, "expr-1", entry.Expression)
	}
}

func TestHistoryRecallAndClear(t *testing.T) {
	c := newTestCalculator()
	press(t, c, "1", "+", "2", "Enter")
	press(t, c, "5", "*", "5", "=")

	require.NoError(t, c.RecallHistory(1))
	assert.Equal(t, "3", c.Current())
	assert.True(t, c.AwaitingOperand())

	assert.ErrorIs(t, c.RecallHistory(5), ErrHistoryIndex)

	c.ClearHistory()
	assert.Empty(t, c.History())
}

func TestHandleKey_Sequence(t *testing.T) {
	c := newTestCalculator()
	press(t, c, "1", "+", "2", "Enter")

	assert.Equal(t, "3", c.Display())
	assert.Equal(t, []string{"1 + 2 = 3"}, c.HistoryLines())
}

func TestHandleKey_UnboundKey(t *testing.T) {
	c := newTestCalculator()

	handled, err := c.HandleKey("x")
	assert.False(t, handled)
	assert.NoError(t, err)
}

func TestDisplay_LargeResultUsesExponent(t *testing.T) {
	c := newTestCalculator()
	press(t, c, "1", "0", "0", "0", "0", "0", "*", "1", "0", "0", "0", "0", "0", "=")

	assert.Equal(t, "1.000000e+10", c.Display())
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := newTestCalculator()
	press(t, c, "3", "*", "4", "=", "+", "1")
	require.NoError(t, c.MemoryOp(MemoryAdd))

	again := restored(t, c.Snapshot())

	assert.Equal(t, c.Snapshot(), again.Snapshot())
	require.NoError(t, again.Finalize())
	assert.Equal(t, "13", again.Current())
}

func TestRestore_Invalid(t *testing.T) {
	_, err := Restore(Snapshot{Mode: Mode("sleeping")})
	assert.Error(t, err)

	_, err = Restore(Snapshot{Pending: Operation("pow")})
	assert.Error(t, err)

	_, err = Restore(Snapshot{Current: "abc"})
	assert.Error(t, err)
}

func TestAsDomainError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("evaluate: %w", ErrDivisionByZero)

	domainErr, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindDivisionByZero, domainErr.Kind)

	_, ok = AsDomainError(errors.New("boom"))
	assert.False(t, ok)
}
