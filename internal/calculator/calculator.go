// Package calculator implements the scientific calculator state machine.
//
// A Calculator holds the operand being entered, the previous operand and pending
// binary operation, a memory cell and a bounded history. It is driven by input
// methods (InputDigit, SetOperator, ApplyUnary, MemoryOp, Finalize, Reset) and
// rendered through Display, Expression, MemoryIndicator and HistoryLines.
//
// The calculator moves between three modes. In ModeIdle digits extend the
// current operand; in ModeAwaitingOperand the next digit starts a new operand;
// in ModeError every numeric input is refused with ErrLocked until Reset.
//
// A Calculator is not safe for concurrent use. Callers confine each instance to
// a single owner.
package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Proton-105/calc-bot/internal/arith"
)

// Mode is the input mode of the calculator.
type Mode string

const (
	ModeIdle            Mode = "idle"
	ModeAwaitingOperand Mode = "awaiting_operand"
	ModeError           Mode = "error"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeIdle, ModeAwaitingOperand, ModeError:
		return true
	default:
		return false
	}
}

const (
	defaultOperand    = "0"
	decimalSeparator  = "."
	defaultTimeLayout = "15:04:05"
)

// Calculator is the calculator state machine.
type Calculator struct {
	current  string
	previous string
	pending  Operation
	memory   float64
	history  []HistoryEntry
	mode     Mode
	errMsg   string

	now        func() time.Time
	timeLayout string
	onMode     func(from, to Mode)
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock sets the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTimeLayout sets the layout used to render history timestamps.
func WithTimeLayout(layout string) Option {
	return func(c *Calculator) {
		if layout != "" {
			c.timeLayout = layout
		}
	}
}

// WithModeObserver registers fn to be called on every mode change, in order.
// Restoring a snapshot does not count as a change.
func WithModeObserver(fn func(from, to Mode)) Option {
	return func(c *Calculator) {
		c.onMode = fn
	}
}

// New returns a calculator in its initial state.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		current:    defaultOperand,
		mode:       ModeIdle,
		now:        time.Now,
		timeLayout: defaultTimeLayout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// InputDigit enters a digit or the decimal separator.
func (c *Calculator) InputDigit(token string) error {
	if c.mode == ModeError {
		return ErrLocked
	}
	if !isDigitToken(token) {
		return fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}

	if c.mode == ModeAwaitingOperand {
		c.current = token
		if token == decimalSeparator {
			c.current = defaultOperand + decimalSeparator
		}
		c.setMode(ModeIdle)
		return nil
	}

	switch {
	case token == decimalSeparator:
		if strings.Contains(c.current, decimalSeparator) {
			return nil
		}
		c.current += decimalSeparator
	case c.current == defaultOperand:
		c.current = token
	default:
		c.current += token
	}

	return nil
}

// SetOperator selects the pending binary operation. When an operation is
// already pending and a second operand was entered, it is evaluated first and
// its result becomes the new left operand.
func (c *Calculator) SetOperator(op Operation) error {
	if c.mode == ModeError {
		return ErrLocked
	}
	if !op.Valid() {
		return fmt.Errorf("unknown operation %q", op)
	}

	if c.pending != OpNone && c.mode == ModeAwaitingOperand {
		c.pending = op
		return nil
	}

	if c.previous == "" {
		c.previous = arith.FormatOperand(c.value(c.current))
	} else if c.pending != OpNone {
		result, err := c.EvaluateBinary()
		if err != nil {
			c.fail(err)
			return err
		}

		c.current = arith.FormatOperand(result)
		c.previous = c.current
	}

	c.pending = op
	c.setMode(ModeAwaitingOperand)
	return nil
}

// EvaluateBinary computes previous <pending> current without mutating the
// calculator. With no pending operation it returns the current operand.
func (c *Calculator) EvaluateBinary() (float64, error) {
	prev := c.value(c.previous)
	cur := c.value(c.current)

	var result float64
	switch c.pending {
	case OpAdd:
		result = arith.PreciseAdd(prev, cur)
	case OpSubtract:
		result = arith.PreciseSubtract(prev, cur)
	case OpMultiply:
		result = arith.PreciseMultiply(prev, cur)
	case OpDivide:
		if cur == 0 {
			return 0, ErrDivisionByZero
		}
		result = arith.PreciseDivide(prev, cur)
	default:
		return cur, nil
	}

	return arith.RoundResult(result), nil
}

// ApplyUnary applies a scientific function to the current operand. Trigonometric
// functions take their argument in degrees.
func (c *Calculator) ApplyUnary(fn Function) error {
	if c.mode == ModeError {
		return ErrLocked
	}

	x := c.value(c.current)
	shown := arith.FormatShortest(x)

	var (
		result     float64
		expression string
	)

	switch fn {
	case FuncSin:
		result = math.Sin(arith.ToRadians(x))
		expression = "sin(" + shown + ")"
	case FuncCos:
		result = math.Cos(arith.ToRadians(x))
		expression = "cos(" + shown + ")"
	case FuncTan:
		result = math.Tan(arith.ToRadians(x))
		expression = "tan(" + shown + ")"
	case FuncLog:
		if x <= 0 {
			c.fail(ErrNonPositiveLogarithm)
			return ErrNonPositiveLogarithm
		}
		result = math.Log10(x)
		expression = "log(" + shown + ")"
	case FuncSqrt:
		if x < 0 {
			c.fail(ErrNegativeRadicand)
			return ErrNegativeRadicand
		}
		result = math.Sqrt(x)
		expression = "√(" + shown + ")"
	case FuncPower:
		result = math.Pow(x, 2)
		expression = shown + "²"
	case FuncPercent:
		result = x / 100
		expression = shown + "%"
	case FuncReciprocal:
		if x == 0 {
			c.fail(ErrReciprocalOfZero)
			return ErrReciprocalOfZero
		}
		result = 1 / x
		expression = "1/" + shown
	case FuncNegate:
		result = x * -1
		expression = "-(" + shown + ")"
	default:
		return fmt.Errorf("unknown function %q", fn)
	}

	result = arith.RoundResult(result)
	c.RecordHistory(expression, result)
	c.current = arith.FormatOperand(result)
	c.setMode(ModeAwaitingOperand)
	return nil
}

// Finalize evaluates the pending operation ("=" key). It does nothing when no
// operation is pending or when no second operand has been entered yet.
func (c *Calculator) Finalize() error {
	if c.mode == ModeError {
		return ErrLocked
	}
	if c.pending == OpNone || c.mode == ModeAwaitingOperand {
		return nil
	}

	result, err := c.EvaluateBinary()
	if err != nil {
		c.fail(err)
		return err
	}

	c.RecordHistory(fmt.Sprintf("%s %s %s", c.previous, c.pending.Symbol(), c.current), result)
	c.current = arith.FormatOperand(result)
	c.previous = ""
	c.pending = OpNone
	c.setMode(ModeAwaitingOperand)
	return nil
}

// MemoryOp applies a memory action.
func (c *Calculator) MemoryOp(action MemoryAction) error {
	if c.mode == ModeError {
		return ErrLocked
	}

	switch action {
	case MemoryClear:
		c.memory = 0
	case MemoryRecall:
		c.current = arith.FormatOperand(c.memory)
		c.setMode(ModeAwaitingOperand)
	case MemoryAdd:
		c.memory = arith.PreciseAdd(c.memory, c.value(c.current))
	case MemorySubtract:
		c.memory = arith.PreciseSubtract(c.memory, c.value(c.current))
	default:
		return fmt.Errorf("unknown memory action %q", action)
	}

	return nil
}

// Reset returns the operands, pending operation and mode to their defaults.
// Memory and history are kept.
func (c *Calculator) Reset() {
	c.current = defaultOperand
	c.previous = ""
	c.pending = OpNone
	c.setMode(ModeIdle)
	c.errMsg = ""
}

// Display returns the main display text.
func (c *Calculator) Display() string {
	if c.mode == ModeError {
		return "Error"
	}
	return arith.FormatNumber(c.current)
}

// Expression returns the expression line: the error message in error mode,
// "{previous} {symbol}" while an operation is pending, else the current operand.
func (c *Calculator) Expression() string {
	switch {
	case c.mode == ModeError:
		return c.errMsg
	case c.pending != OpNone && c.previous != "":
		return arith.FormatNumber(c.previous) + " " + c.pending.Symbol()
	case c.current == defaultOperand:
		return defaultOperand
	default:
		return arith.FormatNumber(c.current)
	}
}

// MemoryIndicator returns the memory label, or an empty string when memory is zero.
func (c *Calculator) MemoryIndicator() string {
	if c.memory == 0 {
		return ""
	}
	return "Memoria: " + arith.FormatValue(c.memory)
}

// Current returns the current operand text.
func (c *Calculator) Current() string { return c.current }

// Previous returns the previous operand text, empty when none.
func (c *Calculator) Previous() string { return c.previous }

// Pending returns the pending operation.
func (c *Calculator) Pending() Operation { return c.pending }

// Memory returns the memory cell value.
func (c *Calculator) Memory() float64 { return c.memory }

// Mode returns the current input mode.
func (c *Calculator) Mode() Mode { return c.mode }

// AwaitingOperand reports whether the next digit starts a new operand.
func (c *Calculator) AwaitingOperand() bool { return c.mode == ModeAwaitingOperand }

// InError reports whether the calculator refuses input until Reset.
func (c *Calculator) InError() bool { return c.mode == ModeError }

// ErrorMessage returns the message of the failure that caused error mode.
func (c *Calculator) ErrorMessage() string { return c.errMsg }

func (c *Calculator) setMode(m Mode) {
	from := c.mode
	c.mode = m
	if from != m && c.onMode != nil {
		c.onMode(from, m)
	}
}

func (c *Calculator) fail(err error) {
	c.setMode(ModeError)
	c.errMsg = err.Error()
	if domainErr, ok := AsDomainError(err); ok {
		c.errMsg = domainErr.Message
	}
}

func (c *Calculator) value(operand string) float64 {
	v, err := strconv.ParseFloat(operand, 64)
	if err != nil {
		return 0
	}
	return v
}

func isDigitToken(token string) bool {
	if token == decimalSeparator {
		return true
	}
	return len(token) == 1 && token[0] >= '0' && token[0] <= '9'
}
