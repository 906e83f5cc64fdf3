package calculator

import "fmt"

// Operation is a pending binary operator.
type Operation string

const (
	// OpNone marks that no binary operation is pending.
	OpNone     Operation = ""
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
)

var operatorSymbols = map[Operation]string{
	OpAdd:      "+",
	OpSubtract: "−",
	OpMultiply: "×",
	OpDivide:   "÷",
}

// Symbol returns the display symbol for the operation, or an empty string for OpNone.
func (o Operation) Symbol() string {
	return operatorSymbols[o]
}

// Valid reports whether o is one of the four binary operators.
func (o Operation) Valid() bool {
	_, ok := operatorSymbols[o]
	return ok
}

// ParseOperation resolves an operation from its name ("add") or symbol ("+", "-", "*", "/").
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "add", "+":
		return OpAdd, nil
	case "subtract", "-", "−":
		return OpSubtract, nil
	case "multiply", "*", "×":
		return OpMultiply, nil
	case "divide", "/", "÷":
		return OpDivide, nil
	default:
		return OpNone, fmt.Errorf("unknown operation %q", s)
	}
}

// Function is a unary scientific function applied to the current operand.
type Function string

const (
	FuncSin        Function = "sin"
	FuncCos        Function = "cos"
	FuncTan        Function = "tan"
	FuncLog        Function = "log"
	FuncSqrt       Function = "sqrt"
	FuncPower      Function = "power"
	FuncPercent    Function = "percent"
	FuncReciprocal Function = "reciprocal"
	FuncNegate     Function = "negate"
)

// Functions lists every supported unary function in keypad order.
var Functions = []Function{
	FuncSin, FuncCos, FuncTan, FuncLog, FuncSqrt,
	FuncPower, FuncPercent, FuncReciprocal, FuncNegate,
}

// ParseFunction resolves a unary function by name.
func ParseFunction(s string) (Function, error) {
	for _, fn := range Functions {
		if string(fn) == s {
			return fn, nil
		}
	}
	return "", fmt.Errorf("unknown function %q", s)
}

// MemoryAction is an operation on the memory cell.
type MemoryAction string

const (
	MemoryClear    MemoryAction = "memory-clear"
	MemoryRecall   MemoryAction = "memory-recall"
	MemoryAdd      MemoryAction = "memory-add"
	MemorySubtract MemoryAction = "memory-subtract"
)

// ParseMemoryAction resolves a memory action from its full name or its short
// keypad form ("mc", "mr", "m+", "m-").
func ParseMemoryAction(s string) (MemoryAction, error) {
	switch s {
	case string(MemoryClear), "mc":
		return MemoryClear, nil
	case string(MemoryRecall), "mr":
		return MemoryRecall, nil
	case string(MemoryAdd), "m+":
		return MemoryAdd, nil
	case string(MemorySubtract), "m-":
		return MemorySubtract, nil
	default:
		return "", fmt.Errorf("unknown memory action %q", s)
	}
}
