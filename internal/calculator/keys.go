package calculator

// Named keys accepted by HandleKey besides digits and operator characters.
const (
	KeyEnter  = "Enter"
	KeyEquals = "="
	KeyEscape = "Escape"
)

// HandleKey maps a keyboard key to a calculator action. It reports whether the
// key is bound to an action. In error mode only the reset keys are accepted.
func (c *Calculator) HandleKey(key string) (bool, error) {
	if IsResetKey(key) {
		c.Reset()
		return true, nil
	}

	if c.mode == ModeError {
		if IsBoundKey(key) {
			return true, ErrLocked
		}
		return false, nil
	}

	switch {
	case isDigitToken(key):
		return true, c.InputDigit(key)
	case key == KeyEnter || key == KeyEquals:
		return true, c.Finalize()
	}

	if op, ok := operatorKeys[key]; ok {
		return true, c.SetOperator(op)
	}

	return false, nil
}

var operatorKeys = map[string]Operation{
	"+": OpAdd,
	"-": OpSubtract,
	"*": OpMultiply,
	"/": OpDivide,
}

// IsResetKey reports whether key resets the calculator.
func IsResetKey(key string) bool {
	return key == KeyEscape || key == "c" || key == "C"
}

// IsBoundKey reports whether key maps to any calculator action.
func IsBoundKey(key string) bool {
	if IsResetKey(key) || isDigitToken(key) || key == KeyEnter || key == KeyEquals {
		return true
	}
	_, ok := operatorKeys[key]
	return ok
}
