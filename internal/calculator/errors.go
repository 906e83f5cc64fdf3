package calculator

import "errors"

// ErrorKind classifies a domain failure.
type ErrorKind string

const (
	KindDivisionByZero       ErrorKind = "division_by_zero"
	KindNonPositiveLogarithm ErrorKind = "non_positive_logarithm"
	KindNegativeRadicand     ErrorKind = "negative_radicand"
	KindReciprocalOfZero     ErrorKind = "reciprocal_of_zero"
)

// DomainError is a recoverable calculation failure. Message is the text shown to the user.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

var (
	ErrDivisionByZero       = &DomainError{Kind: KindDivisionByZero, Message: "No se puede dividir por cero"}
	ErrNonPositiveLogarithm = &DomainError{Kind: KindNonPositiveLogarithm, Message: "El logaritmo requiere un número positivo"}
	ErrNegativeRadicand     = &DomainError{Kind: KindNegativeRadicand, Message: "No se puede calcular la raíz de un número negativo"}
	ErrReciprocalOfZero     = &DomainError{Kind: KindReciprocalOfZero, Message: "No se puede calcular el recíproco de cero"}
)

var (
	// ErrLocked is returned for numeric input while the calculator is in error mode.
	ErrLocked = errors.New("calculator is in error state, reset required")
	// ErrInvalidToken indicates an input token that is neither a digit nor the decimal separator.
	ErrInvalidToken = errors.New("invalid input token")
	// ErrHistoryIndex indicates a history position outside the stored entries.
	ErrHistoryIndex = errors.New("history entry not found")
)

// AsDomainError extracts the DomainError carried by err, if any.
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr != nil {
		return domainErr, true
	}
	return nil, false
}
