// Package errors defines infrastructure errors, their reporting and retry policy.
// Calculator domain failures are not AppErrors; they are shown on the display.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation  = "E100"
	CodeDatabase    = "E200"
	CodeExternalAPI = "E300"
	CodeState       = "E400"
	CodeSessionLock = "E410"
	CodeRateLimit   = "E500"
	CodeInternal    = "E900"
)

// DefaultUserMessage is shown when an error carries no user-facing text.
const DefaultUserMessage = "Ocurrió un error. Inténtalo más tarde"

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("Entrada no válida. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeDatabase,
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Problema temporal, inténtalo más tarde",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        CodeExternalAPI,
		Message:     fmt.Sprintf("External API error: %s", apiName),
		UserMessage: "Servicio no disponible temporalmente",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     msg,
		UserMessage: "Operación no disponible en el estado actual",
		Severity:    SeverityMedium,
		Retryable:   false,
	}
}

// NewSessionLockError reports contention on a user's calculator session. It is
// retryable: the holder releases the lock as soon as its update is applied.
func NewSessionLockError(userID int64, cause error) *AppError {
	return &AppError{
		Code:        CodeSessionLock,
		Message:     fmt.Sprintf("session of user %d is locked", userID),
		UserMessage: "Procesando la pulsación anterior, inténtalo de nuevo",
		Severity:    SeverityLow,
		Retryable:   true,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Demasiadas solicitudes. Inténtalo dentro de %d segundos", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewInternalError wraps an unexpected failure such as a recovered panic.
func NewInternalError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeInternal,
		Message:     fmt.Sprintf("Internal error: %s", underlyingMsg),
		UserMessage: DefaultUserMessage,
		Severity:    SeverityCritical,
		Retryable:   false,
		cause:       cause,
	}
}
