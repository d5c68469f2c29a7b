package errors

import "fmt"

// ErrorType classifies where in the pipeline an error originated.
type ErrorType string

const (
	TypeExtract   ErrorType = "extract"
	TypeTransform ErrorType = "transform"
	TypeQuality   ErrorType = "quality"
	TypeLoad      ErrorType = "load"
	TypeCache     ErrorType = "cache"
	TypeConfig    ErrorType = "config"
)

// AppError is the internal error type carried through pipeline stages.
// Unlike APIError it is not tied to an HTTP status; the transport layer
// maps it when a run is triggered over the API.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for structured logging
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a classified pipeline error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewExtractError wraps a source adapter failure
func NewExtractError(message string, cause error) *AppError {
	return NewAppError(TypeExtract, message, cause)
}

// NewTransformError wraps a transform stage failure
func NewTransformError(message string, cause error) *AppError {
	return NewAppError(TypeTransform, message, cause)
}

// NewQualityError wraps a quality engine failure
func NewQualityError(message string, cause error) *AppError {
	return NewAppError(TypeQuality, message, cause)
}

// NewLoadError wraps a destination adapter failure
func NewLoadError(message string, cause error) *AppError {
	return NewAppError(TypeLoad, message, cause)
}

// NewConfigError wraps a configuration failure
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(TypeConfig, message, cause)
}
