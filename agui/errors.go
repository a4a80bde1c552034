package agui

import "fmt"

// ErrorType classifies failures surfaced by the client.
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeHandshake     ErrorType = "HANDSHAKE_ERROR"
	ErrorTypeConnection    ErrorType = "CONNECTION_ERROR"
	ErrorTypeServer        ErrorType = "SERVER_ERROR"
	ErrorTypeUnknown       ErrorType = "UNKNOWN_ERROR"
)

// AgUIError is the root error type returned by the client.
type AgUIError struct {
	Type       ErrorType
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

func (e *AgUIError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Code != "" {
		base = fmt.Sprintf("%s (%s)", base, e.Code)
	}
	if e.Suggestion != "" {
		base = fmt.Sprintf("%s | suggestion: %s", base, e.Suggestion)
	}
	return base
}

// Unwrap exposes the wrapped cause when available.
func (e *AgUIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind ErrorType, message string, opts ...func(*AgUIError)) *AgUIError {
	err := &AgUIError{
		Type:    kind,
		Message: message,
	}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

func withCode(code string) func(*AgUIError) {
	return func(e *AgUIError) {
		e.Code = code
	}
}

func withSuggestion(s string) func(*AgUIError) {
	return func(e *AgUIError) {
		e.Suggestion = s
	}
}

func withCause(err error) func(*AgUIError) {
	return func(e *AgUIError) {
		e.Cause = err
	}
}
