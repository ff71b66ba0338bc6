package errors

import "fmt"

// ErrorCode represents a Ninho error code.
type ErrorCode string

const (
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"      // malformed or missing hook/CLI input
	ErrNotFound          ErrorCode = "NOT_FOUND"          // PRD, summary, or index entry missing
	ErrMalformedDocument ErrorCode = "MALFORMED_DOCUMENT" // markdown document missing expected sections
	ErrInternal          ErrorCode = "INTERNAL"           // unexpected internal failure
)

// NinhoError is a structured error with a code and optional details.
type NinhoError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *NinhoError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInput creates an error for invalid hook or CLI input.
func NewInvalidInput(msg string) *NinhoError {
	return &NinhoError{
		Code:    ErrInvalidInput,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing document.
func NewNotFound(identifier string) *NinhoError {
	return &NinhoError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewMalformedDocument creates an error for a document whose section
// structure does not match the expected template.
func NewMalformedDocument(name, section string) *NinhoError {
	return &NinhoError{
		Code:    ErrMalformedDocument,
		Message: fmt.Sprintf("document %q is missing section %q", name, section),
		Details: map[string]any{"document": name, "section": section},
	}
}

// NewInternal wraps an unexpected internal error.
func NewInternal(err error) *NinhoError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &NinhoError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a NinhoError with the given code.
func Is(err error, code ErrorCode) bool {
	if nErr, ok := err.(*NinhoError); ok {
		return nErr.Code == code
	}
	return false
}
