package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryToggle   Category = "toggle"
	CategoryDocument Category = "document"
	CategoryUpload   Category = "upload"
	CategorySession  Category = "session"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// FolioError is a structured error with a registered code and optional hints.
type FolioError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (toggle, document, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FolioError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FolioError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a FolioError with the same code.
func (e *FolioError) Is(target error) bool {
	t, ok := target.(*FolioError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FolioError) WithSuggestion(s string) *FolioError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *FolioError) WithDetail(d string) *FolioError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *FolioError) Wrap(err error) *FolioError {
	e.Wrapped = err
	return e
}

// New creates a FolioError from a registered error code.
func New(code string) *FolioError {
	template, ok := registry[code]
	if !ok {
		return &FolioError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &FolioError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new FolioError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FolioError {
	return &FolioError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a FolioError.
// An error that already is (or wraps) a FolioError is returned as is.
func FromError(err error, code string) *FolioError {
	if err == nil {
		return nil
	}
	var fe *FolioError
	if stderrors.As(err, &fe) {
		return fe
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first FolioError in err's chain, or "".
func Code(err error) string {
	var fe *FolioError
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// HasCode reports whether err's chain contains a FolioError with code.
func HasCode(err error, code string) bool {
	return stderrors.Is(err, &FolioError{Code: code})
}
