// Package errors provides structured error types for pepedot.
//
// Every failure the annotation store, archive codec, persistence gateway or
// session can report carries a machine-readable [Code]. Codes are grouped into
// four categories that decide how far an error propagates:
//
//   - validation: the single operation is aborted; state is unchanged
//   - capacity: the specific add operation is blocked; everything else works
//   - format: an import is aborted before any mutation
//   - io: only the failing attachment (e.g. a photo) is affected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeProximity, "point too close to #%d", id)
//	if errors.Is(err, errors.ErrCodeProximity) {
//	    // re-prompt
//	}
//
//	if errors.CategoryOf(err) == errors.CategoryCapacity {
//	    // show a warning, keep going
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Validation errors
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeOutOfBounds         Code = "OUT_OF_BOUNDS"
	ErrCodeProximity           Code = "PROXIMITY"
	ErrCodeDuplicateName       Code = "DUPLICATE_NAME"
	ErrCodeConfirmation        Code = "CONFIRMATION"
	ErrCodeLastDocument        Code = "LAST_DOCUMENT"
	ErrCodeNotFound            Code = "NOT_FOUND"
	ErrCodeUnsupportedDocument Code = "UNSUPPORTED_DOCUMENT"

	// Capacity errors
	ErrCodeProjectLimit  Code = "PROJECT_LIMIT"
	ErrCodeDocumentLimit Code = "DOCUMENT_LIMIT"
	ErrCodeQuotaExceeded Code = "QUOTA_EXCEEDED"

	// Format errors
	ErrCodeInvalidArchive Code = "INVALID_ARCHIVE"

	// IO errors
	ErrCodePhotoRead Code = "PHOTO_READ"
	ErrCodeIO        Code = "IO_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Category groups codes by how the caller should react to them.
type Category string

// Error categories.
const (
	CategoryValidation Category = "validation"
	CategoryCapacity   Category = "capacity"
	CategoryFormat     Category = "format"
	CategoryIO         Category = "io"
	CategoryInternal   Category = "internal"
)

var categories = map[Code]Category{
	ErrCodeInvalidInput:        CategoryValidation,
	ErrCodeOutOfBounds:         CategoryValidation,
	ErrCodeProximity:           CategoryValidation,
	ErrCodeDuplicateName:       CategoryValidation,
	ErrCodeConfirmation:        CategoryValidation,
	ErrCodeLastDocument:        CategoryValidation,
	ErrCodeNotFound:            CategoryValidation,
	ErrCodeUnsupportedDocument: CategoryValidation,

	ErrCodeProjectLimit:  CategoryCapacity,
	ErrCodeDocumentLimit: CategoryCapacity,
	ErrCodeQuotaExceeded: CategoryCapacity,

	ErrCodeInvalidArchive: CategoryFormat,

	ErrCodePhotoRead: CategoryIO,
	ErrCodeIO:        CategoryIO,
}

// Category returns the category a code belongs to. Unknown codes are internal.
func (c Code) Category() Category {
	if cat, ok := categories[c]; ok {
		return cat
	}
	return CategoryInternal
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// CategoryOf returns the category of the outermost *Error in err's chain.
// Plain errors are internal; nil has no category.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	return GetCode(err).Category()
}

// IsValidation reports whether err aborts only the current operation.
func IsValidation(err error) bool { return CategoryOf(err) == CategoryValidation }

// IsCapacity reports whether err is a capacity condition (limits, quota).
func IsCapacity(err error) bool { return CategoryOf(err) == CategoryCapacity }

// IsFormat reports whether err is a malformed-archive error.
func IsFormat(err error) bool { return CategoryOf(err) == CategoryFormat }

// IsIO reports whether err is an I/O failure during ingestion.
func IsIO(err error) bool { return CategoryOf(err) == CategoryIO }

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
