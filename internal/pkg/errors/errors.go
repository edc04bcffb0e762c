package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for each error type
type ErrorCode string

const (
	// General errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeTimeout  ErrorCode = "TIMEOUT"
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Construction errors (programming or input-shape mistakes, never batch-isolated)
	ErrCodeInvalidTable  ErrorCode = "INVALID_TABLE"
	ErrCodeInvalidRegion ErrorCode = "INVALID_REGION"

	// Per-file decode errors
	ErrCodeUnsupportedFormat    ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeTruncatedBuffer      ErrorCode = "TRUNCATED_BUFFER"
	ErrCodeInvalidField         ErrorCode = "INVALID_FIELD"
	ErrCodeNoNumericData        ErrorCode = "NO_NUMERIC_DATA"
	ErrCodeMissingCIFField      ErrorCode = "MISSING_CIF_FIELD"
	ErrCodeAmbiguousOrientation ErrorCode = "AMBIGUOUS_ORIENTATION"
	ErrCodeInvalidSeries        ErrorCode = "INVALID_SERIES"
	ErrCodeFileTooLarge         ErrorCode = "FILE_TOO_LARGE"
	ErrCodeConverterFailed      ErrorCode = "CONVERTER_FAILED"
	ErrCodeFileParseError       ErrorCode = "FILE_PARSE_ERROR"
)

// Sentinels for errors.Is checks. AppError.Is compares codes, so a wrapped
// AppError with the same code matches these.
var (
	ErrUnsupportedFormat    = New(ErrCodeUnsupportedFormat, "unsupported format")
	ErrTruncatedBuffer      = New(ErrCodeTruncatedBuffer, "truncated buffer")
	ErrInvalidField         = New(ErrCodeInvalidField, "invalid field layout")
	ErrNoNumericData        = New(ErrCodeNoNumericData, "no numeric data found")
	ErrMissingCIFField      = New(ErrCodeMissingCIFField, "missing CIF field")
	ErrAmbiguousOrientation = New(ErrCodeAmbiguousOrientation, "ambiguous orientation")
	ErrInvalidSeries        = New(ErrCodeInvalidSeries, "invalid series")
	ErrInvalidTable         = New(ErrCodeInvalidTable, "invalid table")
	ErrInvalidRegion        = New(ErrCodeInvalidRegion, "invalid region")
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message)
}

func NotFound(resource string) *AppError {
	return Newf(ErrCodeNotFound, "%s not found", resource)
}

func UnsupportedFormat(path string) *AppError {
	return Newf(ErrCodeUnsupportedFormat, "unsupported file format: %s", path).
		WithDetails("path", path)
}

func TruncatedBuffer(field string, end, size int) *AppError {
	return Newf(ErrCodeTruncatedBuffer,
		"field %q needs %d bytes but buffer holds %d", field, end, size).
		WithDetails("field", field)
}

func InvalidField(field, message string) *AppError {
	return Newf(ErrCodeInvalidField, "field %q: %s", field, message).
		WithDetails("field", field)
}

func NoNumericData(message string) *AppError {
	return New(ErrCodeNoNumericData, message)
}

func MissingCIFField(fields ...string) *AppError {
	return Newf(ErrCodeMissingCIFField, "none of the CIF fields %v present", fields)
}

func AmbiguousOrientation(message string) *AppError {
	return New(ErrCodeAmbiguousOrientation, message)
}

func InvalidSeries(message string) *AppError {
	return New(ErrCodeInvalidSeries, message)
}

func FileTooLarge(size, maxSize int64) *AppError {
	return Newf(ErrCodeFileTooLarge, "file size %d exceeds maximum %d", size, maxSize)
}

func ConverterFailed(err error, format string) *AppError {
	return Wrap(err, ErrCodeConverterFailed, fmt.Sprintf("converter failed for format %s", format))
}

func FileParseError(err error, message string) *AppError {
	return Wrap(err, ErrCodeFileParseError, message)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Classify maps an arbitrary error onto an ErrorCode. Cancellation and
// deadlines win over any wrapped AppError.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrCodeTimeout
	}
	if appErr, ok := GetAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeFileParseError
}
