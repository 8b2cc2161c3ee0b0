package errors

import (
	"fmt"
	"strings"
	"time"
)

// SignerError represents a failure in the field geometry, placement or export
// pipeline together with the context needed to report it
type SignerError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	FieldID     string    `json:"field_id,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Violations  []string  `json:"violations,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of signer errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeGeometryUnavailable
	ErrorTypeImageDecodeFailure
	ErrorTypeMissingPage
	ErrorTypeValidationFailure
	ErrorTypeExportFatal
	ErrorTypeExportInFlight
	ErrorTypeNotFound
	ErrorTypeInvalidArgument
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Sentinels for errors.Is comparisons. Only the Type is compared
var (
	ErrGeometryUnavailable = &SignerError{Type: ErrorTypeGeometryUnavailable, Message: "page geometry not available"}
	ErrImageDecode         = &SignerError{Type: ErrorTypeImageDecodeFailure, Message: "signature image cannot be decoded"}
	ErrMissingPage         = &SignerError{Type: ErrorTypeMissingPage, Message: "page not present in document"}
	ErrValidation          = &SignerError{Type: ErrorTypeValidationFailure, Message: "validation failed"}
	ErrExportFatal         = &SignerError{Type: ErrorTypeExportFatal, Message: "export failed"}
	ErrExportInFlight      = &SignerError{Type: ErrorTypeExportInFlight, Message: "an export is already in progress"}
	ErrNotFound            = &SignerError{Type: ErrorTypeNotFound, Message: "not found"}
	ErrInvalidArgument     = &SignerError{Type: ErrorTypeInvalidArgument, Message: "invalid argument"}
)

// Error implements the error interface
func (e *SignerError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if len(e.Violations) > 0 {
		msg += ": " + strings.Join(e.Violations, "; ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *SignerError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a SignerError of the same type
func (e *SignerError) Is(target error) bool {
	t, ok := target.(*SignerError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeGeometryUnavailable:
		return "GEOMETRY_UNAVAILABLE"
	case ErrorTypeImageDecodeFailure:
		return "IMAGE_DECODE_FAILURE"
	case ErrorTypeMissingPage:
		return "MISSING_PAGE"
	case ErrorTypeValidationFailure:
		return "VALIDATION_FAILURE"
	case ErrorTypeExportFatal:
		return "EXPORT_FATAL"
	case ErrorTypeExportInFlight:
		return "EXPORT_IN_FLIGHT"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeInvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeGeometryUnavailable:
		return SeverityInfo
	case ErrorTypeImageDecodeFailure, ErrorTypeMissingPage:
		return SeverityWarning
	case ErrorTypeExportFatal:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether the pipeline continues past this error type.
// Image decode failures and missing pages degrade a single field; the rest
// block the operation that raised them
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeImageDecodeFailure, ErrorTypeMissingPage, ErrorTypeGeometryUnavailable:
		return true
	default:
		return false
	}
}

// New creates a new SignerError of the given type
func New(errorType ErrorType, message string) *SignerError {
	return &SignerError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// Newf creates a new SignerError with a formatted message
func Newf(errorType ErrorType, format string, args ...any) *SignerError {
	return New(errorType, fmt.Sprintf(format, args...))
}

// Wrap wraps err as a SignerError of the given type
func Wrap(errorType ErrorType, message string, err error) *SignerError {
	e := New(errorType, message)
	e.Err = err
	return e
}

// NewValidationError builds a validation failure carrying every violation
func NewValidationError(violations []string) *SignerError {
	e := New(ErrorTypeValidationFailure, fmt.Sprintf("%d validation error(s)", len(violations)))
	e.Violations = append([]string(nil), violations...)
	return e
}

// WithContext adds context to an existing SignerError
func (e *SignerError) WithContext(context string) *SignerError {
	e.Context = context
	return e
}

// WithField adds the field id to an existing SignerError
func (e *SignerError) WithField(fieldID string) *SignerError {
	e.FieldID = fieldID
	return e
}

// WithPage adds page number information to an existing SignerError
func (e *SignerError) WithPage(pageNumber int) *SignerError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *SignerError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// ErrorCollection accumulates the soft warnings of one export run
type ErrorCollection struct {
	Errors   []*SignerError `json:"errors"`
	Warnings []*SignerError `json:"warnings"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*SignerError, 0),
		Warnings: make([]*SignerError, 0),
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *SignerError) {
	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// WarningMessages returns the warnings as plain strings
func (ec *ErrorCollection) WarningMessages() []string {
	out := make([]string, 0, len(ec.Warnings))
	for _, w := range ec.Warnings {
		out = append(out, w.Error())
	}
	return out
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
