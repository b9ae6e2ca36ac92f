package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryArchive       ErrorCategory = "archive"
	CategoryDecode        ErrorCategory = "decode"
	CategoryParse         ErrorCategory = "parse"
	CategoryLink          ErrorCategory = "link"
	CategoryAudit         ErrorCategory = "audit"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Archive errors
	CodeArchiveNotFound  ErrorCode = "archive_not_found"
	CodeArchiveCorrupted ErrorCode = "archive_corrupted"
	CodeEntryUnreadable  ErrorCode = "entry_unreadable"

	// Decode errors
	CodeEncodingError ErrorCode = "encoding_error"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeInvalidData   ErrorCode = "invalid_data"
	CodeMissingColumn ErrorCode = "missing_column"

	// Audit errors
	CodeMissingFeed     ErrorCode = "missing_feed"
	CodeProcessingError ErrorCode = "processing_error"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// AuditError is the base error type for all application errors
type AuditError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *AuditError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AuditError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *AuditError) GetExitCode() int {
	switch e.Category {
	case CategoryArchive:
		return 2
	case CategoryDecode, CategoryParse:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryLink, CategoryAudit, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *AuditError) WithContext(key string, value interface{}) *AuditError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *AuditError) WithSuggestion(suggestion string) *AuditError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AuditError
func New(category ErrorCategory, code ErrorCode, message string) *AuditError {
	return &AuditError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with AuditError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *AuditError {
	if err == nil {
		return nil
	}

	return &AuditError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// ArchiveError creates an archive-related error
func ArchiveError(code ErrorCode, name string, err error) *AuditError {
	var message string
	var suggestion string

	switch code {
	case CodeArchiveNotFound:
		message = fmt.Sprintf("archive not found: %s", name)
		suggestion = "check if the archive path is correct and the file exists"
	case CodeArchiveCorrupted:
		message = fmt.Sprintf("archive cannot be opened: %s", name)
		suggestion = "verify the file is a valid ZIP Data Stage export"
	case CodeEntryUnreadable:
		message = fmt.Sprintf("archive entry cannot be read: %s", name)
		suggestion = "re-download the export from the customs system"
	default:
		message = fmt.Sprintf("archive error: %s", name)
		suggestion = "check the archive and try again"
	}

	var result *AuditError
	if err != nil {
		result = Wrap(err, CategoryArchive, code, message)
	} else {
		result = New(CategoryArchive, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", name)
}

// EntryError creates an error for a failure while processing one archive
// entry. The entry file name always travels with the error so callers can
// tell which file aborted the run.
func EntryError(code ErrorCode, fileName string, err error) *AuditError {
	message := fmt.Sprintf("failed to process archive entry %s", fileName)

	var result *AuditError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion("inspect the named entry; the export may be truncated or re-encoded").
		WithContext("file", fileName)
}

// DecodeError creates a text-decoding error for an archive entry
func DecodeError(fileName string, err error) *AuditError {
	return Wrap(err, CategoryDecode, CodeEncodingError,
		fmt.Sprintf("failed to decode entry %s", fileName)).
		WithSuggestion("Data Stage exports are Windows-1252 encoded; check the source system").
		WithContext("file", fileName)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, value string, err error) *AuditError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in %s at line %d: '%s'", file, line, value)
		suggestion = "check the record layout against the Data Stage schema"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in %s at line %d: '%s'", file, line, value)
		suggestion = "correct the data or remove the invalid entry"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing column in %s at line %d", file, line)
		suggestion = "verify the record type of the file matches its name"
	default:
		message = fmt.Sprintf("parse error in %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *AuditError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("value", value)
}

// AuditOperationError creates a reconciliation-audit related error
func AuditOperationError(code ErrorCode, operation string, err error) *AuditError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingFeed:
		message = fmt.Sprintf("commercial invoice feed missing during %s", operation)
		suggestion = "supply the invoice line items before running the audit"
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "check the declaration data and try again"
	default:
		message = fmt.Sprintf("audit error during %s", operation)
		suggestion = "review the data and configuration"
	}

	var result *AuditError
	if err != nil {
		result = Wrap(err, CategoryAudit, code, message)
	} else {
		result = New(CategoryAudit, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *AuditError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *AuditError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *AuditError {
	message := fmt.Sprintf("internal error during %s", operation)
	suggestion := "try again or report the problem with the error details"
	if code == CodeUnexpectedError {
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	}

	var result *AuditError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*AuditError         `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*AuditError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if errs == nil {
		summary.Errors = []*AuditError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsAuditError checks if an error is an AuditError
func IsAuditError(err error) bool {
	_, ok := err.(*AuditError)
	return ok
}

// AsAuditError extracts an AuditError from an error chain
func AsAuditError(err error) (*AuditError, bool) {
	var auditErr *AuditError
	if errors.As(err, &auditErr) {
		return auditErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an AuditError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *AuditError {
	if err == nil {
		return nil
	}

	if auditErr, ok := AsAuditError(err); ok {
		return auditErr
	}

	return Wrap(err, category, code, message)
}
