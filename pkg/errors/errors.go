package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryDetection     ErrorCategory = "detection"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryMerge         ErrorCategory = "merge"
	CategoryNetwork       ErrorCategory = "network"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound       ErrorCode = "file_not_found"
	CodeFilePermission     ErrorCode = "file_permission"
	CodeFileUnreadable     ErrorCode = "file_unreadable"
	CodeDirectoryError     ErrorCode = "directory_error"
	CodeUnrecognizedFormat ErrorCode = "unrecognized_format"

	// Parse errors
	CodeInvalidFormat  ErrorCode = "invalid_format"
	CodeMissingColumn  ErrorCode = "missing_column"
	CodeHeaderNotFound ErrorCode = "header_not_found"
	CodeInvalidData    ErrorCode = "invalid_data"

	// Detection errors
	CodeNoFormatMatch       ErrorCode = "no_format_match"
	CodeMultipleFormatMatch ErrorCode = "multiple_format_matches"

	// Validation errors
	CodeUnsupportedBank ErrorCode = "unsupported_bank"
	CodeInvalidRecord   ErrorCode = "invalid_record"
	CodeInvalidAmount   ErrorCode = "invalid_amount"
	CodeInvalidDate     ErrorCode = "invalid_date"
	CodeMissingField    ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"
	CodeFileNaming    ErrorCode = "file_naming"
	CodeYearGap       ErrorCode = "year_gap"

	// Merge errors
	CodeUnknownAccount  ErrorCode = "unknown_account"
	CodeProcessingError ErrorCode = "processing_error"

	// Network errors
	CodeConnectionFailed   ErrorCode = "connection_failed"
	CodeTimeout            ErrorCode = "timeout"
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeBadResponse        ErrorCode = "bad_response"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ConsolidatorError is the base error type for all application errors
type ConsolidatorError struct {
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
func (e *ConsolidatorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ConsolidatorError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ConsolidatorError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryDetection, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryMerge, CategoryInternal:
		return 5
	case CategoryNetwork:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ConsolidatorError) WithContext(key string, value interface{}) *ConsolidatorError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ConsolidatorError) WithSuggestion(suggestion string) *ConsolidatorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ConsolidatorError
func New(category ErrorCategory, code ErrorCode, message string) *ConsolidatorError {
	return &ConsolidatorError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ConsolidatorError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ConsolidatorError {
	if err == nil {
		return nil
	}

	return &ConsolidatorError{
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

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ConsolidatorError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileUnreadable:
		message = fmt.Sprintf("could not read file as a statement: %s", path)
		suggestion = "verify the file is a statement export in CSV, TSV, XLSX or HTML form"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	case CodeUnrecognizedFormat:
		message = fmt.Sprintf("unrecognized file format: %s", path)
		suggestion = "supported statement extensions are .csv, .tsv, .txt, .xlsx, .htm and .html"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ConsolidatorError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a file-level parsing error
func ParseError(code ErrorCode, file string, detail string, err error) *ConsolidatorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid statement format in %s: %s", file, detail)
		suggestion = "check the export matches the declared bank's layout"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column in %s: %s", file, detail)
		suggestion = "verify the statement has all the columns the bank format defines"
	case CodeHeaderNotFound:
		message = fmt.Sprintf("header row not found in %s: %s", file, detail)
		suggestion = "the export may be truncated; re-download the statement"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in %s: %s", file, detail)
		suggestion = "correct the data or remove the invalid entry"
	default:
		message = fmt.Sprintf("parse error in %s: %s", file, detail)
		suggestion = "check the file format and data integrity"
	}

	var result *ConsolidatorError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("detail", detail)
}

// UnsupportedBank creates the error returned when a bank identifier has no
// registered format descriptor.
func UnsupportedBank(bank string) *ConsolidatorError {
	return New(CategoryValidation, CodeUnsupportedBank,
		fmt.Sprintf("unsupported bank '%s'", bank)).
		WithSuggestion("supported banks are MAHARASHTRA, CANARA, ICICI and SBI").
		WithContext("bank", bank)
}

// NoFormatMatch creates the detection error for an input whose header matches
// no registered descriptor.
func NoFormatMatch(file string) *ConsolidatorError {
	return New(CategoryDetection, CodeNoFormatMatch,
		fmt.Sprintf("no bank format matches the headers in %s", file)).
		WithSuggestion("pass an explicit bank identifier instead of auto-detection").
		WithContext("file", file)
}

// MultipleFormatMatches creates the detection error for an input whose header
// matches more than one registered descriptor.
func MultipleFormatMatches(file string, banks []string) *ConsolidatorError {
	return New(CategoryDetection, CodeMultipleFormatMatch,
		fmt.Sprintf("headers in %s match multiple bank formats: %s", file, strings.Join(banks, ", "))).
		WithSuggestion("pass an explicit bank identifier to disambiguate").
		WithContext("file", file).
		WithContext("matches", banks)
}

// InvalidRecord creates the row-granular validation error for a record that
// fails normalization. These are collected, never fatal for the batch.
func InvalidRecord(file string, row int, reason string, err error) *ConsolidatorError {
	message := fmt.Sprintf("invalid record in %s at row %d: %s", file, row, reason)

	var result *ConsolidatorError
	if err != nil {
		result = Wrap(err, CategoryValidation, CodeInvalidRecord, message)
	} else {
		result = New(CategoryValidation, CodeInvalidRecord, message)
	}

	return result.
		WithContext("file", file).
		WithContext("row", row).
		WithContext("reason", reason)
}

// UnknownAccount creates the merge input error for an owner/account pair that
// is absent from the caller-supplied account registry.
func UnknownAccount(owner, account string) *ConsolidatorError {
	return New(CategoryMerge, CodeUnknownAccount,
		fmt.Sprintf("account '%s' of owner '%s' is not in the account registry", account, owner)).
		WithSuggestion("add the account to the registry file or disable registry validation").
		WithContext("owner", owner).
		WithContext("account", account)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ConsolidatorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are decimal numbers (e.g. '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "check the date against the bank's date format"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *ConsolidatorError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ConsolidatorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	case CodeFileNaming:
		message = fmt.Sprintf("statement file name does not follow the naming convention: %v", value)
		suggestion = "name files <owner>_<bank>_<year>.<ext> or <owner>_<bank>_<startyear>_<endyear>.<ext>"
	case CodeYearGap:
		message = fmt.Sprintf("statement files do not cover a continuous range of financial years: %v", value)
		suggestion = "add the missing statement files listed in the error context"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ConsolidatorError
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

// MergeError creates a merge-related error
func MergeError(code ErrorCode, operation string, err error) *ConsolidatorError {
	var message string
	var suggestion string

	switch code {
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "check the input datasets and try again"
	default:
		message = fmt.Sprintf("merge error during %s", operation)
		suggestion = "review the data and configuration"
	}

	var result *ConsolidatorError
	if err != nil {
		result = Wrap(err, CategoryMerge, code, message)
	} else {
		result = New(CategoryMerge, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// NetworkError creates a network-related error
func NetworkError(code ErrorCode, endpoint string, err error) *ConsolidatorError {
	var message string
	var suggestion string

	switch code {
	case CodeConnectionFailed:
		message = fmt.Sprintf("connection failed to %s", endpoint)
		suggestion = "check network connectivity and endpoint availability"
	case CodeTimeout:
		message = fmt.Sprintf("timeout connecting to %s", endpoint)
		suggestion = "increase the HTTP timeout setting or check network speed"
	case CodeServiceUnavailable:
		message = fmt.Sprintf("service unavailable: %s", endpoint)
		suggestion = "the provider may be rate limiting; try again later"
	case CodeBadResponse:
		message = fmt.Sprintf("unexpected response from %s", endpoint)
		suggestion = "the provider may have changed its response format"
	default:
		message = fmt.Sprintf("network error: %s", endpoint)
		suggestion = "check network connection and try again"
	}

	var result *ConsolidatorError
	if err != nil {
		result = Wrap(err, CategoryNetwork, code, message)
	} else {
		result = New(CategoryNetwork, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("endpoint", endpoint)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ConsolidatorError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *ConsolidatorError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Predicates for the typed error conditions callers branch on.

// IsUnsupportedBank reports whether err is an unsupported-bank error.
func IsUnsupportedBank(err error) bool {
	return hasCode(err, CodeUnsupportedBank)
}

// IsAmbiguousFormat reports whether err is a format auto-detection failure,
// either zero matches or multiple matches.
func IsAmbiguousFormat(err error) bool {
	return hasCode(err, CodeNoFormatMatch) || hasCode(err, CodeMultipleFormatMatch)
}

// IsInvalidRecord reports whether err is a row-granular record validation
// failure.
func IsInvalidRecord(err error) bool {
	return hasCode(err, CodeInvalidRecord)
}

// IsMergeInput reports whether err is an account registry mismatch.
func IsMergeInput(err error) bool {
	return hasCode(err, CodeUnknownAccount)
}

func hasCode(err error, code ErrorCode) bool {
	cerr, ok := AsConsolidatorError(err)
	return ok && cerr.Code == code
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*ConsolidatorError  `json:"errors"`
	SampleErrors []*ConsolidatorError  `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errors []*ConsolidatorError) *ErrorSummary {
	if len(errors) == 0 {
		return &ErrorSummary{
			Total:      0,
			ByCategory: make(map[ErrorCategory]int),
			ByCode:     make(map[ErrorCode]int),
			Errors:     []*ConsolidatorError{},
		}
	}

	summary := &ErrorSummary{
		Total:      len(errors),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errors,
	}

	for _, err := range errors {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errors) > maxSamples {
		summary.SampleErrors = errors[:maxSamples]
	} else {
		summary.SampleErrors = errors
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

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
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

// IsConsolidatorError checks if an error is a ConsolidatorError
func IsConsolidatorError(err error) bool {
	_, ok := err.(*ConsolidatorError)
	return ok
}

// AsConsolidatorError extracts a ConsolidatorError from an error chain
func AsConsolidatorError(err error) (*ConsolidatorError, bool) {
	var consolidatorErr *ConsolidatorError
	if errors.As(err, &consolidatorErr) {
		return consolidatorErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a ConsolidatorError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ConsolidatorError {
	if err == nil {
		return nil
	}

	if consolidatorErr, ok := AsConsolidatorError(err); ok {
		return consolidatorErr
	}

	return Wrap(err, category, code, message)
}
