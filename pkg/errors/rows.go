package errors

import (
	"fmt"
	"sort"
)

// RowError is a ConsolidatorError tied to one row of one statement file.
// Row errors are collected during parsing and normalization; a row error
// never aborts the batch.
type RowError struct {
	*ConsolidatorError
	File  string `json:"file"`
	Row   int    `json:"row"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// NewRowError wraps a ConsolidatorError with its row position.
func NewRowError(base *ConsolidatorError, file string, row int) *RowError {
	return &RowError{
		ConsolidatorError: base,
		File:              file,
		Row:               row,
	}
}

// WithRowField records which field of the row failed and its raw value.
func (e *RowError) WithRowField(field, value string) *RowError {
	e.Field = field
	e.Value = value
	e.ConsolidatorError = e.ConsolidatorError.
		WithContext("field", field).
		WithContext("value", value)
	return e
}

// Unwrap exposes the underlying ConsolidatorError to errors.As chains.
func (e *RowError) Unwrap() error {
	return e.ConsolidatorError
}

// Error includes the row position in the message.
func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s:%d [%s] %s", e.File, e.Row, e.Field, e.ConsolidatorError.Error())
	}
	return fmt.Sprintf("%s:%d %s", e.File, e.Row, e.ConsolidatorError.Error())
}

// Row error constructors for the common parse and normalization failures.

// RowInvalidDate reports a date cell that does not match the bank's layout.
func RowInvalidDate(file string, row int, value string, err error) *RowError {
	base := ValidationError(CodeInvalidDate, "date", value, err)
	return NewRowError(base, file, row).WithRowField("date", value)
}

// RowInvalidAmount reports an amount cell that cannot be parsed as a decimal.
func RowInvalidAmount(file string, row int, field, value string, err error) *RowError {
	base := ValidationError(CodeInvalidAmount, field, value, err)
	return NewRowError(base, file, row).WithRowField(field, value)
}

// RowMissingField reports a required cell that is empty or absent.
func RowMissingField(file string, row int, field string) *RowError {
	base := ValidationError(CodeMissingField, field, "", nil)
	return NewRowError(base, file, row).WithRowField(field, "")
}

// RowInvalidRecord reports a row that fails record-level validation.
func RowInvalidRecord(file string, row int, reason string, err error) *RowError {
	return NewRowError(InvalidRecord(file, row, reason, err), file, row)
}

// RowErrorCollector accumulates row errors up to a configurable cap.
// Once the cap is reached further errors are counted but not stored.
type RowErrorCollector struct {
	maxErrors int
	dropped   int
	errors    []*RowError
}

// NewRowErrorCollector creates a collector storing at most maxErrors errors.
// A non-positive cap means unlimited.
func NewRowErrorCollector(maxErrors int) *RowErrorCollector {
	return &RowErrorCollector{maxErrors: maxErrors}
}

// Add records a row error.
func (c *RowErrorCollector) Add(err *RowError) {
	if err == nil {
		return
	}
	if c.maxErrors > 0 && len(c.errors) >= c.maxErrors {
		c.dropped++
		return
	}
	c.errors = append(c.errors, err)
}

// HasErrors reports whether any error was recorded.
func (c *RowErrorCollector) HasErrors() bool {
	return len(c.errors) > 0 || c.dropped > 0
}

// Count returns the total number of errors recorded, including dropped ones.
func (c *RowErrorCollector) Count() int {
	return len(c.errors) + c.dropped
}

// Errors returns the stored row errors.
func (c *RowErrorCollector) Errors() []*RowError {
	return c.errors
}

// Summary builds an ErrorSummary over the stored errors.
func (c *RowErrorCollector) Summary() *ErrorSummary {
	base := make([]*ConsolidatorError, len(c.errors))
	for i, e := range c.errors {
		base[i] = e.ConsolidatorError
	}
	return NewErrorSummary(base)
}

// GroupRowErrorsByFile groups row errors by source file, each group ordered
// by row. File keys are returned in sorted order for stable reports.
func GroupRowErrorsByFile(errs []*RowError) ([]string, map[string][]*RowError) {
	groups := make(map[string][]*RowError)
	for _, e := range errs {
		groups[e.File] = append(groups[e.File], e)
	}

	files := make([]string, 0, len(groups))
	for file, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].Row < group[j].Row })
		files = append(files, file)
	}
	sort.Strings(files)
	return files, groups
}
