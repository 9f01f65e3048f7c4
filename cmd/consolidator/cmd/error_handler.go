package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	// Log the error
	h.logger.WithError(err).Error("Command failed")

	// Handle ConsolidatorError with detailed information
	if consolidatorErr, ok := errors.AsConsolidatorError(err); ok {
		return h.handleConsolidatorError(consolidatorErr)
	}

	// Handle other error types
	return h.handleGenericError(err)
}

// handleConsolidatorError handles ConsolidatorError with detailed context
func (h *CLIErrorHandler) handleConsolidatorError(err *errors.ConsolidatorError) int {
	// Print the main error message
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	// Add context information if available
	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	// Add suggestion if available
	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	// Add category-specific help
	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	// Show underlying error in verbose mode
	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-ConsolidatorError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	// Check for common system errors and provide better messages
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(os.Stderr, "Error: Insufficient disk space\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	// Generic error handling
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, run with the --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file
• Supported statement formats: CSV, TSV, XLSX and HTML exports`

	case errors.CategoryParse:
		return `Parse error help:
• Verify the statement export is complete and not corrupted
• Check that dates and amounts follow the bank's export format
• Re-download the statement from the bank's portal if rows look damaged
• Use 'consolidator consolidate --help' for the expected file layout`

	case errors.CategoryDetection:
		return `Format detection help:
• Check that the export came straight from the bank's portal unmodified
• Name the file with the bank token to skip detection, e.g. DE_SBI_2021.csv
• Supported banks: MAHARASHTRA, CANARA, ICICI, SBI`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify date formats match the bank's export format
• Ensure amounts are decimal numbers without currency symbols
• Check that a row is either a debit or a credit, not both`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Name statement files <owner>_<bank>_<year>.<ext>
• Verify the accounts YAML syntax if using --accounts
• Use 'consolidator consolidate --help' to see all available options`

	case errors.CategoryMerge:
		return `Merge error help:
• Check that every statement belongs to a known owner and account
• Add missing accounts to the accounts file passed with --accounts
• Use --keep-duplicates to inspect overlapping statements unmerged`

	case errors.CategoryNetwork:
		return `Network error help:
• Check your internet connection
• The provider may be rate limiting; wait a moment and retry
• Cached responses are reused for a day, so repeat runs are cheap
• Use --timeout to allow slower responses`

	default:
		return `For more help:
• Use 'consolidator --help' for general help
• Use 'consolidator consolidate --help' for command-specific help
• Check the documentation for detailed examples
• Report bugs or ask for help on the project repository`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
