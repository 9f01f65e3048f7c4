// Package reporter renders merge results: a console view with summary
// tables, a CSV export of the unified records, and a JSON document for
// downstream tooling.
//
// Supported output formats:
//   - Console: Human-readable tabular output for terminal display
//   - JSON: Structured data format for programmatic consumption
//   - CSV: Comma-separated format for spreadsheet applications
//
// The CSV export uses the canonical column order shared by every consumer
// of consolidated statements: date, description, credit, debit, balance,
// bank, account holder.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"golang-consolidation-service/internal/merger"
	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// OutputFormat represents the supported report formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	}
	return false
}

// exportColumns is the canonical export column order.
var exportColumns = []string{
	"date", "description", "credit", "debit", "balance", "bank", "account_holder",
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`
	// CSVDelimiter is the field separator for CSV output.
	CSVDelimiter rune `json:"csv_delimiter"`
	// IncludeHeaders controls the CSV header row.
	IncludeHeaders bool `json:"include_headers"`
	// IncludeSummary controls the summary tables in console output.
	IncludeSummary bool `json:"include_summary"`
	// IncludeRowErrors controls the per-file row error section.
	IncludeRowErrors bool `json:"include_row_errors"`
	// MaxConsoleRecords caps the transaction listing in console output.
	// Non-positive means unlimited.
	MaxConsoleRecords int `json:"max_console_records"`
}

// DefaultReportConfig returns the default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		CSVDelimiter:      ',',
		IncludeHeaders:    true,
		IncludeSummary:    true,
		IncludeRowErrors:  true,
		MaxConsoleRecords: 50,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter cannot be empty")
	}
	return nil
}

// Report is the material a report renders: the merged records, the
// statistics of the run that produced them, and the rows that failed.
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	BatchID     string                    `json:"batch_id,omitempty"`
	FilesLoaded int                       `json:"files_loaded"`
	Merge       *merger.MergeStats        `json:"merge,omitempty"`
	Records     []*models.CanonicalRecord `json:"records"`
	RowErrors   []*apperrors.RowError     `json:"row_errors,omitempty"`
}

// ReportGenerator renders reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
	logger logger.Logger
}

// NewReportGenerator creates a report generator. A nil config uses
// defaults.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{
		config: config,
		logger: logger.WithComponent("reporter"),
	}, nil
}

// Generate renders the report to the writer in the configured format.
func (rg *ReportGenerator) Generate(report *Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.generateJSON(report, writer)
	case FormatCSV:
		return rg.generateCSV(report, writer)
	default:
		return rg.generateConsole(report, writer)
	}
}

func (rg *ReportGenerator) generateJSON(report *Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

func (rg *ReportGenerator) generateCSV(report *Report, writer io.Writer) error {
	return WriteRecordsCSV(writer, report.Records, rg.config.CSVDelimiter, rg.config.IncludeHeaders)
}

// WriteRecordsCSV writes records in the canonical export column order.
// It also serves the per-year exports of segregated multi-year files.
func WriteRecordsCSV(writer io.Writer, records []*models.CanonicalRecord, delimiter rune, headers bool) error {
	w := csv.NewWriter(writer)
	w.Comma = delimiter

	if headers {
		if err := w.Write(exportColumns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	for _, r := range records {
		row := []string{
			r.Date.String(),
			r.Description,
			amountCell(r.Credit),
			amountCell(r.Debit),
			amountCell(r.Balance),
			string(r.SourceBank),
			r.Owner,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) generateConsole(report *Report, writer io.Writer) error {
	fmt.Fprintf(writer, "Statement Consolidation Report\n")
	fmt.Fprintf(writer, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	if report.BatchID != "" {
		fmt.Fprintf(writer, "Batch: %s\n", report.BatchID)
	}
	fmt.Fprintln(writer)

	if rg.config.IncludeSummary {
		rg.printSummaryTable(report, writer)
	}
	rg.printRecordTable(report.Records, writer)

	if rg.config.IncludeRowErrors && len(report.RowErrors) > 0 {
		printRowErrors(report.RowErrors, writer)
	}
	return nil
}

func (rg *ReportGenerator) printSummaryTable(report *Report, writer io.Writer) {
	fmt.Fprintln(writer, "SUMMARY")
	fmt.Fprintln(writer, "=======")
	fmt.Fprintf(writer, "%-25s %d\n", "Files loaded:", report.FilesLoaded)
	if report.Merge != nil {
		fmt.Fprintf(writer, "%-25s %d\n", "Input records:", report.Merge.InputRecords)
		fmt.Fprintf(writer, "%-25s %d\n", "Output records:", report.Merge.OutputRecords)
		fmt.Fprintf(writer, "%-25s %d\n", "Duplicates removed:", report.Merge.DuplicatesRemoved)
		fmt.Fprintf(writer, "%-25s %d\n", "Amount conflicts:", report.Merge.Conflicts)
		fmt.Fprintf(writer, "%-25s %d\n", "Zero-amount records:", report.Merge.ZeroAmountRecords)
	}
	fmt.Fprintf(writer, "%-25s %d\n", "Row errors:", len(report.RowErrors))
	fmt.Fprintln(writer)
}

func (rg *ReportGenerator) printRecordTable(records []*models.CanonicalRecord, writer io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(writer, "No records.")
		return
	}

	fmt.Fprintln(writer, "TRANSACTIONS")
	fmt.Fprintln(writer, "============")
	fmt.Fprintf(writer, "%-12s %-40s %12s %12s %14s %-12s %-8s\n",
		"Date", "Description", "Credit", "Debit", "Balance", "Bank", "Owner")

	limit := len(records)
	truncated := false
	if rg.config.MaxConsoleRecords > 0 && limit > rg.config.MaxConsoleRecords {
		limit = rg.config.MaxConsoleRecords
		truncated = true
	}
	for _, r := range records[:limit] {
		fmt.Fprintf(writer, "%-12s %-40s %12s %12s %14s %-12s %-8s\n",
			r.Date.String(),
			truncate(r.Description, 40),
			amountCell(r.Credit),
			amountCell(r.Debit),
			amountCell(r.Balance),
			r.SourceBank,
			r.Owner)
	}
	if truncated {
		fmt.Fprintf(writer, "... and %d more records (use csv or json output for the full set)\n",
			len(records)-limit)
	}
	fmt.Fprintln(writer)
}

func amountCell(a decimal.NullDecimal) string {
	if !a.Valid {
		return ""
	}
	return a.Decimal.StringFixed(2)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
