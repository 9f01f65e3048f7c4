// Package parsers extracts canonical transaction fields from raw statement
// rows. A format descriptor per bank drives the extraction; rows that fail
// are collected as row errors and never abort the file.
package parsers

import (
	"fmt"
	"time"

	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// FieldValues holds the raw extracted field text of one row, with the date
// already parsed. Amount cells stay untouched strings; cleaning them is the
// normalizer's job.
type FieldValues struct {
	Date        models.Date
	Description string
	Debit       string
	Credit      string
	Amount      string
	Balance     string
}

// ExtractedRow pairs a source row with its extracted field values.
type ExtractedRow struct {
	Row    models.RawRow
	Fields FieldValues
}

// ParseStats summarizes one file's extraction.
type ParseStats struct {
	File        string                `json:"file"`
	Bank        models.Bank           `json:"bank"`
	TotalRows   int                   `json:"total_rows"`
	DataRows    int                   `json:"data_rows"`
	ParsedRows  int                   `json:"parsed_rows"`
	FailedRows  int                   `json:"failed_rows"`
	SkippedRows int                   `json:"skipped_rows"`
	Duration    time.Duration         `json:"duration"`
	Errors      []*apperrors.RowError `json:"errors,omitempty"`
}

// ParserConfig holds configuration options for the statement parser.
type ParserConfig struct {
	// MaxRowErrors caps how many row errors are stored per file.
	// Non-positive means unlimited.
	MaxRowErrors int
	// HeaderSearchRows bounds how many leading rows are scanned when
	// locating the header of a named format.
	HeaderSearchRows int
	Logger           logger.Logger
}

// DefaultParserConfig returns the default parser configuration.
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		MaxRowErrors:     100,
		HeaderSearchRows: 25,
		Logger:           logger.GetGlobalLogger(),
	}
}

// Validate validates the parser configuration.
func (c *ParserConfig) Validate() error {
	if c.HeaderSearchRows <= 0 {
		return fmt.Errorf("header search rows must be positive, got %d", c.HeaderSearchRows)
	}
	return nil
}

// StatementParser turns raw statement rows into extracted field values
// using the format descriptors of a registry.
type StatementParser struct {
	registry *Registry
	config   *ParserConfig
	logger   logger.Logger
}

// NewStatementParser creates a parser over the given registry. A nil config
// uses defaults.
func NewStatementParser(registry *Registry, config *ParserConfig) (*StatementParser, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = DefaultParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser configuration: %w", err)
	}
	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &StatementParser{
		registry: registry,
		config:   config,
		logger:   log.WithComponent("parser"),
	}, nil
}

// Parse extracts the transaction rows of one statement file. The bank may
// be BankAuto, in which case the format is detected from the leading rows.
// Row-level failures land in the returned stats; only descriptor resolution
// and header problems are fatal.
func (p *StatementParser) Parse(file, owner string, bank models.Bank, rows [][]string) ([]*ExtractedRow, *ParseStats, error) {
	start := time.Now()

	descriptor, err := p.resolveDescriptor(file, bank, rows)
	if err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{
		File:      file,
		Bank:      descriptor.Bank,
		TotalRows: len(rows),
	}
	collector := apperrors.NewRowErrorCollector(p.config.MaxRowErrors)

	data, firstIndex, err := p.dataRows(file, descriptor, rows)
	if err != nil {
		return nil, nil, err
	}
	stats.DataRows = len(data)

	columns, err := p.resolveColumns(file, descriptor, rows)
	if err != nil {
		return nil, nil, err
	}

	extracted := make([]*ExtractedRow, 0, len(data))
	for i, cells := range data {
		row := models.NewRawRow(cells, firstIndex+i, descriptor.Bank, file, owner)
		if row.IsEmpty() {
			stats.SkippedRows++
			continue
		}

		fields, rowErr, skip := p.extractRow(descriptor, columns, row)
		if skip {
			stats.SkippedRows++
			continue
		}
		if rowErr != nil {
			collector.Add(rowErr)
			continue
		}

		extracted = append(extracted, &ExtractedRow{Row: row, Fields: fields})
		stats.ParsedRows++
	}

	stats.Errors = collector.Errors()
	stats.FailedRows = collector.Count()
	stats.Duration = time.Since(start)

	p.logger.WithFields(logger.Fields{
		"file":   file,
		"bank":   descriptor.Bank,
		"parsed": stats.ParsedRows,
		"failed": stats.FailedRows,
	}).Debug("Parsed statement rows")

	return extracted, stats, nil
}

// resolveDescriptor picks the format descriptor, auto-detecting from the
// leading rows when the bank is not given explicitly.
func (p *StatementParser) resolveDescriptor(file string, bank models.Bank, rows [][]string) (*BankFormatDescriptor, error) {
	if !bank.IsAuto() {
		return p.registry.Resolve(bank)
	}

	limit := p.config.HeaderSearchRows
	if limit > len(rows) {
		limit = len(rows)
	}
	var lastErr error
	for i := 0; i < limit; i++ {
		d, err := p.registry.DetectHeader(file, rows[i])
		if err == nil {
			return d, nil
		}
		cerr, _ := apperrors.AsConsolidatorError(err)
		if cerr != nil && cerr.Code == apperrors.CodeMultipleFormatMatch {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = apperrors.NoFormatMatch(file)
	}
	return nil, lastErr
}

// dataRows slices the raw rows down to transaction rows, honoring the
// descriptor's header position and its leading and trailing non-data rows.
// It returns the rows with the source index of the first one.
func (p *StatementParser) dataRows(file string, d *BankFormatDescriptor, rows [][]string) ([][]string, int, error) {
	var first int
	if d.Positional {
		first = d.HeaderRowsBeforeData
	} else {
		headerIdx := p.findHeaderRow(d, rows)
		if headerIdx < 0 {
			return nil, 0, apperrors.ParseError(apperrors.CodeHeaderNotFound, file,
				fmt.Sprintf("no row with the %s header columns", d.Bank), nil)
		}
		first = headerIdx + 1 + d.SkipLeadingRows
	}

	if first >= len(rows) {
		return nil, first, nil
	}
	data := rows[first:]
	if d.DropTrailingRows > 0 {
		if d.DropTrailingRows >= len(data) {
			return nil, first, nil
		}
		data = data[:len(data)-d.DropTrailingRows]
	}
	return data, first, nil
}

func (p *StatementParser) findHeaderRow(d *BankFormatDescriptor, rows [][]string) int {
	limit := p.config.HeaderSearchRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		if headerHasColumns(d, rows[i]) {
			return i
		}
	}
	return -1
}

// headerHasColumns reports whether the row carries every mapped column
// title. Unlike signature matching this ignores disambiguation columns, so
// an explicitly identified bank parses even without them.
func headerHasColumns(d *BankFormatDescriptor, row []string) bool {
	present := make(map[string]bool, len(row))
	for _, cell := range row {
		present[normalizeHeader(cell)] = true
	}
	for _, ref := range d.Columns {
		if !present[normalizeHeader(ref.Header)] {
			return false
		}
	}
	return true
}

// resolveColumns maps each canonical field to its cell index.
func (p *StatementParser) resolveColumns(file string, d *BankFormatDescriptor, rows [][]string) (map[Field]int, error) {
	columns := make(map[Field]int, len(d.Columns))

	if d.Positional {
		for field, ref := range d.Columns {
			columns[field] = ref.Index
		}
		return columns, nil
	}

	headerIdx := p.findHeaderRow(d, rows)
	if headerIdx < 0 {
		return nil, apperrors.ParseError(apperrors.CodeHeaderNotFound, file,
			fmt.Sprintf("no row with the %s header columns", d.Bank), nil)
	}
	header := rows[headerIdx]

	byTitle := make(map[string]int, len(header))
	for i, cell := range header {
		title := normalizeHeader(cell)
		if _, seen := byTitle[title]; !seen {
			byTitle[title] = i
		}
	}
	for field, ref := range d.Columns {
		idx, ok := byTitle[normalizeHeader(ref.Header)]
		if !ok {
			return nil, apperrors.ParseError(apperrors.CodeMissingColumn, file, ref.Header, nil)
		}
		columns[field] = idx
	}
	return columns, nil
}

// extractRow pulls the mapped cells out of one row. It returns skip=true
// for rows the descriptor drops silently.
func (p *StatementParser) extractRow(d *BankFormatDescriptor, columns map[Field]int, row models.RawRow) (FieldValues, *apperrors.RowError, bool) {
	var fields FieldValues

	if d.DropIncompleteRows {
		for _, idx := range columns {
			if row.Cell(idx) == "" {
				return fields, nil, true
			}
		}
	}

	dateCell := row.Cell(columns[FieldDate])
	if dateCell == "" {
		return fields, apperrors.RowMissingField(row.SourceFile, row.Index, string(FieldDate)), false
	}
	dateText := dateCell
	if d.DateRegex != nil {
		dateText = d.DateRegex.FindString(dateCell)
		if dateText == "" {
			return fields, apperrors.RowInvalidDate(row.SourceFile, row.Index, dateCell, nil), false
		}
	}
	date, err := models.ParseDateLayout(d.DateLayout, dateText)
	if err != nil {
		return fields, apperrors.RowInvalidDate(row.SourceFile, row.Index, dateCell, err), false
	}
	fields.Date = date

	fields.Description = row.Cell(columns[FieldDescription])
	fields.Balance = row.Cell(columns[FieldBalance])

	switch d.Sign {
	case SignSignedAmount:
		fields.Amount = row.Cell(columns[FieldAmount])
	default:
		fields.Debit = row.Cell(columns[FieldDebit])
		fields.Credit = row.Cell(columns[FieldCredit])
	}

	return fields, nil, false
}
