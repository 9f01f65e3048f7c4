// Package normalizer turns extracted statement fields into canonical
// records: cleaned decimal amounts rounded to two places, debit and credit
// split per the bank's sign convention, and record invariants enforced.
package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"golang-consolidation-service/internal/models"
	"golang-consolidation-service/internal/parsers"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// Normalizer converts extracted rows into canonical records. It is
// stateless and safe for concurrent use.
type Normalizer struct {
	registry *parsers.Registry
	logger   logger.Logger
}

// NewNormalizer creates a normalizer over the given descriptor registry.
func NewNormalizer(registry *parsers.Registry) *Normalizer {
	if registry == nil {
		registry = parsers.NewRegistry()
	}
	return &Normalizer{
		registry: registry,
		logger:   logger.WithComponent("normalizer"),
	}
}

// Normalize converts one extracted row into a canonical record bound to the
// given account. Failures are row errors; they never abort the batch.
func (n *Normalizer) Normalize(ex *parsers.ExtractedRow, accountID string) (*models.CanonicalRecord, *apperrors.RowError) {
	row := ex.Row
	descriptor, err := n.registry.Resolve(row.SourceBank)
	if err != nil {
		cerr, _ := apperrors.AsConsolidatorError(err)
		return nil, apperrors.NewRowError(cerr, row.SourceFile, row.Index)
	}

	if !ex.Fields.Date.Valid() {
		return nil, apperrors.RowInvalidDate(row.SourceFile, row.Index, ex.Fields.Date.String(), nil)
	}

	record := &models.CanonicalRecord{
		Owner:       row.Owner,
		AccountID:   accountID,
		Date:        ex.Fields.Date,
		Description: strings.TrimSpace(ex.Fields.Description),
		SourceBank:  row.SourceBank,
		SourceFile:  row.SourceFile,
	}

	if balance, ok, rowErr := n.parseAmount(row, "balance", ex.Fields.Balance); rowErr != nil {
		return nil, rowErr
	} else if ok {
		record.Balance = models.Amount(balance)
	}

	var rowErr *apperrors.RowError
	if descriptor.Sign == parsers.SignSignedAmount {
		rowErr = n.splitSignedAmount(row, ex.Fields.Amount, record)
	} else {
		rowErr = n.splitColumns(row, ex.Fields, record)
	}
	if rowErr != nil {
		return nil, rowErr
	}

	if err := record.Validate(); err != nil {
		return nil, apperrors.RowInvalidRecord(row.SourceFile, row.Index, err.Error(), err)
	}
	return record, nil
}

// NormalizeAll converts a batch of extracted rows, collecting row errors.
func (n *Normalizer) NormalizeAll(rows []*parsers.ExtractedRow, accountID string) ([]*models.CanonicalRecord, []*apperrors.RowError) {
	records := make([]*models.CanonicalRecord, 0, len(rows))
	var errs []*apperrors.RowError

	for _, ex := range rows {
		record, rowErr := n.Normalize(ex, accountID)
		if rowErr != nil {
			errs = append(errs, rowErr)
			continue
		}
		records = append(records, record)
	}

	if len(errs) > 0 {
		n.logger.WithFields(logger.Fields{
			"account": accountID,
			"records": len(records),
			"errors":  len(errs),
		}).Warn("Some rows failed normalization")
	}
	return records, errs
}

// splitColumns handles formats with separate debit and credit columns.
// Blank cells mean zero; both sides zero is a flagged zero-amount entry.
func (n *Normalizer) splitColumns(row models.RawRow, fields parsers.FieldValues, record *models.CanonicalRecord) *apperrors.RowError {
	debit, _, rowErr := n.parseAmount(row, "debit", fields.Debit)
	if rowErr != nil {
		return rowErr
	}
	credit, _, rowErr := n.parseAmount(row, "credit", fields.Credit)
	if rowErr != nil {
		return rowErr
	}

	switch {
	case !debit.IsZero() && !credit.IsZero():
		return apperrors.RowInvalidRecord(row.SourceFile, row.Index,
			"row carries both a debit and a credit", nil)
	case !debit.IsZero():
		record.Debit = models.Amount(debit)
	case !credit.IsZero():
		record.Credit = models.Amount(credit)
	default:
		record.Debit = models.Amount(decimal.Zero)
		record.Credit = models.Amount(decimal.Zero)
		record.ZeroAmount = true
	}
	return nil
}

// splitSignedAmount handles single-column formats: a negative amount is a
// debit, a positive one a credit.
func (n *Normalizer) splitSignedAmount(row models.RawRow, raw string, record *models.CanonicalRecord) *apperrors.RowError {
	amount, _, rowErr := n.parseAmount(row, "amount", raw)
	if rowErr != nil {
		return rowErr
	}

	switch {
	case amount.IsNegative():
		record.Debit = models.Amount(amount.Neg())
	case amount.IsPositive():
		record.Credit = models.Amount(amount)
	default:
		record.Debit = models.Amount(decimal.Zero)
		record.Credit = models.Amount(decimal.Zero)
		record.ZeroAmount = true
	}
	return nil
}

// parseAmount cleans and parses one amount cell. A blank cell yields zero
// with ok=false so callers can tell absent from explicit zero.
func (n *Normalizer) parseAmount(row models.RawRow, field, raw string) (decimal.Decimal, bool, *apperrors.RowError) {
	cleaned := CleanAmount(raw)
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, false, nil
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, apperrors.RowInvalidAmount(row.SourceFile, row.Index, field, raw, err)
	}
	return amount.RoundBank(2), true, nil
}

// CleanAmount strips currency symbols, thousands separators and other
// noise from an amount cell, keeping digits, the decimal point and a
// leading minus sign.
func CleanAmount(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var b strings.Builder
	negative := strings.HasPrefix(raw, "-")
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
