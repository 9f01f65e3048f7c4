package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// keySep separates dedup key parts. Descriptions can contain most printable
// characters, so a control character keeps keys collision free.
const keySep = "\x1f"

// RawRow is one statement line as read from a source file, before any
// descriptor mapping is applied.
type RawRow struct {
	// Cells holds the row's values in source column order.
	Cells []string `json:"cells"`
	// Index is the zero-based position of the row within the source file.
	Index int `json:"index"`
	// SourceBank is the declared bank, or BankAuto when undetermined.
	SourceBank Bank `json:"source_bank"`
	// SourceFile identifies the file the row was read from.
	SourceFile string `json:"source_file"`
	// Owner is the owning individual, supplied by the caller and never
	// derived from file content.
	Owner string `json:"owner"`
}

// NewRawRow creates a RawRow for the given cells and provenance.
func NewRawRow(cells []string, index int, bank Bank, sourceFile, owner string) RawRow {
	return RawRow{
		Cells:      cells,
		Index:      index,
		SourceBank: bank,
		SourceFile: sourceFile,
		Owner:      owner,
	}
}

// Cell returns the trimmed cell at position i, or "" when the row is too
// short. Bank exports routinely omit trailing cells.
func (r RawRow) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// IsEmpty reports whether every cell is blank.
func (r RawRow) IsEmpty() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// CanonicalRecord is one transaction in the unified schema every bank format
// maps into. Records are immutable once handed to the merge engine.
type CanonicalRecord struct {
	Owner       string              `json:"account_holder"`
	AccountID   string              `json:"account_id"`
	Date        Date                `json:"date"`
	Description string              `json:"description"`
	Debit       decimal.NullDecimal `json:"debit"`
	Credit      decimal.NullDecimal `json:"credit"`
	Balance     decimal.NullDecimal `json:"balance"`
	// ZeroAmount marks an entry whose debit and credit are both explicitly
	// zero, e.g. a balance-only row. Such rows are kept but flagged.
	ZeroAmount bool   `json:"zero_amount,omitempty"`
	SourceBank Bank   `json:"bank"`
	SourceFile string `json:"source_file"`
}

// Amount constructors for the nullable decimal fields.

// NullAmount returns the null (absent) amount.
func NullAmount() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

// Amount wraps a decimal as a present amount.
func Amount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// AmountFromString builds a present amount from a literal, for tests and
// fixtures. It panics on malformed input.
func AmountFromString(s string) decimal.NullDecimal {
	return Amount(decimal.RequireFromString(s))
}

// isPosted reports whether the amount is present and non-zero.
func isPosted(a decimal.NullDecimal) bool {
	return a.Valid && !a.Decimal.IsZero()
}

// amountKey renders an amount for key building: "" when null, otherwise the
// fixed two-decimal form every canonical amount is already rounded to.
func amountKey(a decimal.NullDecimal) string {
	if !a.Valid {
		return ""
	}
	return a.Decimal.StringFixed(2)
}

// Validate checks the canonical invariants: owner, account and source set, a
// real calendar date, non-negative amounts, and exactly one posted side
// unless the record is a flagged zero-amount entry.
func (r *CanonicalRecord) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return fmt.Errorf("account holder cannot be empty")
	}
	if strings.TrimSpace(r.AccountID) == "" {
		return fmt.Errorf("account identifier cannot be empty")
	}
	if !r.Date.Valid() {
		return fmt.Errorf("transaction date must be a valid calendar date")
	}
	if !r.SourceBank.IsValid() {
		return fmt.Errorf("invalid source bank: %s", r.SourceBank)
	}
	if r.Debit.Valid && r.Debit.Decimal.IsNegative() {
		return fmt.Errorf("debit amount cannot be negative: %s", r.Debit.Decimal)
	}
	if r.Credit.Valid && r.Credit.Decimal.IsNegative() {
		return fmt.Errorf("credit amount cannot be negative: %s", r.Credit.Decimal)
	}

	posted := 0
	if isPosted(r.Debit) {
		posted++
	}
	if isPosted(r.Credit) {
		posted++
	}
	switch {
	case posted == 2:
		return fmt.Errorf("record cannot carry both a debit and a credit")
	case posted == 1:
		if r.ZeroAmount {
			return fmt.Errorf("record with a posted amount cannot be flagged zero-amount")
		}
	default:
		if !r.Debit.Valid && !r.Credit.Valid {
			return fmt.Errorf("record carries no amount")
		}
		if !r.ZeroAmount {
			return fmt.Errorf("zero-amount record must be flagged")
		}
	}
	return nil
}

// DuplicateKey identifies the record for exact-duplicate collapsing: owner,
// account, date, description and both amounts. Running balance is excluded
// because overlapping statement ranges can disagree on it for the same
// logical transaction.
func (r *CanonicalRecord) DuplicateKey() string {
	return strings.Join([]string{
		r.Owner,
		r.AccountID,
		r.Date.String(),
		r.Description,
		amountKey(r.Debit),
		amountKey(r.Credit),
	}, keySep)
}

// ConflictKey identifies records that describe the same transaction slot:
// duplicate key minus the amounts. Records sharing a conflict key but not a
// duplicate key disagree on amounts and are both retained.
func (r *CanonicalRecord) ConflictKey() string {
	return strings.Join([]string{
		r.Owner,
		r.AccountID,
		r.Date.String(),
		r.Description,
	}, keySep)
}

// Equal compares two records across every field, balance included.
func (r *CanonicalRecord) Equal(other *CanonicalRecord) bool {
	if other == nil {
		return false
	}
	return r.Owner == other.Owner &&
		r.AccountID == other.AccountID &&
		r.Date.Equal(other.Date) &&
		r.Description == other.Description &&
		nullEqual(r.Debit, other.Debit) &&
		nullEqual(r.Credit, other.Credit) &&
		nullEqual(r.Balance, other.Balance) &&
		r.ZeroAmount == other.ZeroAmount &&
		r.SourceBank == other.SourceBank &&
		r.SourceFile == other.SourceFile
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	return a.Decimal.Equal(b.Decimal)
}

// String returns a compact representation for logs.
func (r *CanonicalRecord) String() string {
	return fmt.Sprintf("CanonicalRecord{Owner: %s, Account: %s, Date: %s, Desc: %s, Debit: %s, Credit: %s}",
		r.Owner, r.AccountID, r.Date, r.Description, amountKey(r.Debit), amountKey(r.Credit))
}

// UnifiedDataset is the ordered result of a merge: records sorted by owner,
// account and date, with input order as the stable tie-break.
type UnifiedDataset struct {
	Records []*CanonicalRecord `json:"records"`
}

// Len returns the number of records.
func (d *UnifiedDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Equal reports whether two datasets hold equal records in the same order.
func (d *UnifiedDataset) Equal(other *UnifiedDataset) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i, r := range d.Records {
		if !r.Equal(other.Records[i]) {
			return false
		}
	}
	return true
}

// Owners returns the distinct owners in dataset order.
func (d *UnifiedDataset) Owners() []string {
	seen := make(map[string]bool)
	var owners []string
	for _, r := range d.Records {
		if !seen[r.Owner] {
			seen[r.Owner] = true
			owners = append(owners, r.Owner)
		}
	}
	return owners
}
