package parsers

import (
	"regexp"
	"sort"
	"strings"

	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
)

// Field identifies a canonical field a statement column maps into.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldAmount      Field = "amount"
	FieldBalance     Field = "balance"
)

// SignConvention describes how a format encodes the direction of money.
type SignConvention string

const (
	// SignSplitColumns formats carry separate debit and credit columns.
	SignSplitColumns SignConvention = "split_columns"
	// SignSignedAmount formats carry one amount column where a negative
	// value is a debit and a positive value is a credit.
	SignSignedAmount SignConvention = "signed_amount"
)

// ColumnRef locates a canonical field in the source, by header title for
// named formats or by position for positional formats.
type ColumnRef struct {
	Header string
	Index  int
}

// BankFormatDescriptor captures everything needed to extract canonical
// fields from one bank's statement export: column mapping, date layout,
// sign convention and the non-data rows to skip.
type BankFormatDescriptor struct {
	Bank models.Bank

	// Positional formats locate columns by index because the export has
	// no usable header row. They never take part in auto-detection.
	Positional bool

	Columns map[Field]ColumnRef

	// DateLayout is the Go reference layout the bank's date cells use.
	DateLayout string
	// DateRegex, when set, extracts the date substring from the cell
	// before layout parsing. Some exports append noise to dates.
	DateRegex *regexp.Regexp

	Sign SignConvention

	// HeaderRowsBeforeData is how many leading raw rows precede the data
	// in positional formats.
	HeaderRowsBeforeData int
	// SkipLeadingRows is how many data rows after the header are summary
	// rows rather than transactions.
	SkipLeadingRows int
	// DropTrailingRows is how many rows at the end are footers.
	DropTrailingRows int

	// DropIncompleteRows silently skips rows with any empty mapped cell
	// instead of reporting them. Positional exports pad with such rows.
	DropIncompleteRows bool

	// Signature lists the header titles that uniquely identify this
	// format during auto-detection. Empty for positional formats.
	Signature []string
}

// RequiredColumns returns the canonical fields the descriptor maps.
func (d *BankFormatDescriptor) RequiredColumns() []Field {
	fields := make([]Field, 0, len(d.Columns))
	for f := range d.Columns {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// MatchesHeader reports whether every signature title appears in the header
// row, ignoring case and surrounding whitespace.
func (d *BankFormatDescriptor) MatchesHeader(header []string) bool {
	if d.Positional || len(d.Signature) == 0 {
		return false
	}

	present := make(map[string]bool, len(header))
	for _, cell := range header {
		present[normalizeHeader(cell)] = true
	}
	for _, title := range d.Signature {
		if !present[normalizeHeader(title)] {
			return false
		}
	}
	return true
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Registry holds the known bank format descriptors.
type Registry struct {
	descriptors map[models.Bank]*BankFormatDescriptor
	order       []models.Bank
}

// NewRegistry creates a registry populated with the built-in bank formats.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[models.Bank]*BankFormatDescriptor)}
	for _, d := range builtinDescriptors() {
		r.Register(d)
	}
	return r
}

// Register adds or replaces the descriptor for its bank.
func (r *Registry) Register(d *BankFormatDescriptor) {
	if _, exists := r.descriptors[d.Bank]; !exists {
		r.order = append(r.order, d.Bank)
	}
	r.descriptors[d.Bank] = d
}

// Banks returns the registered banks in registration order.
func (r *Registry) Banks() []models.Bank {
	return append([]models.Bank(nil), r.order...)
}

// Resolve returns the descriptor for an explicitly identified bank.
func (r *Registry) Resolve(bank models.Bank) (*BankFormatDescriptor, error) {
	d, ok := r.descriptors[bank]
	if !ok {
		return nil, apperrors.UnsupportedBank(string(bank))
	}
	return d, nil
}

// DetectHeader finds the unique named format whose signature matches the
// header row. Zero matches and multiple matches are distinct errors; the
// caller should fall back to an explicit bank identifier in either case.
func (r *Registry) DetectHeader(file string, header []string) (*BankFormatDescriptor, error) {
	var matches []*BankFormatDescriptor
	for _, bank := range r.order {
		d := r.descriptors[bank]
		if d.MatchesHeader(header) {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return nil, apperrors.NoFormatMatch(file)
	case 1:
		return matches[0], nil
	default:
		banks := make([]string, len(matches))
		for i, d := range matches {
			banks[i] = string(d.Bank)
		}
		return nil, apperrors.MultipleFormatMatches(file, banks)
	}
}

var canaraDateRe = regexp.MustCompile(`\d{2}-\d{2}-\d{4}`)

// builtinDescriptors defines the four supported bank export formats.
func builtinDescriptors() []*BankFormatDescriptor {
	return []*BankFormatDescriptor{
		{
			// HTML export; the first data row is an opening summary and
			// the last row is a footer total.
			Bank: models.BankMaharashtra,
			Columns: map[Field]ColumnRef{
				FieldDate:        {Header: "Date"},
				FieldDescription: {Header: "Particulars"},
				FieldDebit:       {Header: "Withdrawals"},
				FieldCredit:      {Header: "Deposits"},
				FieldBalance:     {Header: "Balance"},
			},
			DateLayout:       "02/01/06",
			Sign:             SignSplitColumns,
			SkipLeadingRows:  1,
			DropTrailingRows: 1,
			Signature:        []string{"Date", "Particulars", "Withdrawals", "Deposits", "Balance"},
		},
		{
			// Date cells carry trailing noise, so the date substring is
			// extracted before parsing.
			Bank: models.BankCanara,
			Columns: map[Field]ColumnRef{
				FieldDate:        {Header: "Txn Date"},
				FieldDescription: {Header: "Description"},
				FieldDebit:       {Header: "Debit"},
				FieldCredit:      {Header: "Credit"},
				FieldBalance:     {Header: "Balance"},
			},
			DateLayout: "02-01-2006",
			DateRegex:  canaraDateRe,
			Sign:       SignSplitColumns,
			Signature:  []string{"Txn Date", "Description", "Debit", "Credit", "Balance", "Branch Code"},
		},
		{
			// XLSX export with twelve rows of account metadata before the
			// data and no parseable header row.
			Bank:       models.BankICICI,
			Positional: true,
			Columns: map[Field]ColumnRef{
				FieldDate:        {Index: 2},
				FieldDescription: {Index: 5},
				FieldDebit:       {Index: 6},
				FieldCredit:      {Index: 7},
				FieldBalance:     {Index: 8},
			},
			DateLayout:           "02/01/2006",
			Sign:                 SignSplitColumns,
			HeaderRowsBeforeData: 12,
			DropIncompleteRows:   true,
		},
		{
			Bank: models.BankSBI,
			Columns: map[Field]ColumnRef{
				FieldDate:        {Header: "Txn Date"},
				FieldDescription: {Header: "Description"},
				FieldDebit:       {Header: "Debit"},
				FieldCredit:      {Header: "Credit"},
				FieldBalance:     {Header: "Balance"},
			},
			DateLayout:       "02 Jan 2006",
			Sign:             SignSplitColumns,
			DropTrailingRows: 1,
			Signature:        []string{"Txn Date", "Description", "Debit", "Credit", "Balance", "Ref No./Cheque No."},
		},
	}
}
