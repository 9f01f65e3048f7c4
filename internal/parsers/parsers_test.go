package parsers

import (
	"testing"

	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
)

func newTestParser(t *testing.T) *StatementParser {
	t.Helper()
	p, err := NewStatementParser(NewRegistry(), nil)
	if err != nil {
		t.Fatalf("NewStatementParser failed: %v", err)
	}
	return p
}

// maharashtraRows builds a Bank of Maharashtra style export: header, an
// opening summary row, transactions, and a footer total.
func maharashtraRows() [][]string {
	return [][]string{
		{"Date", "Particulars", "Cheque No", "Withdrawals", "Deposits", "Balance"},
		{"01/04/21", "B/F", "", "", "", "10,000.00"},
		{"05/04/21", "UPI/CR/1234/GROCER", "", "", "1,500.00", "11,500.00"},
		{"07/04/21", "ATM WDL", "", "2,000.00", "", "9,500.00"},
		{"", "TOTAL", "", "2,000.00", "1,500.00", ""},
	}
}

func canaraRows() [][]string {
	return [][]string{
		{"Txn Date", "Value Date", "Cheque No.", "Description", "Branch Code", "Debit", "Credit", "Balance"},
		{"05-04-2021 12:01:33", "05-04-2021", "", "NEFT-HDFC0000001-SALARY", "1234", "", "50,000.00", "60,000.00"},
		{"09-04-2021 08:15:00", "09-04-2021", "", "POS 4012 AMAZON", "1234", "1,299.00", "", "58,701.00"},
	}
}

func sbiRows() [][]string {
	return [][]string{
		{"Txn Date", "Value Date", "Description", "Ref No./Cheque No.", "        Debit", "Credit", "Balance"},
		{"05 Apr 2021", "05 Apr 2021", "BY TRANSFER-UPI", "", "", "2,500.00", "12,500.00"},
		{"12 Apr 2021", "12 Apr 2021", "TO TRANSFER-NEFT", "", "1,000.00", "", "11,500.00"},
		{"Computer generated statement", "", "", "", "", "", ""},
	}
}

// iciciRows builds an ICICI style export: twelve metadata rows, then
// positional data with the date in column 2.
func iciciRows() [][]string {
	rows := make([][]string, 0, 15)
	for i := 0; i < 12; i++ {
		rows = append(rows, []string{"", "DETAILS OF ACCOUNT"})
	}
	rows = append(rows,
		[]string{"", "1", "05/04/2021", "05/04/2021", "MODE", "UPI/1111/PAYMENT", "500.00", "0", "9,500.00"},
		[]string{"", "2", "08/04/2021", "08/04/2021", "MODE", "SALARY APR", "0", "45,000.00", "54,500.00"},
		[]string{"", "", "", "", "", "", "", "", ""},
	)
	return rows
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()

	for _, bank := range models.SupportedBanks() {
		d, err := r.Resolve(bank)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", bank, err)
		}
		if d.Bank != bank {
			t.Errorf("Resolve(%s) returned descriptor for %s", bank, d.Bank)
		}
		if d.DateLayout == "" {
			t.Errorf("%s descriptor has no date layout", bank)
		}
	}

	_, err := r.Resolve(models.Bank("HDFC"))
	if !apperrors.IsUnsupportedBank(err) {
		t.Errorf("Resolve of unknown bank should be an unsupported-bank error, got %v", err)
	}
}

func TestRegistry_DetectHeader(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		header   []string
		wantBank models.Bank
		wantErr  func(error) bool
	}{
		{
			name:     "maharashtra header",
			header:   maharashtraRows()[0],
			wantBank: models.BankMaharashtra,
		},
		{
			name:     "canara header",
			header:   canaraRows()[0],
			wantBank: models.BankCanara,
		},
		{
			name:     "sbi header with padded titles",
			header:   sbiRows()[0],
			wantBank: models.BankSBI,
		},
		{
			name:    "no match",
			header:  []string{"Posting Date", "Narrative", "Amount"},
			wantErr: apperrors.IsAmbiguousFormat,
		},
		{
			name:    "shared columns without disambiguators",
			header:  []string{"Txn Date", "Description", "Debit", "Credit", "Balance"},
			wantErr: apperrors.IsAmbiguousFormat,
		},
		{
			name: "multiple matches",
			header: []string{"Txn Date", "Description", "Debit", "Credit", "Balance",
				"Branch Code", "Ref No./Cheque No."},
			wantErr: apperrors.IsAmbiguousFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := r.DetectHeader("test.csv", tt.header)
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Fatalf("expected detection error, got descriptor=%v err=%v", d, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectHeader failed: %v", err)
			}
			if d.Bank != tt.wantBank {
				t.Errorf("detected %s, want %s", d.Bank, tt.wantBank)
			}
		})
	}
}

func TestRegistry_PositionalExcludedFromDetection(t *testing.T) {
	r := NewRegistry()
	icici, err := r.Resolve(models.BankICICI)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !icici.Positional {
		t.Fatal("ICICI descriptor should be positional")
	}
	if icici.MatchesHeader([]string{"anything"}) {
		t.Error("positional descriptors must never match a header")
	}
}

func TestParse_Maharashtra(t *testing.T) {
	p := newTestParser(t)

	extracted, stats, err := p.Parse("DE_MAHARASHTRA_2021.html", "DE", models.BankMaharashtra, maharashtraRows())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// summary row and footer are dropped
	if len(extracted) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(extracted))
	}
	if stats.ParsedRows != 2 || stats.FailedRows != 0 {
		t.Errorf("unexpected stats: parsed=%d failed=%d", stats.ParsedRows, stats.FailedRows)
	}

	first := extracted[0]
	if !first.Fields.Date.Equal(models.NewDate(2021, 4, 5)) {
		t.Errorf("date = %s, want 2021-04-05", first.Fields.Date)
	}
	if first.Fields.Description != "UPI/CR/1234/GROCER" {
		t.Errorf("description = %q", first.Fields.Description)
	}
	if first.Fields.Credit != "1,500.00" || first.Fields.Debit != "" {
		t.Errorf("amounts = debit %q credit %q", first.Fields.Debit, first.Fields.Credit)
	}
	if first.Row.Owner != "DE" || first.Row.SourceBank != models.BankMaharashtra {
		t.Errorf("provenance = %s/%s", first.Row.Owner, first.Row.SourceBank)
	}

	second := extracted[1]
	if second.Fields.Debit != "2,000.00" || second.Fields.Balance != "9,500.00" {
		t.Errorf("second row = debit %q balance %q", second.Fields.Debit, second.Fields.Balance)
	}
}

func TestParse_CanaraDateExtraction(t *testing.T) {
	p := newTestParser(t)

	extracted, _, err := p.Parse("DE_CANARA_2021.csv", "DE", models.BankCanara, canaraRows())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(extracted) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(extracted))
	}

	// the timestamp suffix after the date must be ignored
	if !extracted[0].Fields.Date.Equal(models.NewDate(2021, 4, 5)) {
		t.Errorf("date = %s, want 2021-04-05", extracted[0].Fields.Date)
	}
	if extracted[1].Fields.Debit != "1,299.00" {
		t.Errorf("debit = %q", extracted[1].Fields.Debit)
	}
}

func TestParse_SBITrimmedHeadersAndFooter(t *testing.T) {
	p := newTestParser(t)

	extracted, stats, err := p.Parse("DE_SBI_2021.csv", "DE", models.BankSBI, sbiRows())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(extracted) != 2 {
		t.Fatalf("expected 2 rows after dropping the footer, got %d", len(extracted))
	}
	if stats.FailedRows != 0 {
		t.Errorf("expected no failures, got %d", stats.FailedRows)
	}
	if !extracted[1].Fields.Date.Equal(models.NewDate(2021, 4, 12)) {
		t.Errorf("date = %s, want 2021-04-12", extracted[1].Fields.Date)
	}
}

func TestParse_ICICIPositional(t *testing.T) {
	p := newTestParser(t)

	extracted, stats, err := p.Parse("DE_ICICI_2021.xlsx", "DE", models.BankICICI, iciciRows())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(extracted) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(extracted))
	}
	if stats.SkippedRows == 0 {
		t.Error("the trailing empty row should be skipped, not failed")
	}

	first := extracted[0]
	if !first.Fields.Date.Equal(models.NewDate(2021, 4, 5)) {
		t.Errorf("date = %s, want 2021-04-05", first.Fields.Date)
	}
	if first.Fields.Description != "UPI/1111/PAYMENT" {
		t.Errorf("description = %q", first.Fields.Description)
	}
	if first.Fields.Debit != "500.00" {
		t.Errorf("debit = %q", first.Fields.Debit)
	}
}

func TestParse_AutoDetect(t *testing.T) {
	p := newTestParser(t)

	extracted, stats, err := p.Parse("statement.csv", "DE", models.BankAuto, canaraRows())
	if err != nil {
		t.Fatalf("auto-detect Parse failed: %v", err)
	}
	if stats.Bank != models.BankCanara {
		t.Errorf("detected bank = %s, want %s", stats.Bank, models.BankCanara)
	}
	if len(extracted) != 2 {
		t.Errorf("expected 2 rows, got %d", len(extracted))
	}
}

func TestParse_AutoDetectNoMatch(t *testing.T) {
	p := newTestParser(t)

	rows := [][]string{
		{"Posting Date", "Narrative", "Amount", "Running Balance"},
		{"2021-04-05", "x", "1.00", "2.00"},
	}
	_, _, err := p.Parse("statement.csv", "DE", models.BankAuto, rows)
	if !apperrors.IsAmbiguousFormat(err) {
		t.Errorf("expected a detection error, got %v", err)
	}
}

func TestParse_RowErrorsCollected(t *testing.T) {
	p := newTestParser(t)

	rows := [][]string{
		{"Txn Date", "Value Date", "Description", "Branch Code", "Debit", "Credit", "Balance"},
		{"not a date", "", "BAD ROW", "1", "1.00", "", "1.00"},
		{"05-04-2021", "", "GOOD ROW", "1", "", "2.00", "3.00"},
		{"", "", "MISSING DATE", "1", "4.00", "", "5.00"},
	}

	extracted, stats, err := p.Parse("DE_CANARA_2021.csv", "DE", models.BankCanara, rows)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(extracted) != 1 {
		t.Fatalf("expected 1 good row, got %d", len(extracted))
	}
	if stats.FailedRows != 2 {
		t.Errorf("expected 2 failed rows, got %d", stats.FailedRows)
	}
	if len(stats.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %d", len(stats.Errors))
	}
	if stats.Errors[0].Code != apperrors.CodeInvalidDate {
		t.Errorf("first error code = %s, want invalid_date", stats.Errors[0].Code)
	}
	if stats.Errors[1].Code != apperrors.CodeMissingField {
		t.Errorf("second error code = %s, want missing_field", stats.Errors[1].Code)
	}
}

func TestParse_MissingColumnIsFatal(t *testing.T) {
	p := newTestParser(t)

	rows := [][]string{
		{"Date", "Particulars", "Withdrawals", "Deposits"},
		{"05/04/21", "x", "1.00", ""},
	}
	_, _, err := p.Parse("DE_MAHARASHTRA_2021.html", "DE", models.BankMaharashtra, rows)
	if err == nil {
		t.Fatal("a header without the balance column should be fatal")
	}
	cerr, ok := apperrors.AsConsolidatorError(err)
	if !ok || cerr.Code != apperrors.CodeHeaderNotFound {
		t.Errorf("expected header_not_found, got %v", err)
	}
}

func TestParse_UnsupportedBank(t *testing.T) {
	p := newTestParser(t)

	_, _, err := p.Parse("x.csv", "DE", models.Bank("AXIS"), canaraRows())
	if !apperrors.IsUnsupportedBank(err) {
		t.Errorf("expected unsupported-bank error, got %v", err)
	}
}

func TestSignedAmountDescriptor(t *testing.T) {
	r := NewRegistry()
	r.Register(&BankFormatDescriptor{
		Bank: models.Bank("TESTBANK"),
		Columns: map[Field]ColumnRef{
			FieldDate:        {Header: "Date"},
			FieldDescription: {Header: "Narrative"},
			FieldAmount:      {Header: "Amount"},
			FieldBalance:     {Header: "Balance"},
		},
		DateLayout: "2006-01-02",
		Sign:       SignSignedAmount,
		Signature:  []string{"Date", "Narrative", "Amount", "Balance"},
	})
	p, err := NewStatementParser(r, nil)
	if err != nil {
		t.Fatalf("NewStatementParser failed: %v", err)
	}

	rows := [][]string{
		{"Date", "Narrative", "Amount", "Balance"},
		{"2021-04-05", "CARD PAYMENT", "-150.00", "850.00"},
	}
	extracted, _, err := p.Parse("x.csv", "DE", models.Bank("TESTBANK"), rows)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(extracted) != 1 {
		t.Fatalf("expected 1 row, got %d", len(extracted))
	}
	if extracted[0].Fields.Amount != "-150.00" {
		t.Errorf("amount = %q, want signed value preserved", extracted[0].Fields.Amount)
	}
	if extracted[0].Fields.Debit != "" || extracted[0].Fields.Credit != "" {
		t.Error("split columns must stay empty for signed-amount formats")
	}
}
