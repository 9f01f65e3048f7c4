package normalizer

import (
	"testing"

	"golang-consolidation-service/internal/models"
	"golang-consolidation-service/internal/parsers"
	apperrors "golang-consolidation-service/pkg/errors"
)

func extractedRow(t *testing.T, bank models.Bank, fields parsers.FieldValues) *parsers.ExtractedRow {
	t.Helper()
	return &parsers.ExtractedRow{
		Row:    models.NewRawRow(nil, 7, bank, "DE_"+string(bank)+"_2021.csv", "DE"),
		Fields: fields,
	}
}

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1,500.00", "1500.00"},
		{"₹ 2,000.50", "2000.50"},
		{"-150.00", "-150.00"},
		{"150.00 Cr", "150.00"},
		{"", ""},
		{"   ", ""},
		{"N/A", ""},
		{"0.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanAmount(tt.input); got != tt.want {
				t.Errorf("CleanAmount(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_SplitColumns(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name       string
		fields     parsers.FieldValues
		wantDebit  string
		wantCredit string
		wantZero   bool
	}{
		{
			name: "credit entry",
			fields: parsers.FieldValues{
				Date:        models.NewDate(2021, 4, 5),
				Description: "SALARY",
				Credit:      "50,000.00",
				Balance:     "60,000.00",
			},
			wantCredit: "50000.00",
		},
		{
			name: "debit entry",
			fields: parsers.FieldValues{
				Date:        models.NewDate(2021, 4, 9),
				Description: "ATM WDL",
				Debit:       "2,000.00",
				Balance:     "58,000.00",
			},
			wantDebit: "2000.00",
		},
		{
			name: "blank amounts flagged zero",
			fields: parsers.FieldValues{
				Date:        models.NewDate(2021, 4, 10),
				Description: "BALANCE ENQUIRY",
				Balance:     "58,000.00",
			},
			wantZero: true,
		},
		{
			name: "banker's rounding to two places",
			fields: parsers.FieldValues{
				Date:        models.NewDate(2021, 4, 11),
				Description: "INTEREST",
				Credit:      "10.125",
			},
			wantCredit: "10.12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, rowErr := n.Normalize(extractedRow(t, models.BankSBI, tt.fields), "SBI-DE")
			if rowErr != nil {
				t.Fatalf("Normalize failed: %v", rowErr)
			}

			if record.Owner != "DE" || record.AccountID != "SBI-DE" {
				t.Errorf("identity = %s/%s", record.Owner, record.AccountID)
			}
			if tt.wantDebit != "" {
				if !record.Debit.Valid || record.Debit.Decimal.StringFixed(2) != tt.wantDebit {
					t.Errorf("debit = %v, want %s", record.Debit, tt.wantDebit)
				}
			}
			if tt.wantCredit != "" {
				if !record.Credit.Valid || record.Credit.Decimal.StringFixed(2) != tt.wantCredit {
					t.Errorf("credit = %v, want %s", record.Credit, tt.wantCredit)
				}
			}
			if record.ZeroAmount != tt.wantZero {
				t.Errorf("zero flag = %v, want %v", record.ZeroAmount, tt.wantZero)
			}
			if err := record.Validate(); err != nil {
				t.Errorf("normalized record should validate: %v", err)
			}
		})
	}
}

// A signed single-column format and a split-column format describing the
// same payment must normalize to the same debit.
func TestNormalize_SignedAmountEquivalence(t *testing.T) {
	registry := parsers.NewRegistry()
	registry.Register(&parsers.BankFormatDescriptor{
		Bank: models.BankSBI,
		Columns: map[parsers.Field]parsers.ColumnRef{
			parsers.FieldDate:        {Header: "Date"},
			parsers.FieldDescription: {Header: "Narrative"},
			parsers.FieldAmount:      {Header: "Amount"},
			parsers.FieldBalance:     {Header: "Balance"},
		},
		DateLayout: "2006-01-02",
		Sign:       parsers.SignSignedAmount,
	})
	signed := NewNormalizer(registry)
	split := NewNormalizer(nil)

	signedRec, rowErr := signed.Normalize(extractedRow(t, models.BankSBI, parsers.FieldValues{
		Date:        models.NewDate(2021, 4, 5),
		Description: "CARD PAYMENT",
		Amount:      "-150.00",
	}), "SBI-DE")
	if rowErr != nil {
		t.Fatalf("signed Normalize failed: %v", rowErr)
	}

	splitRec, rowErr := split.Normalize(extractedRow(t, models.BankSBI, parsers.FieldValues{
		Date:        models.NewDate(2021, 4, 5),
		Description: "CARD PAYMENT",
		Debit:       "150.00",
	}), "SBI-DE")
	if rowErr != nil {
		t.Fatalf("split Normalize failed: %v", rowErr)
	}

	if !signedRec.Debit.Valid || signedRec.Debit.Decimal.StringFixed(2) != "150.00" {
		t.Errorf("signed debit = %v, want 150.00", signedRec.Debit)
	}
	if signedRec.Credit.Valid {
		t.Error("signed debit record should carry no credit")
	}
	if signedRec.DuplicateKey() != splitRec.DuplicateKey() {
		t.Error("equivalent records should share a duplicate key")
	}

	creditRec, rowErr := signed.Normalize(extractedRow(t, models.BankSBI, parsers.FieldValues{
		Date:        models.NewDate(2021, 4, 6),
		Description: "REFUND",
		Amount:      "75.50",
	}), "SBI-DE")
	if rowErr != nil {
		t.Fatalf("credit Normalize failed: %v", rowErr)
	}
	if !creditRec.Credit.Valid || creditRec.Credit.Decimal.StringFixed(2) != "75.50" {
		t.Errorf("positive amount should post as credit, got %v", creditRec.Credit)
	}
}

func TestNormalize_RowErrors(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name     string
		fields   parsers.FieldValues
		wantCode apperrors.ErrorCode
	}{
		{
			name: "malformed amount",
			fields: parsers.FieldValues{
				Date:        models.NewDate(2021, 4, 5),
				Description: "x",
				Debit:       "12.34.56",
			},
			wantCode: apperrors.CodeInvalidAmount,
		},
		{
			name: "both sides posted",
			fields: parsers.FieldValues{
				Date:        models.NewDate(2021, 4, 5),
				Description: "x",
				Debit:       "10.00",
				Credit:      "20.00",
			},
			wantCode: apperrors.CodeInvalidRecord,
		},
		{
			name: "zero date",
			fields: parsers.FieldValues{
				Description: "x",
				Debit:       "10.00",
			},
			wantCode: apperrors.CodeInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, rowErr := n.Normalize(extractedRow(t, models.BankCanara, tt.fields), "CB-DE")
			if rowErr == nil {
				t.Fatalf("expected a row error, got record %v", record)
			}
			if rowErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", rowErr.Code, tt.wantCode)
			}
			if rowErr.File != "DE_CANARA_2021.csv" || rowErr.Row != 7 {
				t.Errorf("position = %s:%d", rowErr.File, rowErr.Row)
			}
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	n := NewNormalizer(nil)

	rows := []*parsers.ExtractedRow{
		extractedRow(t, models.BankSBI, parsers.FieldValues{
			Date: models.NewDate(2021, 4, 5), Description: "OK", Credit: "1.00",
		}),
		extractedRow(t, models.BankSBI, parsers.FieldValues{
			Date: models.NewDate(2021, 4, 6), Description: "BAD", Debit: "x1x.y",
		}),
		extractedRow(t, models.BankSBI, parsers.FieldValues{
			Date: models.NewDate(2021, 4, 7), Description: "OK2", Debit: "2.00",
		}),
	}

	records, errs := n.NormalizeAll(rows, "SBI-DE")
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
	if len(errs) != 1 {
		t.Errorf("expected 1 row error, got %d", len(errs))
	}
}
