package merger

import (
	"testing"

	"golang-consolidation-service/internal/accounts"
	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
)

func record(owner, account string, date models.Date, desc string, debit, credit string) *models.CanonicalRecord {
	r := &models.CanonicalRecord{
		Owner:       owner,
		AccountID:   account,
		Date:        date,
		Description: desc,
		SourceBank:  models.BankSBI,
		SourceFile:  owner + "_SBI_2021.csv",
	}
	switch {
	case debit != "":
		r.Debit = models.AmountFromString(debit)
	case credit != "":
		r.Credit = models.AmountFromString(credit)
	default:
		r.Debit = models.AmountFromString("0")
		r.Credit = models.AmountFromString("0")
		r.ZeroAmount = true
	}
	return r
}

func withBalance(r *models.CanonicalRecord, balance string) *models.CanonicalRecord {
	r.Balance = models.AmountFromString(balance)
	return r
}

func newTestMerger(t *testing.T, config *MergeConfig) *Merger {
	t.Helper()
	m, err := NewMerger(config)
	if err != nil {
		t.Fatalf("NewMerger failed: %v", err)
	}
	return m
}

func TestMerge_SortsByOwnerAccountDate(t *testing.T) {
	m := newTestMerger(t, nil)

	datasets := []*Dataset{
		{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{
			record("DE", "SBI-1", models.NewDate(2021, 5, 1), "second", "10.00", ""),
			record("DE", "SBI-1", models.NewDate(2021, 4, 1), "first", "", "20.00"),
		}},
		{Owner: "AK", AccountID: "CB-1", Records: []*models.CanonicalRecord{
			record("AK", "CB-1", models.NewDate(2021, 6, 1), "other owner", "", "5.00"),
		}},
	}

	unified, stats, err := m.Merge(datasets)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if stats.OutputRecords != 3 || stats.DuplicatesRemoved != 0 {
		t.Errorf("stats = %+v", stats)
	}

	got := make([]string, 0, 3)
	for _, r := range unified.Records {
		got = append(got, r.Description)
	}
	want := []string{"other owner", "first", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMerge_CollapsesExactDuplicates(t *testing.T) {
	m := newTestMerger(t, nil)

	a := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "UPI PAYMENT", "100.00", "")
	b := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "UPI PAYMENT", "100.00", "")
	// overlapping statements can disagree on running balance
	withBalance(a, "900.00")
	withBalance(b, "850.00")
	b.SourceFile = "DE_SBI_2021_2022.csv"

	unified, stats, err := m.Merge([]*Dataset{
		{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{a}},
		{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{b}},
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if stats.DuplicatesRemoved != 1 {
		t.Errorf("duplicates removed = %d, want 1", stats.DuplicatesRemoved)
	}
	if unified.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", unified.Len())
	}
	// first occurrence wins, balance included
	if !unified.Records[0].Equal(a) {
		t.Error("the first occurrence should survive")
	}
}

func TestMerge_KeepDuplicates(t *testing.T) {
	m := newTestMerger(t, &MergeConfig{KeepDuplicates: true})

	a := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "x", "1.00", "")
	b := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "x", "1.00", "")

	unified, stats, err := m.Merge([]*Dataset{
		{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{a, b}},
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if unified.Len() != 2 || stats.DuplicatesRemoved != 0 {
		t.Errorf("len=%d stats=%+v", unified.Len(), stats)
	}
}

func TestMerge_RetainsAmountConflicts(t *testing.T) {
	m := newTestMerger(t, nil)

	a := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "CHEQUE 42", "100.00", "")
	b := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "CHEQUE 42", "150.00", "")

	unified, stats, err := m.Merge([]*Dataset{
		{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{a, b}},
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if unified.Len() != 2 {
		t.Fatalf("conflicting records must both be retained, got %d", unified.Len())
	}
	if stats.Conflicts != 1 {
		t.Errorf("conflicts = %d, want 1", stats.Conflicts)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	m := newTestMerger(t, nil)

	datasets := []*Dataset{
		{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{
			record("DE", "SBI-1", models.NewDate(2021, 4, 5), "a", "1.00", ""),
			record("DE", "SBI-1", models.NewDate(2021, 4, 6), "b", "", "2.00"),
		}},
	}

	once, _, err := m.Merge(datasets)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	twice, _, err := m.Merge([]*Dataset{
		{Owner: "DE", AccountID: "SBI-1", Records: once.Records},
		{Owner: "DE", AccountID: "SBI-1", Records: once.Records},
	})
	if err != nil {
		t.Fatalf("second Merge failed: %v", err)
	}
	if !once.Equal(twice) {
		t.Error("merging a merged dataset with itself should be a no-op")
	}
}

func TestMerge_OrderInvariantForDisjointInputs(t *testing.T) {
	m := newTestMerger(t, nil)

	ds1 := &Dataset{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{
		record("DE", "SBI-1", models.NewDate(2021, 4, 5), "a", "1.00", ""),
	}}
	ds2 := &Dataset{Owner: "AK", AccountID: "CB-1", Records: []*models.CanonicalRecord{
		record("AK", "CB-1", models.NewDate(2021, 4, 6), "b", "", "2.00"),
	}}

	forward, _, err := m.Merge([]*Dataset{ds1, ds2})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	reverse, _, err := m.Merge([]*Dataset{ds2, ds1})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !forward.Equal(reverse) {
		t.Error("dataset order must not change the result for duplicate-free inputs")
	}
}

func TestMerge_AccountValidation(t *testing.T) {
	registry, err := accounts.NewRegistry([]accounts.Account{
		{Owner: "DE", ID: "SBI-1", Bank: models.BankSBI},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	m := newTestMerger(t, &MergeConfig{ValidateAccounts: true, Registry: registry})

	good := &Dataset{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{
		record("DE", "SBI-1", models.NewDate(2021, 4, 5), "ok", "1.00", ""),
	}}
	if _, _, err := m.Merge([]*Dataset{good}); err != nil {
		t.Errorf("registered account should merge: %v", err)
	}

	bad := &Dataset{Owner: "ZZ", AccountID: "X-9", Records: []*models.CanonicalRecord{
		record("ZZ", "X-9", models.NewDate(2021, 4, 5), "nope", "1.00", ""),
	}}
	_, _, err = m.Merge([]*Dataset{good, bad})
	if !apperrors.IsMergeInput(err) {
		t.Errorf("unknown account should be a merge input error, got %v", err)
	}
}

func TestMerge_ValidationRequiresRegistry(t *testing.T) {
	if _, err := NewMerger(&MergeConfig{ValidateAccounts: true}); err == nil {
		t.Error("validation without a registry should be rejected")
	}
}

func TestMerge_ZeroAmountRecordsSurvive(t *testing.T) {
	m := newTestMerger(t, nil)

	zero := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "BALANCE ROW", "", "")
	unified, stats, err := m.Merge([]*Dataset{
		{Owner: "DE", AccountID: "SBI-1", Records: []*models.CanonicalRecord{zero}},
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if unified.Len() != 1 || !unified.Records[0].ZeroAmount {
		t.Error("flagged zero-amount records must be kept")
	}
	if stats.ZeroAmountRecords != 1 {
		t.Errorf("zero-amount count = %d", stats.ZeroAmountRecords)
	}
}

func TestConsolidate(t *testing.T) {
	// one account: opening 1000, then +500, then -200
	r1 := withBalance(record("DE", "SBI-1", models.NewDate(2021, 4, 5), "SALARY", "", "500.00"), "1500.00")
	r2 := withBalance(record("DE", "SBI-1", models.NewDate(2021, 4, 7), "ATM", "200.00", ""), "1300.00")

	view := Consolidate(&models.UnifiedDataset{Records: []*models.CanonicalRecord{r1, r2}})

	if len(view) != 3 {
		t.Fatalf("expected brought-forward plus 2 records, got %d", len(view))
	}
	bf := view[0]
	if bf.Description != BroughtForwardDescription {
		t.Fatalf("first row = %q", bf.Description)
	}
	if !bf.Credit.Valid || bf.Credit.Decimal.StringFixed(2) != "1000.00" {
		t.Errorf("opening credit = %v, want 1000.00", bf.Credit)
	}

	wantBalances := []string{"1000.00", "1500.00", "1300.00"}
	for i, r := range view {
		if !r.Balance.Valid || r.Balance.Decimal.StringFixed(2) != wantBalances[i] {
			t.Errorf("row %d balance = %v, want %s", i, r.Balance, wantBalances[i])
		}
	}

	// inputs must stay untouched
	if r1.Balance.Decimal.StringFixed(2) != "1500.00" {
		t.Error("Consolidate must not modify its input records")
	}
}

func TestConsolidate_NegativeOpening(t *testing.T) {
	// balance after a 100 credit is -50, so the account opened at -150
	r := withBalance(record("DE", "SBI-1", models.NewDate(2021, 4, 5), "DEPOSIT", "", "100.00"), "-50.00")

	view := Consolidate(&models.UnifiedDataset{Records: []*models.CanonicalRecord{r}})
	if len(view) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(view))
	}
	bf := view[1] // debit rows sort after credits on the same day
	if bf.Description != BroughtForwardDescription {
		// ordering may place the brought-forward row first if it carries a debit
		bf = view[0]
	}
	if !bf.Debit.Valid || bf.Debit.Decimal.StringFixed(2) != "150.00" {
		t.Errorf("negative opening should post as a debit of 150.00, got %v", bf.Debit)
	}
}

func TestConsolidate_SameDayCreditsFirst(t *testing.T) {
	debit := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "SPEND", "50.00", "")
	credit := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "TOPUP", "", "80.00")

	view := Consolidate(&models.UnifiedDataset{Records: []*models.CanonicalRecord{debit, credit}})
	if len(view) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(view))
	}
	if view[0].Description != "TOPUP" || view[1].Description != "SPEND" {
		t.Errorf("same-day credits must sort before debits: %s, %s",
			view[0].Description, view[1].Description)
	}
}

func TestConsolidate_NoBalanceNoBroughtForward(t *testing.T) {
	r := record("DE", "SBI-1", models.NewDate(2021, 4, 5), "x", "10.00", "")
	view := Consolidate(&models.UnifiedDataset{Records: []*models.CanonicalRecord{r}})
	if len(view) != 1 {
		t.Fatalf("no brought-forward row without a reported balance, got %d rows", len(view))
	}
}
