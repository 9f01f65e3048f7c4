package merger

import (
	"sort"

	"github.com/shopspring/decimal"

	"golang-consolidation-service/internal/models"
)

// BroughtForwardDescription labels the synthetic opening row injected per
// account when building a consolidated statement.
const BroughtForwardDescription = "BROUGHT FORWARD"

// Consolidate builds a single-statement view of a unified dataset: one
// synthetic brought-forward row per account carrying its opening balance,
// all records ordered by date with credits before debits on the same day,
// and the running balance recomputed across the whole view.
//
// The input records are not modified; the view holds copies.
func Consolidate(ds *models.UnifiedDataset) []*models.CanonicalRecord {
	if ds.Len() == 0 {
		return nil
	}

	var view []*models.CanonicalRecord
	for _, group := range groupByAccount(ds.Records) {
		if bf := broughtForward(group[0]); bf != nil {
			view = append(view, bf)
		}
		for _, r := range group {
			clone := *r
			view = append(view, &clone)
		}
	}

	sort.SliceStable(view, func(i, j int) bool {
		a, b := view[i], view[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return creditSortValue(a).GreaterThan(creditSortValue(b))
	})

	running := decimal.Zero
	for _, r := range view {
		if r.Credit.Valid {
			running = running.Add(r.Credit.Decimal)
		}
		if r.Debit.Valid {
			running = running.Sub(r.Debit.Decimal)
		}
		r.Balance = models.Amount(running)
	}
	return view
}

// groupByAccount splits records per owner and account, keeping each
// group's order. Groups come out in first-appearance order.
func groupByAccount(records []*models.CanonicalRecord) [][]*models.CanonicalRecord {
	byKey := make(map[string]int)
	var groups [][]*models.CanonicalRecord
	for _, r := range records {
		key := r.Owner + "\x1f" + r.AccountID
		i, ok := byKey[key]
		if !ok {
			i = len(groups)
			byKey[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	return groups
}

// broughtForward derives an account's opening row from its earliest record:
// the balance the account held before that record is its reported balance
// with the record's own movement undone. A non-negative opening posts as a
// credit, a negative one as a debit. Without a reported balance there is
// nothing to derive from.
func broughtForward(first *models.CanonicalRecord) *models.CanonicalRecord {
	if !first.Balance.Valid {
		return nil
	}

	opening := first.Balance.Decimal
	if first.Debit.Valid {
		opening = opening.Add(first.Debit.Decimal)
	}
	if first.Credit.Valid {
		opening = opening.Sub(first.Credit.Decimal)
	}

	bf := &models.CanonicalRecord{
		Owner:       first.Owner,
		AccountID:   first.AccountID,
		Date:        first.Date,
		Description: BroughtForwardDescription,
		Balance:     models.Amount(opening),
		SourceBank:  first.SourceBank,
		SourceFile:  first.SourceFile,
	}
	switch {
	case opening.IsZero():
		bf.Debit = models.Amount(decimal.Zero)
		bf.Credit = models.Amount(decimal.Zero)
		bf.ZeroAmount = true
	case opening.IsNegative():
		bf.Debit = models.Amount(opening.Neg())
	default:
		bf.Credit = models.Amount(opening)
	}
	return bf
}

// creditSortValue orders same-day rows: larger credits first, then debit
// rows, which carry no credit.
func creditSortValue(r *models.CanonicalRecord) decimal.Decimal {
	if r.Credit.Valid {
		return r.Credit.Decimal
	}
	return decimal.NewFromInt(-1)
}
