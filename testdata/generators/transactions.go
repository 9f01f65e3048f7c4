package main

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// transaction is one generated statement row with its running balance.
type transaction struct {
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
}

var debitDescriptions = []string{
	"UPI/%d/GROCERIES",
	"UPI/%d/FOOD DELIVERY",
	"ATM WDL/%d",
	"POS/%d/FUEL STATION",
	"NEFT/%d/RENT PAYMENT",
	"BIL/%d/ELECTRICITY BOARD",
	"ACH D/%d/MUTUAL FUND SIP",
	"IMPS/%d/TRANSFER OUT",
}

var creditDescriptions = []string{
	"NEFT/%d/SALARY CREDIT",
	"UPI/%d/RECEIVED",
	"IMPS/%d/TRANSFER IN",
	"INT.PD/%d/SB INTEREST",
	"ACH C/%d/DIVIDEND",
}

// generateTransactions produces rows spread over one financial year, in
// date order, with a running balance continued from *balance.
func generateTransactions(rng *rand.Rand, startYear, count int, balance *decimal.Decimal) []transaction {
	fyStart := time.Date(startYear, time.April, 1, 0, 0, 0, 0, time.UTC)
	fyDays := int(time.Date(startYear+1, time.April, 1, 0, 0, 0, 0, time.UTC).Sub(fyStart).Hours() / 24)

	dates := make([]time.Time, count)
	for i := range dates {
		dates[i] = fyStart.AddDate(0, 0, rng.Intn(fyDays))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	txns := make([]transaction, 0, count)
	for _, date := range dates {
		t := transaction{Date: date}
		// keep roughly a third of rows credits so balances trend flat
		if rng.Intn(3) == 0 {
			t.Credit = randomAmount(rng, 500, 85000)
			t.Description = fmt.Sprintf(creditDescriptions[rng.Intn(len(creditDescriptions))], 100000+rng.Intn(900000))
			*balance = balance.Add(t.Credit)
		} else {
			t.Debit = randomAmount(rng, 50, 20000)
			t.Description = fmt.Sprintf(debitDescriptions[rng.Intn(len(debitDescriptions))], 100000+rng.Intn(900000))
			*balance = balance.Sub(t.Debit)
		}
		t.Balance = *balance
		txns = append(txns, t)
	}
	return txns
}

func newBalance(rng *rand.Rand) decimal.Decimal {
	return randomAmount(rng, 50000, 250000)
}

func randomAmount(rng *rand.Rand, min, max int) decimal.Decimal {
	rupees := min + rng.Intn(max-min)
	paise := rng.Intn(100)
	return decimal.New(int64(rupees*100+paise), -2)
}
