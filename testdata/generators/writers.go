package main

import (
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// fileExtension returns the extension each bank's portal exports, so the
// generated set exercises every reader.
func fileExtension(bank string) string {
	switch bank {
	case "MAHARASHTRA":
		return ".html"
	case "ICICI":
		return ".xlsx"
	case "SBI":
		return ".txt"
	default:
		return ".csv"
	}
}

func writeStatement(path, bank string, txns []transaction) error {
	switch bank {
	case "MAHARASHTRA":
		return writeMaharashtraHTML(path, txns)
	case "CANARA":
		return writeCanaraCSV(path, txns)
	case "ICICI":
		return writeICICIXLSX(path, txns)
	case "SBI":
		return writeSBITSV(path, txns)
	default:
		return fmt.Errorf("no writer for bank %s", bank)
	}
}

// writeMaharashtraHTML renders the bank's HTML table export: a header row,
// an opening summary row, the transactions with dates in DD/MM/YY form and
// a totals footer.
func writeMaharashtraHTML(path string, txns []transaction) error {
	var b strings.Builder
	b.WriteString("<html><body><h3>Statement of Account</h3>\n<table border=\"1\">\n")

	writeRow := func(cells ...string) {
		b.WriteString("<tr>")
		for _, cell := range cells {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
		}
		b.WriteString("</tr>\n")
	}

	writeRow("Date", "Particulars", "Withdrawals", "Deposits", "Balance")
	opening := decimal.Zero
	if len(txns) > 0 {
		opening = txns[0].Balance.Add(txns[0].Debit).Sub(txns[0].Credit)
	}
	writeRow("", "BALANCE B/F", "", "", opening.StringFixed(2))

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, t := range txns {
		writeRow(
			t.Date.Format("02/01/06"),
			t.Description,
			amountOrEmpty(t.Debit),
			amountOrEmpty(t.Credit),
			t.Balance.StringFixed(2),
		)
		totalDebit = totalDebit.Add(t.Debit)
		totalCredit = totalCredit.Add(t.Credit)
	}
	writeRow("", "TOTAL", totalDebit.StringFixed(2), totalCredit.StringFixed(2), "")

	b.WriteString("</table></body></html>\n")
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// writeCanaraCSV renders the bank's CSV export. Date cells carry a
// time-of-day suffix the parser has to strip.
func writeCanaraCSV(path string, txns []transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Txn Date", "Value Date", "Cheque No.", "Description", "Branch Code", "Debit", "Credit", "Balance"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range txns {
		row := []string{
			t.Date.Format("02-01-2006") + " 00:00:00",
			t.Date.Format("02-01-2006"),
			"",
			t.Description,
			"1234",
			amountOrEmpty(t.Debit),
			amountOrEmpty(t.Credit),
			t.Balance.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeICICIXLSX renders the bank's XLSX export: twelve rows of account
// metadata, then positional data rows without a parseable header.
func writeICICIXLSX(path string, txns []transaction) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	metadata := [][]interface{}{
		{"DETAILED STATEMENT"},
		{},
		{"Account Number", "XXXXXXXX1234"},
		{"Account Type", "Savings"},
		{"Branch", "MUMBAI MAIN"},
		{"IFSC", "ICIC0000001"},
		{"Nomination", "Registered"},
		{},
		{"Statement of transactions"},
		{},
		{},
		{"S No.", "Value Date", "Transaction Date", "Cheque Number", "Tran Id", "Transaction Remarks", "Withdrawal Amount", "Deposit Amount", "Balance"},
	}
	row := 1
	for _, cells := range metadata {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		row++
	}

	for i, t := range txns {
		cells := []interface{}{
			fmt.Sprintf("%d", i+1),
			t.Date.Format("02/01/2006"),
			t.Date.Format("02/01/2006"),
			"",
			fmt.Sprintf("T%07d", i+1),
			t.Description,
			amountOrEmpty(t.Debit),
			amountOrEmpty(t.Credit),
			t.Balance.StringFixed(2),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		row++
	}

	return f.SaveAs(path)
}

// writeSBITSV renders the bank's tab-delimited export with account
// metadata above the table and a footer line the parser drops.
func writeSBITSV(path string, txns []transaction) error {
	var b strings.Builder
	b.WriteString("Account Name : GENERATED USER\n")
	b.WriteString("Address : SAMPLE BRANCH\n")
	b.WriteString("Account Description : REGULAR SB CHQ-INR\n")
	b.WriteString("\n")

	writeRow := func(cells ...string) {
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}

	writeRow("Txn Date", "Value Date", "Description", "Ref No./Cheque No.", "Debit", "Credit", "Balance")
	for _, t := range txns {
		writeRow(
			t.Date.Format("02 Jan 2006"),
			t.Date.Format("02 Jan 2006"),
			t.Description,
			"",
			amountOrEmpty(t.Debit),
			amountOrEmpty(t.Credit),
			t.Balance.StringFixed(2),
		)
	}
	b.WriteString("**This is a computer generated statement and does not require a signature\n")

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func amountOrEmpty(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
