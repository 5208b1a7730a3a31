// Package report assembles the multi-sheet financial report: a balance
// snapshot, the account and loan listings, and the period's expenses and
// transfers. The same report feeds both the spreadsheet download and the
// Google Sheets mirror.
package report

import (
	"fmt"
	"sort"
	"time"

	"homeledger/internal/core"
	"homeledger/internal/ledger"
)

// Sheet is one worksheet. Row cells are strings or float64; the writers
// type-tag them accordingly.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Report is the full workbook for a date range.
type Report struct {
	From   time.Time
	To     time.Time
	Sheets []Sheet
}

const dateLayout = "2006-01-02"

// Filename returns the suggested download name, e.g.
// "FinanceReport_2026-04-01_to_2026-04-30.xls".
func Filename(from, to time.Time) string {
	return fmt.Sprintf("FinanceReport_%s_to_%s.xls", from.Format(dateLayout), to.Format(dateLayout))
}

// Build assembles the report from a snapshot. The to date is extended to
// end of day so a range covers its last day fully. Transactions are sorted
// newest first.
func Build(snap ledger.Snapshot, from, to time.Time) Report {
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999000000, to.Location())

	var filtered []core.Transaction
	for _, t := range snap.Transactions {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.After(filtered[j].Date)
	})

	var totalBank, totalLoan core.Money
	for _, a := range snap.Accounts {
		totalBank = totalBank.Add(a.Balance)
	}
	for _, l := range snap.Loans {
		totalLoan = totalLoan.Add(l.Balance)
	}

	snapshot := Sheet{
		Name:    "Snapshot",
		Headers: []string{"Metric", "Amount"},
		Rows: [][]any{
			{"Total Bank Balance", totalBank.Float64()},
			{"Cash in Hand", snap.CashBalance.Float64()},
			{"Total Net Worth", totalBank.Add(snap.CashBalance).Float64()},
			{"Outstanding Loans", totalLoan.Neg().Float64()},
		},
	}

	banks := Sheet{
		Name:    "Bank Accounts",
		Headers: []string{"Bank Name", "Account Number", "Balance"},
	}
	for _, a := range snap.Accounts {
		banks.Rows = append(banks.Rows, []any{a.Name, a.AccountNumber, a.Balance.Float64()})
	}

	loans := Sheet{
		Name:    "Loan Accounts",
		Headers: []string{"Loan Name", "Account Number", "Balance"},
	}
	for _, l := range snap.Loans {
		loans.Rows = append(loans.Rows, []any{l.Name, l.AccountNumber, l.Balance.Float64()})
	}

	expenses := Sheet{
		Name:    "Expenses",
		Headers: []string{"Date", "Amount", "Source", "Remarks"},
	}
	transfers := Sheet{
		Name:    "Transfers & Income",
		Headers: []string{"Date", "Type", "Source", "Destination", "Amount", "Description"},
	}
	for _, t := range filtered {
		if t.Type == core.TypeExpense {
			expenses.Rows = append(expenses.Rows, []any{
				t.Date.Format(dateLayout), t.Amount.Float64(), t.SourceName, t.Description,
			})
		} else {
			transfers.Rows = append(transfers.Rows, []any{
				t.Date.Format(dateLayout), string(t.Type), t.SourceName, t.DestinationName, t.Amount.Float64(), t.Description,
			})
		}
	}

	return Report{
		From:   from,
		To:     to,
		Sheets: []Sheet{snapshot, banks, loans, expenses, transfers},
	}
}
