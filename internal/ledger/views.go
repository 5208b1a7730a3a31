package ledger

import (
	"sort"
	"time"

	"homeledger/internal/core"
)

// AggregateAll selects the sum over every account or loan in balance
// lookups.
const AggregateAll = "ALL"

// NetWorth is the primary figure: bank balances plus cash. Outstanding
// loans are tracked separately and not subtracted here.
func (l *Ledger) NetWorth() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := l.cash
	for i := range l.accounts {
		total = total.Add(l.accounts[i].Balance)
	}
	return total
}

// TotalBankBalance sums all bank account balances.
func (l *Ledger) TotalBankBalance() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total core.Money
	for i := range l.accounts {
		total = total.Add(l.accounts[i].Balance)
	}
	return total
}

// TotalOutstandingLoans sums all loan balances.
func (l *Ledger) TotalOutstandingLoans() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total core.Money
	for i := range l.loans {
		total = total.Add(l.loans[i].Balance)
	}
	return total
}

// CashBalance returns the cash on hand.
func (l *Ledger) CashBalance() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// BankBalance reports one account's balance, or the aggregate when id is
// ALL.
func (l *Ledger) BankBalance(id string) (core.Money, error) {
	if id == AggregateAll {
		return l.TotalBankBalance(), nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.findAccount(id)
	if i < 0 {
		return core.Money{}, ErrNotFound
	}
	return l.accounts[i].Balance, nil
}

// LoanBalance reports one loan's outstanding balance, or the aggregate when
// id is ALL.
func (l *Ledger) LoanBalance(id string) (core.Money, error) {
	if id == AggregateAll {
		return l.TotalOutstandingLoans(), nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.findLoan(id)
	if i < 0 {
		return core.Money{}, ErrNotFound
	}
	return l.loans[i].Balance, nil
}

// Accounts returns the bank accounts in creation order.
func (l *Ledger) Accounts() []core.BankAccount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.BankAccount(nil), l.accounts...)
}

// Loans returns the loan accounts in creation order.
func (l *Ledger) Loans() []core.LoanAccount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.LoanAccount(nil), l.loans...)
}

// Transactions returns the log in insertion order, newest first.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.transactions...)
}

// TransactionsBetween returns transactions whose recorded date falls in
// [from, to], re-sorted descending by date as reports request.
func (l *Ledger) TransactionsBetween(from, to time.Time) []core.Transaction {
	l.mu.Lock()
	var out []core.Transaction
	for i := range l.transactions {
		d := l.transactions[i].Date
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, l.transactions[i])
	}
	l.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
