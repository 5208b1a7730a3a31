// Package ledger holds the canonical in-memory state of the tracker: bank
// accounts, loan accounts, the cash balance and the append-only transaction
// log. A single mutex serializes every operation, and each operation
// validates fully before mutating anything, so a rejected call leaves the
// state untouched. Every money movement between two parties appends exactly
// one transaction in the same critical section.
package ledger

import (
	"sync"
	"time"

	"homeledger/internal/core"
)

// Ledger is the aggregate root. Construct with New or FromSnapshot; share
// one instance per process.
type Ledger struct {
	mu           sync.Mutex
	accounts     []core.BankAccount
	loans        []core.LoanAccount
	cash         core.Money
	transactions []core.Transaction // newest first, insertion order
	currency     *core.CurrencyConfig
	pin          string
	credentialID string

	revision uint64
	onChange func(revision uint64)
	now      func() time.Time
}

func New() *Ledger {
	return &Ledger{now: time.Now}
}

// FromSnapshot rebuilds a ledger from a persisted snapshot.
func FromSnapshot(snap Snapshot) *Ledger {
	l := New()
	l.accounts = append(l.accounts, snap.Accounts...)
	l.loans = append(l.loans, snap.Loans...)
	l.transactions = append(l.transactions, snap.Transactions...)
	l.cash = snap.CashBalance
	l.currency = snap.Currency
	l.pin = snap.PIN
	l.credentialID = snap.WebAuthnCredentialID
	return l
}

// OnChange registers the observer notified after every completed mutation.
// The callback runs outside the ledger lock and must not block; persistence
// is fire-and-forget per the single-writer model.
func (l *Ledger) OnChange(fn func(revision uint64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Revision returns the number of completed mutations.
func (l *Ledger) Revision() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.revision
}

// bump must be called with the lock held after a successful mutation. The
// returned closure fires the observer and is invoked after unlock.
func (l *Ledger) bump() func() {
	l.revision++
	rev := l.revision
	fn := l.onChange
	return func() {
		if fn != nil {
			fn(rev)
		}
	}
}

// prepend adds a transaction at the head of the log (newest first).
func (l *Ledger) prepend(tx core.Transaction) {
	l.transactions = append([]core.Transaction{tx}, l.transactions...)
}

func (l *Ledger) findAccount(id string) int {
	for i := range l.accounts {
		if l.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) findLoan(id string) int {
	for i := range l.loans {
		if l.loans[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) dateOrNow(date time.Time) time.Time {
	if date.IsZero() {
		return l.now()
	}
	return date
}

// CreateBankAccount opens a new account. A positive initial balance is
// recorded as an INCOME transaction from EXTERNAL; negative balances are
// allowed (overdraft) and produce no transaction.
func (l *Ledger) CreateBankAccount(name string, initial core.Money) core.BankAccount {
	l.mu.Lock()
	acc := core.BankAccount{
		ID:            core.NewID(),
		Name:          name,
		Balance:       initial,
		AccountNumber: core.NewAccountNumber(),
		Color:         core.RandomCardGradient(),
		UpdatedAt:     l.now(),
	}
	l.accounts = append(l.accounts, acc)
	if initial.IsPositive() {
		l.prepend(core.Transaction{
			ID:              core.NewID(),
			Date:            l.now(),
			Amount:          initial,
			Type:            core.TypeIncome,
			SourceID:        core.SentinelExternal,
			SourceName:      "External",
			DestinationID:   acc.ID,
			DestinationName: name,
			Description:     "Initial Deposit",
		})
	}
	notify := l.bump()
	l.mu.Unlock()
	notify()
	return acc
}

// EditBankAccount overwrites name and balance. A balance change is recorded
// as an account-local INCOME (delta > 0) or ADJUSTMENT (delta < 0)
// transaction with the account as its own source and no destination.
func (l *Ledger) EditBankAccount(id, name string, balance core.Money) (core.BankAccount, error) {
	l.mu.Lock()
	i := l.findAccount(id)
	if i < 0 {
		l.mu.Unlock()
		return core.BankAccount{}, ErrNotFound
	}
	delta := balance.Sub(l.accounts[i].Balance)
	if !delta.IsZero() {
		txType := core.TypeAdjustment
		if delta.IsPositive() {
			txType = core.TypeIncome
		}
		l.prepend(core.Transaction{
			ID:          core.NewID(),
			Date:        l.now(),
			Amount:      delta.Abs(),
			Type:        txType,
			SourceID:    id,
			SourceName:  name,
			Description: "Balance Adjustment",
		})
	}
	l.accounts[i].Name = name
	l.accounts[i].Balance = balance
	l.accounts[i].UpdatedAt = l.now()
	acc := l.accounts[i]
	notify := l.bump()
	l.mu.Unlock()
	notify()
	return acc, nil
}

// DeleteBankAccount removes the account. Historical transactions keep their
// dangling reference and name snapshot. Deleting an unknown id is a no-op.
func (l *Ledger) DeleteBankAccount(id string) {
	l.mu.Lock()
	i := l.findAccount(id)
	if i < 0 {
		l.mu.Unlock()
		return
	}
	l.accounts = append(l.accounts[:i], l.accounts[i+1:]...)
	notify := l.bump()
	l.mu.Unlock()
	notify()
}

// AddIncome credits an account and records an INCOME transaction from
// EXTERNAL. Amount positivity is the caller's responsibility (the HTTP
// layer rejects non-positive amounts before calling).
func (l *Ledger) AddIncome(accountID string, amount core.Money, date time.Time) (core.Transaction, error) {
	l.mu.Lock()
	i := l.findAccount(accountID)
	if i < 0 {
		l.mu.Unlock()
		return core.Transaction{}, ErrNotFound
	}
	l.accounts[i].Balance = l.accounts[i].Balance.Add(amount)
	tx := core.Transaction{
		ID:              core.NewID(),
		Date:            l.dateOrNow(date),
		Amount:          amount,
		Type:            core.TypeIncome,
		SourceID:        core.SentinelExternal,
		SourceName:      "Income Source",
		DestinationID:   l.accounts[i].ID,
		DestinationName: l.accounts[i].Name,
		Description:     "Income Deposit",
	}
	l.prepend(tx)
	notify := l.bump()
	l.mu.Unlock()
	notify()
	return tx, nil
}

// CreateLoanAccount registers outstanding debt. Loan creation is not a cash
// event and produces no transaction.
func (l *Ledger) CreateLoanAccount(name string, outstanding core.Money) core.LoanAccount {
	l.mu.Lock()
	loan := core.LoanAccount{
		ID:            core.NewID(),
		Name:          name,
		Balance:       outstanding,
		AccountNumber: core.NewAccountNumber(),
		Color:         core.RandomLoanGradient(),
		UpdatedAt:     l.now(),
	}
	l.loans = append(l.loans, loan)
	notify := l.bump()
	l.mu.Unlock()
	notify()
	return loan
}

// EditLoanAccount overwrites name and outstanding balance. Unlike bank
// account edits, loan edits produce no transaction.
func (l *Ledger) EditLoanAccount(id, name string, balance core.Money) (core.LoanAccount, error) {
	l.mu.Lock()
	i := l.findLoan(id)
	if i < 0 {
		l.mu.Unlock()
		return core.LoanAccount{}, ErrNotFound
	}
	l.loans[i].Name = name
	l.loans[i].Balance = balance
	l.loans[i].UpdatedAt = l.now()
	loan := l.loans[i]
	notify := l.bump()
	l.mu.Unlock()
	notify()
	return loan, nil
}

// DeleteLoanAccount removes the loan; unknown ids are a no-op.
func (l *Ledger) DeleteLoanAccount(id string) {
	l.mu.Lock()
	i := l.findLoan(id)
	if i < 0 {
		l.mu.Unlock()
		return
	}
	l.loans = append(l.loans[:i], l.loans[i+1:]...)
	notify := l.bump()
	l.mu.Unlock()
	notify()
}

// Transfer moves money out of a bank account. All validation happens before
// the first mutation: unknown source or destination fails with ErrNotFound,
// amount exceeding the source balance with ErrInsufficientFunds, and in
// either case nothing changes and no transaction is appended.
//
// Destination kinds:
//   - CASH: credits the cash balance, type WITHDRAWAL.
//   - LOAN: debits the loan's outstanding balance (overpaying may drive it
//     negative), type TRANSFER_LOAN.
//   - BANK: credits the destination account, type TRANSFER_BANK.
//   - EXTERNAL: destID is the free-text payee name, type TRANSFER_EXTERNAL.
func (l *Ledger) Transfer(sourceID string, kind core.DestinationKind, destID string, amount core.Money, remarks string, date time.Time) (core.Transaction, error) {
	l.mu.Lock()
	si := l.findAccount(sourceID)
	if si < 0 {
		l.mu.Unlock()
		return core.Transaction{}, ErrNotFound
	}
	if amount.GreaterThan(l.accounts[si].Balance) {
		l.mu.Unlock()
		return core.Transaction{}, ErrInsufficientFunds
	}

	tx := core.Transaction{
		ID:          core.NewID(),
		Date:        l.dateOrNow(date),
		Amount:      amount,
		SourceID:    l.accounts[si].ID,
		SourceName:  l.accounts[si].Name,
		Description: remarks,
	}

	switch kind {
	case core.DestCash:
		l.accounts[si].Balance = l.accounts[si].Balance.Sub(amount)
		l.cash = l.cash.Add(amount)
		tx.Type = core.TypeWithdrawal
		tx.DestinationID = core.SentinelCash
		tx.DestinationName = "Cash in Hand"
		if tx.Description == "" {
			tx.Description = "Cash Withdrawal"
		}
	case core.DestLoan:
		di := l.findLoan(destID)
		if di < 0 {
			l.mu.Unlock()
			return core.Transaction{}, ErrNotFound
		}
		l.accounts[si].Balance = l.accounts[si].Balance.Sub(amount)
		l.loans[di].Balance = l.loans[di].Balance.Sub(amount)
		tx.Type = core.TypeTransferLoan
		tx.DestinationID = l.loans[di].ID
		tx.DestinationName = l.loans[di].Name
		if tx.Description == "" {
			tx.Description = "Loan Payment"
		}
	case core.DestBank:
		di := l.findAccount(destID)
		if di < 0 {
			l.mu.Unlock()
			return core.Transaction{}, ErrNotFound
		}
		l.accounts[si].Balance = l.accounts[si].Balance.Sub(amount)
		l.accounts[di].Balance = l.accounts[di].Balance.Add(amount)
		tx.Type = core.TypeTransferBank
		tx.DestinationID = l.accounts[di].ID
		tx.DestinationName = l.accounts[di].Name
		if tx.Description == "" {
			tx.Description = "Bank Transfer"
		}
	case core.DestExternal:
		l.accounts[si].Balance = l.accounts[si].Balance.Sub(amount)
		tx.Type = core.TypeTransferExternal
		tx.DestinationID = core.SentinelExternal
		tx.DestinationName = destID
		if tx.Description == "" {
			tx.Description = "External Payment"
		}
	default:
		l.mu.Unlock()
		return core.Transaction{}, ErrNotFound
	}

	l.prepend(tx)
	notify := l.bump()
	l.mu.Unlock()
	notify()
	return tx, nil
}

// AddExpense debits cash (sourceID == CASH) or a bank account and records
// an EXPENSE transaction with no destination.
func (l *Ledger) AddExpense(date time.Time, sourceID string, amount core.Money, remarks string) (core.Transaction, error) {
	l.mu.Lock()
	tx := core.Transaction{
		ID:          core.NewID(),
		Date:        l.dateOrNow(date),
		Amount:      amount,
		Type:        core.TypeExpense,
		Description: remarks,
	}

	if sourceID == core.SentinelCash {
		if amount.GreaterThan(l.cash) {
			l.mu.Unlock()
			return core.Transaction{}, ErrInsufficientFunds
		}
		l.cash = l.cash.Sub(amount)
		tx.SourceID = core.SentinelCash
		tx.SourceName = "Cash"
	} else {
		i := l.findAccount(sourceID)
		if i < 0 {
			l.mu.Unlock()
			return core.Transaction{}, ErrNotFound
		}
		if amount.GreaterThan(l.accounts[i].Balance) {
			l.mu.Unlock()
			return core.Transaction{}, ErrInsufficientFunds
		}
		l.accounts[i].Balance = l.accounts[i].Balance.Sub(amount)
		tx.SourceID = l.accounts[i].ID
		tx.SourceName = l.accounts[i].Name
	}

	l.prepend(tx)
	notify := l.bump()
	l.mu.Unlock()
	notify()
	return tx, nil
}

// SetCurrency selects the display currency.
func (l *Ledger) SetCurrency(cfg core.CurrencyConfig) {
	l.mu.Lock()
	c := cfg
	l.currency = &c
	notify := l.bump()
	l.mu.Unlock()
	notify()
}

func (l *Ledger) Currency() *core.CurrencyConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currency == nil {
		return nil
	}
	c := *l.currency
	return &c
}

// SetPIN stores the unlock PIN. An empty pin disables the lock.
func (l *Ledger) SetPIN(pin string) {
	l.mu.Lock()
	l.pin = pin
	notify := l.bump()
	l.mu.Unlock()
	notify()
}

func (l *Ledger) HasPIN() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pin != ""
}

// CheckPIN is the credential check the external lock screen calls. It has
// no side effects; session state belongs to the caller.
func (l *Ledger) CheckPIN(pin string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pin != "" && l.pin == pin
}

// SetCredential stores the WebAuthn credential id enrolled by the external
// biometric flow; ClearCredential deregisters it.
func (l *Ledger) SetCredential(id string) {
	l.mu.Lock()
	l.credentialID = id
	notify := l.bump()
	l.mu.Unlock()
	notify()
}

func (l *Ledger) ClearCredential() {
	l.SetCredential("")
}

func (l *Ledger) CredentialID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credentialID
}
