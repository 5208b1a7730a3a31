package ledger

import "homeledger/internal/core"

// Snapshot is the full persisted state: the four ledger fields plus the
// settings that must survive restarts. Field names are the on-disk
// contract shared with backups written by earlier versions of the app.
type Snapshot struct {
	Accounts             []core.BankAccount   `json:"accounts"`
	Loans                []core.LoanAccount   `json:"loans"`
	Transactions         []core.Transaction   `json:"transactions"`
	CashBalance          core.Money           `json:"cashBalance"`
	Currency             *core.CurrencyConfig `json:"currency,omitempty"`
	PIN                  string               `json:"pin,omitempty"`
	WebAuthnCredentialID string               `json:"webAuthnCredentialId,omitempty"`
}

// RestoreData carries the fields of a user-supplied backup. Nil fields were
// absent or malformed in the input and are left unchanged on restore.
type RestoreData struct {
	Accounts     *[]core.BankAccount
	Loans        *[]core.LoanAccount
	Transactions *[]core.Transaction
	CashBalance  *core.Money
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// SnapshotWithRevision returns the snapshot together with the revision it
// reflects, captured in a single lock acquisition. Callers that key derived
// data by revision must use this instead of separate Snapshot and Revision
// calls, which a concurrent mutation can land between.
func (l *Ledger) SnapshotWithRevision() (Snapshot, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked(), l.revision
}

func (l *Ledger) snapshotLocked() Snapshot {
	snap := Snapshot{
		Accounts:             append([]core.BankAccount(nil), l.accounts...),
		Loans:                append([]core.LoanAccount(nil), l.loans...),
		Transactions:         append([]core.Transaction(nil), l.transactions...),
		CashBalance:          l.cash,
		PIN:                  l.pin,
		WebAuthnCredentialID: l.credentialID,
	}
	if l.currency != nil {
		c := *l.currency
		snap.Currency = &c
	}
	return snap
}

// Restore replaces state field by field from a user-initiated backup.
// Present fields overwrite wholesale with no consistency checks beyond
// shape; this is deliberately destructive, the caller owns the data.
// Settings (currency, pin, credential) are not part of backups and are
// kept.
func (l *Ledger) Restore(data RestoreData) {
	l.mu.Lock()
	if data.Accounts != nil {
		l.accounts = append([]core.BankAccount(nil), (*data.Accounts)...)
	}
	if data.Loans != nil {
		l.loans = append([]core.LoanAccount(nil), (*data.Loans)...)
	}
	if data.Transactions != nil {
		l.transactions = append([]core.Transaction(nil), (*data.Transactions)...)
	}
	if data.CashBalance != nil {
		l.cash = *data.CashBalance
	}
	notify := l.bump()
	l.mu.Unlock()
	notify()
}
