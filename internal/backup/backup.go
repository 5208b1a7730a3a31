// Package backup exports and restores the user-facing JSON backup file.
// The format is fixed: version "1.0", an export timestamp and the four
// ledger collections. Restore is forgiving on purpose, a file with any
// recognizable collection is accepted and unreadable fields are skipped.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"homeledger/internal/core"
	"homeledger/internal/ledger"
)

const Version = "1.0"

// ErrInvalidBackup means none of the backup's collections could be read.
var ErrInvalidBackup = errors.New("invalid backup file")

// File is the on-disk backup document.
type File struct {
	Version      string             `json:"version"`
	Timestamp    time.Time          `json:"timestamp"`
	Accounts     []core.BankAccount `json:"accounts"`
	Loans        []core.LoanAccount `json:"loans"`
	Transactions []core.Transaction `json:"transactions"`
	CashBalance  core.Money         `json:"cashBalance"`
}

// Export builds a backup document from a snapshot. Settings (currency, pin,
// credential) are device state and are not exported.
func Export(snap ledger.Snapshot, now time.Time) File {
	return File{
		Version:      Version,
		Timestamp:    now,
		Accounts:     snap.Accounts,
		Loans:        snap.Loans,
		Transactions: snap.Transactions,
		CashBalance:  snap.CashBalance,
	}
}

// Marshal renders the backup as indented JSON, the format users see when
// they open the file.
func Marshal(f File) ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

// Write stores the backup atomically: write a temp file in the target
// directory, then rename over the destination.
func Write(path string, f File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".backup-*.json")
	if err != nil {
		return fmt.Errorf("create temp backup: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename backup: %w", err)
	}
	return nil
}

// Filename returns the suggested download name for a backup taken now,
// e.g. "finance-backup-2026-04-02.json".
func Filename(now time.Time) string {
	return fmt.Sprintf("finance-backup-%s.json", now.Format("2006-01-02"))
}

// Parse decodes user-supplied backup JSON field by field. Each collection
// that is present and well-formed becomes a non-nil RestoreData field;
// absent or malformed fields stay nil and are left untouched on restore.
// Only when all three collections are unusable is the file rejected.
func Parse(data []byte) (ledger.RestoreData, error) {
	var raw struct {
		Accounts     json.RawMessage `json:"accounts"`
		Loans        json.RawMessage `json:"loans"`
		Transactions json.RawMessage `json:"transactions"`
		CashBalance  json.RawMessage `json:"cashBalance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ledger.RestoreData{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	var out ledger.RestoreData
	if raw.Accounts != nil {
		var accounts []core.BankAccount
		if err := json.Unmarshal(raw.Accounts, &accounts); err == nil {
			out.Accounts = &accounts
		}
	}
	if raw.Loans != nil {
		var loans []core.LoanAccount
		if err := json.Unmarshal(raw.Loans, &loans); err == nil {
			out.Loans = &loans
		}
	}
	if raw.Transactions != nil {
		var transactions []core.Transaction
		if err := json.Unmarshal(raw.Transactions, &transactions); err == nil {
			out.Transactions = &transactions
		}
	}
	if raw.CashBalance != nil {
		var cash core.Money
		if err := json.Unmarshal(raw.CashBalance, &cash); err == nil {
			out.CashBalance = &cash
		}
	}

	if out.Accounts == nil && out.Loans == nil && out.Transactions == nil {
		return ledger.RestoreData{}, ErrInvalidBackup
	}
	return out, nil
}
