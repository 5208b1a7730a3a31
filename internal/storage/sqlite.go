// Package storage persists ledger snapshots to SQLite. The whole state is
// small (one household), so Save replaces everything inside one database
// transaction instead of diffing; Load rebuilds the snapshot in stored
// order.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"homeledger/internal/core"
	"homeledger/internal/ledger"

	_ "modernc.org/sqlite"
)

// Settings keys. Money and timestamps are stored as text so values
// round-trip exactly.
const (
	settingCashBalance  = "cash_balance"
	settingCurrency     = "currency"
	settingPIN          = "pin"
	settingCredentialID = "webauthn_credential_id"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save writes the snapshot, replacing all previous state atomically.
func (r *SQLiteRepository) Save(ctx context.Context, snap ledger.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"bank_accounts", "loan_accounts", "transactions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, a := range snap.Accounts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bank_accounts (id, name, balance, account_number, color, updated_at, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.Balance.String(), a.AccountNumber, a.Color, formatTime(a.UpdatedAt), i)
		if err != nil {
			return fmt.Errorf("insert bank account %s: %w", a.ID, err)
		}
	}

	for i, l := range snap.Loans {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO loan_accounts (id, name, balance, account_number, color, updated_at, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Name, l.Balance.String(), l.AccountNumber, l.Color, formatTime(l.UpdatedAt), i)
		if err != nil {
			return fmt.Errorf("insert loan account %s: %w", l.ID, err)
		}
	}

	for i, t := range snap.Transactions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, date, amount, type, source_id, source_name, destination_id, destination_name, description, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, formatTime(t.Date), t.Amount.String(), string(t.Type),
			t.SourceID, t.SourceName, t.DestinationID, t.DestinationName, t.Description, i)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	settings := map[string]string{
		settingCashBalance:  snap.CashBalance.String(),
		settingPIN:          snap.PIN,
		settingCredentialID: snap.WebAuthnCredentialID,
	}
	if snap.Currency != nil {
		data, err := json.Marshal(snap.Currency)
		if err != nil {
			return fmt.Errorf("marshal currency: %w", err)
		}
		settings[settingCurrency] = string(data)
	} else {
		settings[settingCurrency] = ""
	}
	for key, value := range settings {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value)
		if err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved",
		"accounts", len(snap.Accounts),
		"loans", len(snap.Loans),
		"transactions", len(snap.Transactions))

	return nil
}

// Load reads the last saved snapshot. An empty database yields an empty
// snapshot, not an error.
func (r *SQLiteRepository) Load(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance, account_number, color, updated_at
		 FROM bank_accounts ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("load bank accounts: %w", err)
	}
	for rows.Next() {
		var a core.BankAccount
		var balance, updatedAt string
		if err := rows.Scan(&a.ID, &a.Name, &balance, &a.AccountNumber, &a.Color, &updatedAt); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan bank account: %w", err)
		}
		if a.Balance, err = core.ParseBalance(balance); err != nil {
			rows.Close()
			return snap, fmt.Errorf("bank account %s balance %q: %w", a.ID, balance, err)
		}
		a.UpdatedAt = parseTime(updatedAt)
		snap.Accounts = append(snap.Accounts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate bank accounts: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, name, balance, account_number, color, updated_at
		 FROM loan_accounts ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("load loan accounts: %w", err)
	}
	for rows.Next() {
		var l core.LoanAccount
		var balance, updatedAt string
		if err := rows.Scan(&l.ID, &l.Name, &balance, &l.AccountNumber, &l.Color, &updatedAt); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan loan account: %w", err)
		}
		if l.Balance, err = core.ParseBalance(balance); err != nil {
			rows.Close()
			return snap, fmt.Errorf("loan account %s balance %q: %w", l.ID, balance, err)
		}
		l.UpdatedAt = parseTime(updatedAt)
		snap.Loans = append(snap.Loans, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate loan accounts: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, date, amount, type, source_id, source_name, destination_id, destination_name, description
		 FROM transactions ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("load transactions: %w", err)
	}
	for rows.Next() {
		var t core.Transaction
		var date, amount, txType string
		if err := rows.Scan(&t.ID, &date, &amount, &txType,
			&t.SourceID, &t.SourceName, &t.DestinationID, &t.DestinationName, &t.Description); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = core.ParseBalance(amount); err != nil {
			rows.Close()
			return snap, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
		}
		t.Date = parseTime(date)
		t.Type = core.TransactionType(txType)
		snap.Transactions = append(snap.Transactions, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate transactions: %w", err)
	}

	settings, err := r.loadSettings(ctx)
	if err != nil {
		return snap, err
	}
	if v := settings[settingCashBalance]; v != "" {
		if snap.CashBalance, err = core.ParseBalance(v); err != nil {
			return snap, fmt.Errorf("cash balance %q: %w", v, err)
		}
	}
	if v := settings[settingCurrency]; v != "" {
		var cfg core.CurrencyConfig
		if err := json.Unmarshal([]byte(v), &cfg); err != nil {
			return snap, fmt.Errorf("unmarshal currency: %w", err)
		}
		snap.Currency = &cfg
	}
	snap.PIN = settings[settingPIN]
	snap.WebAuthnCredentialID = settings[settingCredentialID]

	return snap, nil
}

func (r *SQLiteRepository) loadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return settings, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
