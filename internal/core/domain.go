package core

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Transaction types. The type determines the sign semantics of Amount,
// which is always stored positive.
const (
	TypeIncome           TransactionType = "INCOME"
	TypeExpense          TransactionType = "EXPENSE"
	TypeTransferLoan     TransactionType = "TRANSFER_LOAN"
	TypeWithdrawal       TransactionType = "WITHDRAWAL"
	TypeAdjustment       TransactionType = "ADJUSTMENT"
	TypeTransferBank     TransactionType = "TRANSFER_BANK"
	TypeTransferExternal TransactionType = "TRANSFER_EXTERNAL"
)

// Sentinel identifiers standing in for non-account parties in a
// transaction. They share the id space with generated account ids but are
// never produced by NewID.
const (
	SentinelCash     = "CASH"
	SentinelExternal = "EXTERNAL"
)

// Destination kinds accepted by a transfer.
const (
	DestBank     DestinationKind = "BANK"
	DestLoan     DestinationKind = "LOAN"
	DestCash     DestinationKind = "CASH"
	DestExternal DestinationKind = "EXTERNAL"
)

type (
	TransactionType string

	DestinationKind string

	// BankAccount holds funds. Balance is signed: a negative balance
	// represents an overdraft and is allowed.
	BankAccount struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		Balance       Money     `json:"balance"`
		AccountNumber string    `json:"accountNumber"`
		Color         string    `json:"color"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// LoanAccount tracks outstanding debt. A larger balance means more
	// owed; overpaying a loan may drive it negative.
	LoanAccount struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		Balance       Money     `json:"balance"`
		AccountNumber string    `json:"accountNumber"`
		Color         string    `json:"color"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// Transaction is an immutable record of one money movement.
	// SourceID and DestinationID are account ids or the CASH/EXTERNAL
	// sentinels; the name fields snapshot the display names at creation
	// time so deleting an account never corrupts history.
	Transaction struct {
		ID              string          `json:"id"`
		Date            time.Time       `json:"date"`
		Amount          Money           `json:"amount"`
		Type            TransactionType `json:"type"`
		SourceID        string          `json:"sourceId"`
		SourceName      string          `json:"sourceName"`
		DestinationID   string          `json:"destinationId,omitempty"`
		DestinationName string          `json:"destinationName,omitempty"`
		Description     string          `json:"description"`
	}
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseDestinationKind validates a transfer destination kind.
func ParseDestinationKind(s string) (DestinationKind, error) {
	switch DestinationKind(s) {
	case DestBank, DestLoan, DestCash, DestExternal:
		return DestinationKind(s), nil
	default:
		return "", fmt.Errorf("unknown destination kind: %q", s)
	}
}

// NewID returns a fresh account or transaction identifier.
func NewID() string {
	return uuid.NewString()
}

// Card gradients assigned at creation time. Cosmetic only.
var cardGradients = []string{
	"from-blue-600 to-blue-800",
	"from-emerald-500 to-teal-700",
	"from-indigo-500 to-purple-700",
	"from-rose-500 to-pink-700",
	"from-amber-500 to-orange-700",
}

var loanGradients = []string{
	"from-red-500 to-red-700",
	"from-orange-500 to-orange-700",
	"from-pink-600 to-rose-800",
}

func RandomCardGradient() string {
	return cardGradients[rand.Intn(len(cardGradients))]
}

func RandomLoanGradient() string {
	return loanGradients[rand.Intn(len(loanGradients))]
}

// NewAccountNumber returns a masked four digit account number label.
func NewAccountNumber() string {
	return fmt.Sprintf("**** %d", 1000+rand.Intn(9000))
}
