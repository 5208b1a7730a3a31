// Domain errors surfaced by ledger operations. They are caller-visible and
// never fatal: a rejected operation leaves the ledger unchanged. The HTTP
// layer maps them to status codes (404, 409, 400).
package ledger

import "errors"

var (
	// ErrNotFound means a referenced account or loan id does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds means a debit would exceed the available
	// balance of the source account or cash.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
