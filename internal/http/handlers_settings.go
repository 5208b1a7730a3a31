package http

import (
	"net/http"

	"homeledger/internal/core"
)

// stateResponse is the full client-facing state. The PIN itself is never
// exposed, only whether one is set.
type stateResponse struct {
	BankAccounts         []core.BankAccount   `json:"accounts"`
	Loans                []core.LoanAccount   `json:"loans"`
	Transactions         []core.Transaction   `json:"transactions"`
	CashBalance          core.Money           `json:"cashBalance"`
	TotalBankBalance     core.Money           `json:"totalBankBalance"`
	OutstandingLoans     core.Money           `json:"outstandingLoans"`
	NetWorth             core.Money           `json:"netWorth"`
	Formatted            *formattedTotals     `json:"formatted,omitempty"`
	Currency             *core.CurrencyConfig `json:"currency,omitempty"`
	HasPIN               bool                 `json:"hasPin"`
	WebAuthnCredentialID string               `json:"webAuthnCredentialId,omitempty"`
	Revision             uint64               `json:"revision"`
}

// formattedTotals carries the headline figures rendered in the selected
// display currency, e.g. "₹1,234.50".
type formattedTotals struct {
	CashBalance      string `json:"cashBalance"`
	TotalBankBalance string `json:"totalBankBalance"`
	OutstandingLoans string `json:"outstandingLoans"`
	NetWorth         string `json:"netWorth"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	// Everything in the response derives from one snapshot, so the totals
	// and the revision always agree with the collections even under
	// concurrent mutations.
	snap, revision := s.ledger.SnapshotWithRevision()

	var totalBank, totalLoan core.Money
	for _, a := range snap.Accounts {
		totalBank = totalBank.Add(a.Balance)
	}
	for _, l := range snap.Loans {
		totalLoan = totalLoan.Add(l.Balance)
	}
	netWorth := totalBank.Add(snap.CashBalance)

	resp := stateResponse{
		BankAccounts:         snap.Accounts,
		Loans:                snap.Loans,
		Transactions:         snap.Transactions,
		CashBalance:          snap.CashBalance,
		TotalBankBalance:     totalBank,
		OutstandingLoans:     totalLoan,
		NetWorth:             netWorth,
		Currency:             snap.Currency,
		HasPIN:               snap.PIN != "",
		WebAuthnCredentialID: snap.WebAuthnCredentialID,
		Revision:             revision,
	}
	if cur := snap.Currency; cur != nil {
		resp.Formatted = &formattedTotals{
			CashBalance:      cur.Format(snap.CashBalance),
			TotalBankBalance: cur.Format(totalBank),
			OutstandingLoans: cur.Format(totalLoan),
			NetWorth:         cur.Format(netWorth),
		}
	}
	if resp.BankAccounts == nil {
		resp.BankAccounts = []core.BankAccount{}
	}
	if resp.Loans == nil {
		resp.Loans = []core.LoanAccount{}
	}
	if resp.Transactions == nil {
		resp.Transactions = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, resp)
}

type unlockRequest struct {
	PIN string `json:"pin"`
}

// handleUnlock checks the PIN. Session state belongs to the client; the
// server only answers the credential question.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.ledger.HasPIN() {
		respondJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
		return
	}
	if !s.ledger.CheckPIN(req.PIN) {
		respondError(w, http.StatusForbidden, "incorrect pin")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// handleSetPIN sets or clears the unlock PIN. An empty pin disables the
// lock.
func (s *Server) handleSetPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ledger.SetPIN(req.PIN)
	respondJSON(w, http.StatusOK, map[string]bool{"hasPin": req.PIN != ""})
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, core.Currencies())
}

type currencyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, ok := core.CurrencyByCode(req.Code)
	if !ok {
		respondError(w, http.StatusBadRequest, "unsupported currency code")
		return
	}
	s.ledger.SetCurrency(cfg)
	respondJSON(w, http.StatusOK, cfg)
}

type credentialRequest struct {
	CredentialID string `json:"credentialId"`
}

func (s *Server) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CredentialID == "" {
		respondError(w, http.StatusBadRequest, "credentialId is required")
		return
	}
	s.ledger.SetCredential(req.CredentialID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	s.ledger.ClearCredential()
	w.WriteHeader(http.StatusNoContent)
}
