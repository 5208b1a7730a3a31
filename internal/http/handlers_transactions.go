package http

import (
	"net/http"

	"homeledger/internal/core"
)

type transferRequest struct {
	SourceID        string     `json:"sourceId"`
	DestinationType string     `json:"destinationType"`
	DestinationID   string     `json:"destinationId"`
	Amount          core.Money `json:"amount"`
	Remarks         string     `json:"remarks,omitempty"`
	Date            string     `json:"date,omitempty"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := core.ParseDestinationKind(req.DestinationType)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		respondDomainError(w, r, core.ErrInvalidAmount)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := s.ledger.Transfer(req.SourceID, kind, sanitizeInput(req.DestinationID), req.Amount, sanitizeInput(req.Remarks), date)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.logs.LogTransactionRecorded(r.Context(), tx.ID, string(tx.Type), tx.Amount.String())
	respondJSON(w, http.StatusCreated, tx)
}

type expenseRequest struct {
	SourceID string     `json:"sourceId"`
	Amount   core.Money `json:"amount"`
	Remarks  string     `json:"remarks,omitempty"`
	Date     string     `json:"date,omitempty"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		respondDomainError(w, r, core.ErrInvalidAmount)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := s.ledger.AddExpense(date, req.SourceID, req.Amount, sanitizeInput(req.Remarks))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.logs.LogTransactionRecorded(r.Context(), tx.ID, string(tx.Type), tx.Amount.String())
	respondJSON(w, http.StatusCreated, tx)
}

// handleTransactions lists transactions in a date range, newest first.
// Without parameters the range is the current month to date.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Extend to end of day so the range covers its last day fully.
	to = endOfDay(to)
	txs := s.ledger.TransactionsBetween(from, to)
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}
