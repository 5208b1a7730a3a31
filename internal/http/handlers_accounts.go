package http

import (
	"net/http"

	"homeledger/internal/core"
)

type accountRequest struct {
	Name    string     `json:"name"`
	Balance core.Money `json:"balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "account name is required")
		return
	}
	acc := s.ledger.CreateBankAccount(name, req.Balance)
	respondJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleEditAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "account name is required")
		return
	}
	acc, err := s.ledger.EditBankAccount(r.PathValue("id"), name, req.Balance)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

// Deletes are idempotent: removing an unknown account succeeds.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.ledger.DeleteBankAccount(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type incomeRequest struct {
	Amount core.Money `json:"amount"`
	Date   string     `json:"date,omitempty"`
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
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
	tx, err := s.ledger.AddIncome(r.PathValue("id"), req.Amount, date)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.logs.LogTransactionRecorded(r.Context(), tx.ID, string(tx.Type), tx.Amount.String())
	respondJSON(w, http.StatusCreated, tx)
}
