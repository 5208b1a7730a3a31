package http

import (
	"net/http"

	"homeledger/internal/core"
)

type loanRequest struct {
	Name    string     `json:"name"`
	Balance core.Money `json:"balance"`
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "loan name is required")
		return
	}
	loan := s.ledger.CreateLoanAccount(name, req.Balance)
	respondJSON(w, http.StatusCreated, loan)
}

func (s *Server) handleEditLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req, maxBodySize); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "loan name is required")
		return
	}
	loan, err := s.ledger.EditLoanAccount(r.PathValue("id"), name, req.Balance)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	s.ledger.DeleteLoanAccount(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
