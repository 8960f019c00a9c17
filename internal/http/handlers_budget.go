package http

import (
	"net/http"

	"spendlog/internal/core"
	"spendlog/internal/log"
)

type budgetView struct {
	Budget    float64 `json:"budget"`
	HasBudget bool    `json:"hasBudget"`
}

func newBudgetView(v float64) budgetView {
	return budgetView{Budget: v, HasBudget: v > 0}
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	writeJSON(w, http.StatusOK, newBudgetView(s.book.Budget.Get()))
}

// handleSetBudget takes the value from "budget" or "amount". Both dot and
// comma decimals are accepted.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		if err == errBodyTooLarge {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed request body")
		return
	}

	raw := p.Get("budget")
	if !p.Has("budget") {
		raw = p.Get("amount")
	}
	amount, err := core.ParseBudget(raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	write, err := s.book.Budget.Set(r.Context(), amount)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to set budget",
			log.FieldOperation, log.OpUpdate,
			log.FieldError, err)
		writeDomainError(w, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldAmount, amount,
		log.FieldKey, write.Key)
	writeJSON(w, http.StatusOK, newBudgetView(amount))
}
