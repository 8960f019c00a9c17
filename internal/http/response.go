package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"spendlog/internal/core"
	"spendlog/internal/ledger"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeBadRequest      = "bad_request"
	CodeInvalidAmount   = "invalid_amount"
	CodeInvalidBudget   = "invalid_budget"
	CodeInvalidMonth    = "invalid_month"
	CodeMissingField    = "missing_field"
	CodeDuplicate       = "duplicate"
	CodeNotFound        = "not_found"
	CodeConfirmRequired = "confirmation_required"
	CodeNotReady        = "not_ready"
	CodeRateLimited     = "rate_limited"
	CodeTooLarge        = "body_too_large"
	CodeInternal        = "internal_error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Code: code, Message: message})
}

// writeDomainError maps ledger and input errors to a status and code.
// Anything unrecognised is a 500 with a generic message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, CodeInvalidAmount, "amount must be a number greater than or equal to zero")
	case errors.Is(err, core.ErrInvalidBudget):
		writeError(w, http.StatusUnprocessableEntity, CodeInvalidBudget, "budget must be a number greater than or equal to zero")
	case errors.Is(err, core.ErrEmptyDescription):
		writeError(w, http.StatusUnprocessableEntity, CodeMissingField, "description is required")
	case errors.Is(err, core.ErrEmptyCategory):
		writeError(w, http.StatusUnprocessableEntity, CodeMissingField, "category label is required")
	case errors.Is(err, core.ErrEmptyID):
		writeError(w, http.StatusUnprocessableEntity, CodeMissingField, "expense id is required")
	case errors.Is(err, core.ErrDuplicateID):
		writeError(w, http.StatusConflict, CodeDuplicate, "an expense with this id already exists")
	case errors.Is(err, core.ErrCategoryExists):
		writeError(w, http.StatusConflict, CodeDuplicate, "category already exists")
	case errors.Is(err, errInvalidMonth):
		writeError(w, http.StatusBadRequest, CodeInvalidMonth, err.Error())
	case errors.Is(err, errBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error())
	case errors.Is(err, ledger.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, CodeNotReady, "data is still loading")
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
