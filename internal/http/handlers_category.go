package http

import (
	"net/http"

	"spendlog/internal/core"
	"spendlog/internal/log"
)

type categoryList struct {
	Categories []string `json:"categories"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	writeJSON(w, http.StatusOK, categoryList{Categories: s.book.Categories.List()})
}

// handleCreateCategory reads the label from "label" or, for older clients,
// "name".
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
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

	label := p.Get("label")
	if label == "" {
		label = p.Get("name")
	}
	label, err := core.NormalizeCategory(label)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if _, err := s.book.Categories.Add(r.Context(), label); err != nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Category not added",
			log.FieldOperation, log.OpCreate,
			log.FieldCategory, label,
			log.FieldError, err)
		writeDomainError(w, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Category added",
		log.FieldOperation, log.OpCreate,
		log.FieldCategory, label)
	writeJSON(w, http.StatusCreated, categoryList{Categories: s.book.Categories.List()})
}

// handleDeleteCategory removes the label. Expenses keep their category text.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	label := r.PathValue("label")
	if _, err := s.book.Categories.Delete(r.Context(), label); err != nil {
		writeDomainError(w, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Category deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldCategory, label)
	w.WriteHeader(http.StatusNoContent)
}
