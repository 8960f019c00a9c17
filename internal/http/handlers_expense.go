package http

import (
	"net/http"
	"strings"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/export"
	"spendlog/internal/log"
	"spendlog/internal/metrics"
)

// ExpenseList is the response of GET /api/expenses.
type ExpenseList struct {
	Month    string             `json:"month"`
	Months   []string           `json:"months"`
	Count    int                `json:"count"`
	Total    float64            `json:"total"`
	Expenses []core.Expense     `json:"expenses"`
	Days     []metrics.DayGroup `json:"days"`
}

// requireReady writes 503 and returns false until the ledger has loaded.
func (s *Server) requireReady(w http.ResponseWriter) bool {
	if s.book.Ready() {
		return true
	}
	writeError(w, http.StatusServiceUnavailable, CodeNotReady, "data is still loading")
	return false
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	month, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	all := s.book.Expenses.List()
	rows := s.engine.SortNewestFirst(s.engine.FilterMonth(all, month))

	writeJSON(w, http.StatusOK, ExpenseList{
		Month:    month,
		Months:   s.engine.Months(all),
		Count:    len(rows),
		Total:    s.engine.GrandTotal(rows),
		Expenses: rows,
		Days:     s.engine.GroupByDay(rows),
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	e, ok := s.book.Expenses.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "expense not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleCreateExpense accepts {amount, description, category, date}. The
// date is a calendar day; the stored timestamp takes the current time of day.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentLedger)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		if err == errBodyTooLarge {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed request body")
		return
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	description := p.Get("description")
	if description == "" {
		writeDomainError(w, core.ErrEmptyDescription)
		return
	}
	category := p.Get("category")
	if category == "" {
		category = s.defaultCategory()
	}

	now := s.now().In(s.engineLocation())
	day := p.Get("date")
	if day == "" {
		day = now.Format(core.DayLayout)
	}

	e := core.NewExpense(s.newID(), amount, description, category, day, now)
	write, err := s.book.Expenses.Add(r.Context(), e)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to add expense",
			log.NewFields().WithOperation(log.OpCreate).WithError(err).
				WithExpense(e.ID, e.Description, e.Amount, e.Category).ToSlice()...)
		writeDomainError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Expense added",
		log.NewFields().WithOperation(log.OpCreate).
			WithExpense(e.ID, e.Description, e.Amount, e.Category).
			WithWrite(write.Key, s.book.Revision()).ToSlice()...)

	w.Header().Set("Location", "/api/expenses/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

// defaultCategory is the first registered category, or Food when the
// registry is empty.
func (s *Server) defaultCategory() string {
	if cats := s.book.Categories.List(); len(cats) > 0 {
		return cats[0]
	}
	return "Food"
}

// handleUpdateExpense applies the fields present in the body to an existing
// expense. A new date keeps the stored time of day.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentLedger)

	id := r.PathValue("id")
	e, ok := s.book.Expenses.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "expense not found")
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

	if p.Has("amount") {
		amount, err := core.ParseAmount(p.Get("amount"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		e.Amount = amount
	}
	if p.Has("description") {
		description := p.Get("description")
		if description == "" {
			writeDomainError(w, core.ErrEmptyDescription)
			return
		}
		e.Description = description
	}
	if p.Has("category") {
		if category := p.Get("category"); category != "" {
			e.Category = category
		}
	}
	if day := p.Get("date"); day != "" {
		e.Date = s.redate(e, day)
	}

	write, err := s.book.Expenses.Update(r.Context(), e)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to update expense",
			log.FieldOperation, log.OpUpdate,
			log.FieldExpenseID, id,
			log.FieldError, err)
		writeDomainError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Expense updated",
		log.NewFields().WithOperation(log.OpUpdate).
			WithExpense(e.ID, e.Description, e.Amount, e.Category).
			WithWrite(write.Key, s.book.Revision()).ToSlice()...)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) redate(e core.Expense, day string) string {
	loc := s.engineLocation()
	base, err := e.Time(loc)
	if err != nil {
		base = s.now().In(loc)
	}
	return core.FormatTimestamp(core.EntryTime(day, base))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	id := r.PathValue("id")
	write, err := s.book.Expenses.DeleteByID(r.Context(), id)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to delete expense",
			log.FieldOperation, log.OpDelete,
			log.FieldExpenseID, id,
			log.FieldError, err)
		writeDomainError(w, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id,
		log.FieldKey, write.Key)
	w.WriteHeader(http.StatusNoContent)
}

// handleClearExpenses removes every expense. It needs ?confirm=true.
func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	if !strings.EqualFold(r.URL.Query().Get("confirm"), "true") {
		writeError(w, http.StatusBadRequest, CodeConfirmRequired, "clearing all expenses requires confirm=true")
		return
	}
	if _, err := s.book.Expenses.ClearAll(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to clear expenses",
			log.FieldOperation, log.OpClear,
			log.FieldError, err)
		writeDomainError(w, err)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "All expenses cleared", log.FieldOperation, log.OpClear)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	month, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	start := time.Now()
	name, content := export.Month(s.engine, s.book.Expenses.List(), month)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))

	log.FromContext(r.Context()).WithComponent(log.ComponentExport).DebugContext(r.Context(), "CSV exported",
		log.FieldOperation, log.OpExport,
		log.FieldMonth, month,
		log.FieldDuration, time.Since(start).Milliseconds())
}
