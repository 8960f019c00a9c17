package http

import (
	"net/http"

	"spendlog/internal/log"
	"spendlog/internal/metrics"
)

// handleDashboard serves the summary for now. Results are cached per ledger
// revision and calendar day; concurrent misses compute once.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !s.requireReady(w) {
		return
	}
	now := s.now()
	key := s.dashboardKey(now)

	summary, hit, err := s.dashboard.Get(key, func() (metrics.Summary, error) {
		snap := s.book.Snapshot()
		return s.engine.Summarize(snap.Expenses, snap.Budget, now), nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
		log.FromContext(r.Context()).WithComponent(log.ComponentCache).DebugContext(r.Context(), "Dashboard cache hit", log.FieldKey, key)
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, summary)
}
