package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendlog/internal/cache"
	"spendlog/internal/ledger"
	"spendlog/internal/log"
	"spendlog/internal/metrics"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
)

const (
	dashboardCacheSize = 32
	dashboardCacheTTL  = 10 * time.Minute
)

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Engine             metrics.Engine
	RateLimitPerMinute int
	Logger             *log.Logger

	// Ping checks the storage backend for /readyz.
	Ping func(ctx context.Context) error

	Now   func() time.Time
	NewID func() string
}

type Server struct {
	http.Server
	book    *ledger.Book
	engine  metrics.Engine
	logger  *log.Logger
	ping    func(ctx context.Context) error
	now     func() time.Time
	newID   func() string
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	dashboard *cache.Loader[metrics.Summary]
	caches    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around book, returning a
// ready-to-run server.
func NewServer(addr string, book *ledger.Book, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		book:   book,
		engine: opts.Engine,
		logger: logger,
		ping:   opts.Ping,
		now:    opts.Now,
		newID:  opts.NewID,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		caches: cache.NewManager(logger),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	lru := cache.NewLRUCache[metrics.Summary](dashboardCacheSize, dashboardCacheTTL)
	s.dashboard = cache.NewLoader[metrics.Summary](lru)
	s.caches.Register(lru)
	s.caches.StartCleanup(dashboardCacheTTL)

	ips := security.NewClientIPResolver()
	s.tracer = trace.NewMiddleware(ips.ClientIP, logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(ips.ClientIP, ratelimit.ReadOnly, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
			WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, ips.ClientIP(r))
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later")
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(limit(s.routes()))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses", s.handleClearExpenses)
	mux.HandleFunc("GET /api/expenses/export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{label}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budget", s.handleSetBudget)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "no such route")
	})
	return mux
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request and rate limit counters.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only once every collection has loaded and the
// backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.book.Ready() {
		writeError(w, http.StatusServiceUnavailable, CodeNotReady, "data is still loading")
		return
	}
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, CodeNotReady, "storage unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// dashboardKey changes whenever the ledger is written or the calendar day
// rolls over, the two things a summary depends on.
func (s *Server) dashboardKey(now time.Time) string {
	day := now.In(s.engineLocation()).Format("2006-01-02")
	return strconv.FormatUint(s.book.Revision(), 10) + "|" + day
}

func (s *Server) engineLocation() *time.Location {
	if s.engine.Location == nil {
		return time.Local
	}
	return s.engine.Location
}
