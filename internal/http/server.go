// Package http exposes the tracker services as a JSON API under /api.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"studentspend/internal/metrics"
	"studentspend/internal/middleware/security"
	"studentspend/internal/middleware/trace"
	"studentspend/internal/services"
	"studentspend/internal/storage"
)

const readinessTimeout = 2 * time.Second

// Options wires the server to its store and optional collaborators.
type Options struct {
	Addr               string
	Store              storage.Store
	Publisher          services.EventPublisher
	Metrics            *metrics.Metrics
	CORSAllowedOrigins []string
}

type Server struct {
	http.Server

	directory *services.DirectoryService
	ledger    *services.LedgerService
	splits    *services.SplitService
	contact   *services.ContactService
	summary   *services.SummaryService
	store     storage.Store
	metrics   *metrics.Metrics
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	s := &Server{
		directory: services.NewDirectoryService(opts.Store, opts.Metrics),
		ledger:    services.NewLedgerService(opts.Store, opts.Metrics),
		splits:    services.NewSplitService(opts.Store, opts.Store, opts.Publisher, opts.Metrics),
		contact:   services.NewContactService(opts.Publisher, opts.Metrics),
		summary:   services.NewSummaryService(opts.Store),
		store:     opts.Store,
		metrics:   opts.Metrics,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	var h http.Handler = mux
	h = security.CORS(security.DefaultCORSConfig(origins))(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = recoverPanics(h)
	h = trace.NewMiddleware(security.NewClientIP().Extract, opts.Metrics).Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/students/search/{term}", s.handleSearchStudents)
	mux.HandleFunc("GET /api/students/{regNo}", s.handleGetStudent)
	mux.HandleFunc("PUT /api/students/{regNo}/budget", s.handleUpdateBudget)
	mux.HandleFunc("PUT /api/students/{regNo}/income", s.handleUpdateIncome)

	mux.HandleFunc("GET /api/expenses/{regNo}", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/splits/{regNo}", s.handleListSplits)
	mux.HandleFunc("POST /api/splits", s.handleCreateSplit)

	mux.HandleFunc("GET /api/summary/{regNo}", s.handleSummary)
	mux.HandleFunc("POST /api/contact", s.handleContact)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Route not found")
	})

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// recoverPanics turns a handler panic into a 500 response.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(r.Context(), "Handler panic", "panic", rec, "path", r.URL.Path)
				writeError(w, r, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
