package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/identity"
	"github.com/vbonduro/drinkbudget/internal/state"
)

type budgetStore interface {
	Load(ctx context.Context) error
	Reset()
	Snapshot() state.Snapshot
	AddItem(ctx context.Context, values domain.ItemValues) (domain.LineItem, error)
	UpdateItem(ctx context.Context, id string, values domain.ItemValues) (domain.LineItem, error)
	DeleteItem(ctx context.Context, id string) error
	SetScalarField(ctx context.Context, field domain.ScalarField, value decimal.Decimal) error
}

type authenticator interface {
	SendLoginChallenge(ctx context.Context, address string) error
	Verify(ctx context.Context, token string) (*identity.Identity, error)
	SignOut(ctx context.Context) error
}

const maxBodyBytes = 1 << 20

type Server struct {
	store  budgetStore
	auth   authenticator
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer builds the JSON API over store. auth may be nil, in which case
// the /auth routes are not registered.
func NewServer(store budgetStore, auth authenticator, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		auth:   auth,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /budget", s.handleGetBudget)
	s.mux.HandleFunc("POST /budget/load", s.handleLoadBudget)
	s.mux.HandleFunc("PUT /budget/target", s.handleSetTarget)
	s.mux.HandleFunc("PUT /budget/guests", s.handleSetGuests)
	s.mux.HandleFunc("GET /items", s.handleListItems)
	s.mux.HandleFunc("POST /items", s.handleCreateItem)
	s.mux.HandleFunc("PUT /items/{id}", s.handleUpdateItem)
	s.mux.HandleFunc("DELETE /items/{id}", s.handleDeleteItem)
	if s.auth != nil {
		s.mux.HandleFunc("POST /auth/login", s.handleLogin)
		s.mux.HandleFunc("GET /auth/verify", s.handleVerify)
		s.mux.HandleFunc("POST /auth/logout", s.handleLogout)
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
