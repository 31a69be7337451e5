package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/auth"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
)

// TransactionAPI is the service surface the handlers call.
type TransactionAPI interface {
	Create(ctx context.Context, userID int64, in core.CreateTransactionInput) ([]core.Transaction, error)
	Get(ctx context.Context, id, userID int64) (core.Transaction, error)
	List(ctx context.Context, userID int64, in core.ListTransactionsInput) (core.TransactionPage, error)
	Update(ctx context.Context, id, userID int64, in core.UpdateTransactionInput) (core.Transaction, error)
	Delete(ctx context.Context, id, userID int64, scope core.DeleteScope) (int64, error)
	DeleteInstallmentGroup(ctx context.Context, id, userID int64) (int64, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server settings.
type Config struct {
	Addr               string
	JWTSecret          string
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	svc    TransactionAPI
	checks map[string]Pinger
	logger *applog.Logger

	auth        *auth.Authenticator
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	metrics     *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// checks are pinged by /readyz.
func NewServer(cfg Config, svc TransactionAPI, checks map[string]Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		svc:         svc,
		checks:      checks,
		logger:      logger,
		detector:    security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		metrics:     newAppMetrics(),
	}
	s.auth = auth.NewAuthenticator(cfg.JWTSecret, s.writeAuthError)
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/transactions", s.handleCreate)
	api.HandleFunc("GET /v1/transactions", s.handleList)
	api.HandleFunc("GET /v1/transactions/{id}", s.handleGet)
	api.HandleFunc("PUT /v1/transactions/{id}", s.handleUpdate)
	api.HandleFunc("DELETE /v1/transactions/{id}", s.handleDelete)
	api.HandleFunc("DELETE /v1/transactions/installments/{id}", s.handleDeleteGroup)
	api.HandleFunc("/v1/", s.handleNotFound)

	protected := s.auth.Middleware(
		s.rateLimiter.Middleware(rateLimitKey(s.detector), s.writeRateLimited)(api))

	mux := http.NewServeMux()
	mux.Handle("/v1/", protected)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("/", s.handleNotFound)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.detector.Middleware(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// rateLimitKey buckets authenticated requests per user and falls back to the
// client address.
func rateLimitKey(d *security.Detector) func(*http.Request) string {
	return func(r *http.Request) string {
		if id, ok := auth.UserID(r.Context()); ok {
			return "user:" + strconv.FormatInt(id, 10)
		}
		return "ip:" + d.ExtractClientIP(r)
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
