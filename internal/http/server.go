package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"schoolaccounts/internal/log"
	"schoolaccounts/internal/middleware/ratelimit"
	"schoolaccounts/internal/middleware/security"
	"schoolaccounts/internal/middleware/trace"
	"schoolaccounts/internal/services"
)

// Pinger reports whether the ledger store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the use cases exposed over HTTP.
type Services struct {
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Students     *services.StudentService
	Balances     *services.BalanceService
	Reports      *services.ReportService
}

// Config holds the server dependencies that are not use cases.
type Config struct {
	Addr               string
	Logger             *log.Logger
	Verifier           CallerVerifier
	Store              Pinger
	RateLimitPerMinute int
	TrustedProxies     []string
}

// AppMetrics tracks application-level counters
type AppMetrics struct {
	transactionsCreated int64
	transactionsVoided  int64
	uptime              time.Time
}

type Server struct {
	http.Server
	svc      Services
	verifier CallerVerifier
	store    Pinger
	logger   *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	headers          *security.HeadersMiddleware

	appMetrics   *AppMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	limits := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:              svc,
		verifier:         cfg.Verifier,
		store:            cfg.Store,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(limits),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		headers:          security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		appMetrics:       &AppMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(h)
	h = detector.Middleware(h)
	h = s.headers.Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.api(mux, "GET /api/me", s.handleMe)

	s.api(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.api(mux, "GET /api/transactions", s.handleListTransactions)
	s.api(mux, "GET /api/transactions/{id}", s.handleGetTransaction)
	s.api(mux, "PUT /api/transactions/{id}", s.handleUpdateTransaction)
	s.api(mux, "POST /api/transactions/{id}/void", s.handleVoidTransaction)

	s.api(mux, "GET /api/categories", s.handleListCategories)
	s.api(mux, "POST /api/categories", s.handleCreateCategory)
	s.api(mux, "PUT /api/categories/{id}", s.handleUpdateCategory)
	s.api(mux, "DELETE /api/categories/{id}", s.handleDeleteCategory)

	s.api(mux, "GET /api/students", s.handleListStudents)
	s.api(mux, "POST /api/students", s.handleCreateStudent)
	s.api(mux, "GET /api/students/{id}", s.handleGetStudent)
	s.api(mux, "PUT /api/students/{id}", s.handleUpdateStudent)
	s.api(mux, "GET /api/students/{id}/transactions", s.handleStudentTransactions)

	s.api(mux, "GET /api/opening-balance", s.handleGetOpeningBalance)
	s.api(mux, "PUT /api/opening-balance", s.handleSetOpeningBalance)

	s.api(mux, "GET /api/reports/daily", s.handleDailySummary)
	s.api(mux, "GET /api/reports/monthly", s.handleMonthlySummary)
	s.api(mux, "GET /api/reports/totals", s.handleAllTimeTotals)
	s.api(mux, "GET /api/reports/balance", s.handleBalance)
	s.api(mux, "GET /api/reports/chart", s.handleMonthlyChart)
	s.api(mux, "GET /api/reports/breakdown", s.handleCategoryBreakdown)
	s.api(mux, "GET /api/reports/top-categories", s.handleTopCategories)
	s.api(mux, "GET /api/reports/recent", s.handleRecentActivity)
	s.api(mux, "GET /api/reports/dashboard", s.handleDashboard)
	s.api(mux, "GET /api/reports/report", s.handleReport)
}

// api registers an authenticated JSON route.
func (s *Server) api(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, requireCaller(s.verifier, h))
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) countCreated() {
	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)
}

func (s *Server) countVoided() {
	atomic.AddInt64(&s.appMetrics.transactionsVoided, 1)
}
