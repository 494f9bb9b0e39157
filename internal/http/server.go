package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"contas/internal/auth"
	"contas/internal/core"
	"contas/internal/export"
	applog "contas/internal/log"
	"contas/internal/middleware/ratelimit"
	"contas/internal/middleware/security"
	"contas/internal/middleware/trace"
	"contas/internal/services"
)

// Ledger records and lists transactions for one user.
type Ledger interface {
	ListAccounts(ctx context.Context, userID int64) ([]core.Account, error)
	ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error)
	RecordTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error)
	Transfer(ctx context.Context, userID int64, in core.TransferInput) (services.TransferResult, error)
	SalarySplit(ctx context.Context, userID int64, in core.SalarySplitInput) (services.SalarySplitResult, error)
	RecomputeBalances(ctx context.Context, userID int64) error
}

type Debts interface {
	CreateDebt(ctx context.Context, userID int64, in core.DebtInput) (core.Debt, error)
	GetDebt(ctx context.Context, userID, debtID int64) (core.Debt, error)
	ListDebts(ctx context.Context, userID int64) ([]core.Debt, error)
	PayDebt(ctx context.Context, userID int64, in core.PaymentInput) (services.PaymentResult, error)
}

type Reports interface {
	DashboardSummary(ctx context.Context, userID int64) (core.Dashboard, error)
	ReportSummary(ctx context.Context, userID int64) (core.Report, error)
	SummarizeTransactions(ctx context.Context, userID int64, f core.TransactionFilter) (core.TransactionSummary, error)
}

type Users interface {
	Login(ctx context.Context, email, password string) (core.User, auth.Token, error)
	Profile(ctx context.Context, userID int64) (core.User, error)
	CreateUser(ctx context.Context, caller auth.Identity, in core.NewUser) (core.User, error)
	ListUsers(ctx context.Context, caller auth.Identity) ([]core.User, error)
}

type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Ledger  Ledger
	Debts   Debts
	Reports Reports
	Users   Users
	Tokens  TokenVerifier
	DB      Pinger
	Logger  *applog.Logger
}

type Options struct {
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps      Deps
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	now       func() time.Time
	renderPDF reportPDFFunc

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	detector := security.NewDetector()
	s := &Server{
		deps:      deps,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP),
		now:       time.Now,
		renderPDF: export.WriteReportPDF,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/login", s.handleLogin)

	mux.Handle("GET /api/me", s.authed(s.handleMe))
	mux.Handle("GET /api/users", s.authed(s.handleListUsers))
	mux.Handle("POST /api/users", s.authed(s.handleCreateUser))

	mux.Handle("GET /api/accounts", s.authed(s.handleListAccounts))
	mux.Handle("POST /api/accounts/recompute", s.authed(s.handleRecompute))
	mux.Handle("GET /api/transactions", s.authed(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.authed(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions/summary", s.authed(s.handleTransactionSummary))
	mux.Handle("GET /api/transactions/export.csv", s.authed(s.handleExportCSV))
	mux.Handle("GET /api/transactions/export.xlsx", s.authed(s.handleExportXLSX))
	mux.Handle("POST /api/transfers", s.authed(s.handleTransfer))
	mux.Handle("POST /api/salary-split", s.authed(s.handleSalarySplit))

	mux.Handle("GET /api/debts", s.authed(s.handleListDebts))
	mux.Handle("POST /api/debts", s.authed(s.handleCreateDebt))
	mux.Handle("GET /api/debts/{id}", s.authed(s.handleGetDebt))
	mux.Handle("POST /api/debts/{id}/payments", s.authed(s.handlePayDebt))

	mux.Handle("GET /api/dashboard", s.authed(s.handleDashboard))
	mux.Handle("GET /api/report", s.authed(s.handleReport))
	mux.Handle("GET /api/report/pdf", s.authed(s.handleReportPDF))

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, ratelimit.WritesOnly)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = applog.Middleware(deps.Logger.WithComponent(applog.ComponentHTTP), trace.RequestID)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		m := s.tracer.GetMetrics()
		slog.InfoContext(ctx, "HTTP server shutting down",
			"requests", m.TotalRequests,
			"server_errors", m.ServerErrors,
			"rate_limited", s.limiter.Rejected())
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
