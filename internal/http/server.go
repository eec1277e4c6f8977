package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// Transactions is the transaction API the handlers work against.
type Transactions interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, from, to core.Date) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id, userID int64) error
	StopSeries(ctx context.Context, seriesID string, userID int64) error
	Series(ctx context.Context, userID int64, today core.Date) ([]services.SeriesStatus, error)
	Summary(ctx context.Context, userID int64, from, to core.Date) (core.Summary, error)
	DataVersion(ctx context.Context, userID int64) (string, error)
}

// DueProcessor materializes recurring occurrences that are due.
type DueProcessor interface {
	ProcessDue(ctx context.Context, today core.Date, userID int64) (services.RunReport, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server to its dependencies.
type Options struct {
	Transactions Transactions
	Processor    DueProcessor
	Readiness    Pinger
	Logger       *applog.Logger

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// RateLimit caps write requests per client IP per minute. Defaults to 60.
	RateLimit int
}

type Server struct {
	http.Server
	transactions Transactions
	processor    DueProcessor
	readiness    Pinger
	logger       *applog.Logger
	clock        func() time.Time

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// summaries are keyed by "user:from:to:version"
	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 60
	}

	s := &Server{
		transactions: opts.Transactions,
		processor:    opts.Processor,
		readiness:    opts.Readiness,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		clock:        clock,
		rateLimiter:  newRateLimiter(limit, time.Minute),
		metrics:      &securityMetrics{},
		summaryCache: cache.NewLRUCache[core.Summary](100, 5*time.Minute), // Max 100 entries, 5min TTL
	}

	s.cacheManager = cache.NewManager(func(removed int) {
		s.logger.Debug("Cache cleanup completed", "summary_entries_removed", removed)
	})
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)
	go s.rateLimiter.startCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring/{series}/stop", s.handleStopSeries)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(logger)(s.withSecurity(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// today is the calendar day used for projections and periods.
func (s *Server) today() core.Date {
	return core.DateOf(s.clock())
}

func summaryKey(userID int64, from, to core.Date) string {
	return strconv.FormatInt(userID, 10) + ":" + from.String() + ":" + to.String()
}

// invalidateSummaries drops cached summaries that may include the user's
// transactions. Unscoped summaries cover every user, and an unscoped write
// may touch any of them.
func (s *Server) invalidateSummaries(userID int64) {
	if userID == 0 {
		s.summaryCache.DeletePrefix("")
		return
	}
	s.summaryCache.DeletePrefix(strconv.FormatInt(userID, 10) + ":")
	s.summaryCache.DeletePrefix("0:")
}

// summary serves from the cache only while the store's data version is
// unchanged, so writes made by other processes are picked up.
func (s *Server) summary(ctx context.Context, userID int64, from, to core.Date) (core.Summary, error) {
	version, err := s.transactions.DataVersion(ctx, userID)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Data version unavailable, bypassing summary cache", applog.FieldError, err)
		return s.transactions.Summary(ctx, userID, from, to)
	}

	key := summaryKey(userID, from, to) + ":" + version
	if sum, ok := s.summaryCache.Get(key); ok {
		applog.FromContext(ctx).DebugContext(ctx, "Summary cache hit", "key", key)
		return sum, nil
	}

	sum, err := s.transactions.Summary(ctx, userID, from, to)
	if err != nil {
		return core.Summary{}, err
	}
	s.summaryCache.Set(key, sum)
	return sum, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.readiness.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
