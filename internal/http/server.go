// Package http serves the JSON API consumed by the web client. Route
// registration, middleware and response caching live here; one file per
// resource holds its handlers.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/record"
	"fintrack/internal/services"
)

// SheetsExporter pushes transactions to an external spreadsheet. Nil
// when export is not configured.
type SheetsExporter interface {
	Export(ctx context.Context, txs []core.Transaction) (int, error)
}

type Server struct {
	http.Server
	store       record.Store
	overview    *services.BudgetOverview
	exporter    SheetsExporter
	rateLimiter *rateLimiter
	httpLog     *applog.StructuredLogger

	// Derived views are cached per query; any write clears them.
	progressCache *cache.LRUCache[services.Overview]
	spendingCache *cache.LRUCache[spendingChart]
	trendCache    *cache.LRUCache[trendChart]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store record.Store, overview *services.BudgetOverview, exporter SheetsExporter) *Server {
	mux := http.NewServeMux()

	baseLog := applog.New(applog.DefaultConfig())

	// Every request flows through the logger middleware chain: the base
	// logger lands in the context, then gets annotated with a request ID
	// so handlers can pull a correlated logger via applog.FromContext.
	handler := applog.Middleware(baseLog)(
		applog.RequestIDMiddleware(func(*http.Request) string { return uuid.NewString() })(mux))

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: handler,
		},
		store:         store,
		overview:      overview,
		exporter:      exporter,
		rateLimiter:   newRateLimiter(),
		httpLog:       applog.NewStructuredLogger(baseLog.WithComponent(applog.ComponentHTTP)),
		progressCache: newCacheOf[services.Overview](),
		spendingCache: newCacheOf[spendingChart](),
		trendCache:    newCacheOf[trendChart](),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.progressCache)
	s.cacheManager.Register(s.spendingCache)
	s.cacheManager.Register(s.trendCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/transactions", s.withAPIMiddleware(s.handleTransactions))
	mux.HandleFunc("/api/transactions/recurring", s.withAPIMiddleware(s.handleRecurringTransactions))
	mux.HandleFunc("/api/transactions/", s.withAPIMiddleware(s.handleTransactionByID))

	mux.HandleFunc("/api/budgets", s.withAPIMiddleware(s.handleBudgets))
	mux.HandleFunc("/api/budgets/progress", s.withAPIMiddleware(s.handleBudgetProgress))
	mux.HandleFunc("/api/budgets/", s.withAPIMiddleware(s.handleBudgetByID))

	mux.HandleFunc("/api/categories", s.withAPIMiddleware(s.handleCategories))

	mux.HandleFunc("/api/goals", s.withAPIMiddleware(s.handleGoals))
	mux.HandleFunc("/api/goals/", s.withAPIMiddleware(s.handleGoalByID))

	mux.HandleFunc("/api/accounts", s.withAPIMiddleware(s.handleAccounts))
	mux.HandleFunc("/api/accounts/", s.withAPIMiddleware(s.handleAccountByID))

	mux.HandleFunc("/api/charts/spending", s.withAPIMiddleware(s.handleSpendingChart))
	mux.HandleFunc("/api/charts/trend", s.withAPIMiddleware(s.handleTrendChart))

	mux.HandleFunc("/api/notifications", s.withAPIMiddleware(s.handleNotifications))
	mux.HandleFunc("/api/notifications/", s.withAPIMiddleware(s.handleNotificationByID))

	mux.HandleFunc("/api/export", s.withAPIMiddleware(s.handleExportCSV))
	mux.HandleFunc("/api/export/sheets", s.withAPIMiddleware(s.handleExportSheets))

	return s
}

func newCacheOf[T any]() *cache.LRUCache[T] {
	return cache.NewLRUCache[T](100, 5*time.Minute)
}

// invalidateDerived clears every cached derived view. Called after any
// write that changes what the views are computed from.
func (s *Server) invalidateDerived() {
	s.progressCache.Clear()
	s.spendingCache.Clear()
	s.trendCache.Clear()
}

// withAPIMiddleware adds security headers, rate limiting and request
// logging to API handlers.
func (s *Server) withAPIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := r.Context()
		s.httpLog.LogHTTPStart(ctx, r, clientIP)

		// Rate limit writes only; list traffic from the SPA is bursty.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
