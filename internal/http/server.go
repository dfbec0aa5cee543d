// Package http exposes the JSON API over the family registry and the
// orphan balance ledger.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"aytam/internal/amqp"
	"aytam/internal/cache"
	"aytam/internal/log"
	"aytam/internal/report"
	"aytam/internal/services"
)

// ExportPublisher enqueues report export requests for the worker.
type ExportPublisher interface {
	PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error
}

type Server struct {
	http.Server
	composer    *services.Composer
	txManager   *services.TransactionManager
	directory   *services.Directory
	reporting   *services.Reporting
	reports     *report.Builder
	publisher   ExportPublisher
	rateLimiter *rateLimiter
	baseLog     *log.Logger
	httpLog     *log.StructuredLogger

	// Read-side caches for the reporting endpoints. Cache keys carry a
	// generation counter; mutations bump it so stale entries become
	// unreachable and age out through the LRU and TTL.
	summaryCache *cache.LRUCache[services.SummaryCounts]
	monthsCache  *cache.LRUCache[[]services.MonthCount]
	cacheManager *cache.Manager
	cacheGen     atomic.Int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// publisher may be nil when AMQP is not configured; the export endpoint then
// reports 503.
func NewServer(addr string, composer *services.Composer, txManager *services.TransactionManager, directory *services.Directory, reporting *services.Reporting, reports *report.Builder, publisher ExportPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		composer:     composer,
		txManager:    txManager,
		directory:    directory,
		reporting:    reporting,
		reports:      reports,
		publisher:    publisher,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[services.SummaryCounts](10, 5*time.Minute),
		monthsCache:  cache.NewLRUCache[[]services.MonthCount](50, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.baseLog = log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.Default().Handler(),
	})
	s.httpLog = log.NewStructuredLogger(s.baseLog)

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.monthsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Family bundles. GET reads the same detail view as /deceaseds/{id}.
	mux.HandleFunc("POST /families", s.withMiddleware(s.handleCreateFamily))
	mux.HandleFunc("GET /families/{id}", s.withMiddleware(s.handleDeceasedDetail))
	mux.HandleFunc("PUT /families/{id}", s.withMiddleware(s.handleUpdateFamily))
	mux.HandleFunc("DELETE /families/{id}", s.withMiddleware(s.handleDeleteFamily))

	// Deceased directory
	mux.HandleFunc("GET /deceaseds", s.withMiddleware(s.handleListDeceased))
	mux.HandleFunc("GET /deceaseds/{id}", s.withMiddleware(s.handleDeceasedDetail))

	// Guardians
	mux.HandleFunc("GET /guardians", s.withMiddleware(s.handleListGuardians))
	mux.HandleFunc("GET /guardians/{id}", s.withMiddleware(s.handleGuardianDetail))
	mux.HandleFunc("PUT /guardians/{id}", s.withMiddleware(s.handleUpdateGuardian))
	mux.HandleFunc("DELETE /guardians/{id}", s.withMiddleware(s.handleDeleteGuardian))

	// Orphans and their ledgers
	mux.HandleFunc("GET /orphans", s.withMiddleware(s.handleListOrphans))
	mux.HandleFunc("GET /orphans/{id}", s.withMiddleware(s.handleOrphanDetail))
	mux.HandleFunc("PUT /orphans/{id}", s.withMiddleware(s.handleReconcileOrphan))
	mux.HandleFunc("GET /orphans/{id}/balances", s.withMiddleware(s.handleOrphanBalances))
	mux.HandleFunc("GET /orphans/{id}/transactions", s.withMiddleware(s.handleOrphanTransactions))
	mux.HandleFunc("POST /orphans/{id}/transactions", s.withMiddleware(s.handleCreateTransaction))

	// Single transactions
	mux.HandleFunc("PUT /transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	// Lookups
	mux.HandleFunc("GET /currencies", s.withMiddleware(s.handleListCurrencies))
	mux.HandleFunc("GET /search", s.withMiddleware(s.handleSearch))

	// Reports
	mux.HandleFunc("GET /reports/summary", s.withMiddleware(s.handleReportSummary))
	mux.HandleFunc("GET /reports/orphans-by-month", s.withMiddleware(s.handleOrphansByMonth))
	mux.HandleFunc("GET /reports/minors-by-month", s.withMiddleware(s.handleMinorsByMonth))
	mux.HandleFunc("GET /reports/age-distribution", s.withMiddleware(s.handleAgeDistribution))
	mux.HandleFunc("GET /reports/adults", s.withMiddleware(s.handleAdultOrphans))
	mux.HandleFunc("GET /reports/{type}/{id}", s.withMiddleware(s.handleReportContext))

	// Async exports
	mux.HandleFunc("POST /exports", s.withMiddleware(s.handleCreateExport))

	return s
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

// invalidateReportCaches makes all cached reporting responses stale.
func (s *Server) invalidateReportCaches() {
	s.cacheGen.Add(1)
}

// cacheKey prefixes a reporting cache key with the current generation.
func (s *Server) cacheKey(suffix string) string {
	return fmt.Sprintf("g%d:%s", s.cacheGen.Load(), suffix)
}

// withMiddleware adds security headers, rate limiting, and request logging.
// A request-scoped logger carrying the request id rides the context so
// handlers can pick it up with log.FromContext.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r)
		requestID := generateRequestID()

		reqLog := s.baseLog.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, log.LoggerContextKey, reqLog)
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, ip)

		// Rate limit mutations only
		if r.Method != http.MethodGet && !s.rateLimiter.allow(ip) {
			reqLog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
