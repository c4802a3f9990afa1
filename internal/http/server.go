// Package http exposes the ledger over a JSON API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
)

// Options tune the server's caching and rate limiting.
type Options struct {
	CacheSize         int
	CacheTTL          time.Duration
	RequestsPerMinute int
}

func DefaultOptions() Options {
	return Options{
		CacheSize:         64,
		CacheTTL:          30 * time.Second,
		RequestsPerMinute: 120,
	}
}

type Server struct {
	http.Server

	ledger      *services.Ledger
	rateLimiter *rateLimiter
	now         func() time.Time

	// Report payloads are cached between mutations; any successful
	// mutation clears both caches.
	categoryReportCache *cache.LRUCache[categoryReportResponse]
	monthlyReportCache  *cache.LRUCache[core.MonthlySeries]
}

func NewServer(addr string, ledger *services.Ledger, opts Options) *Server {
	if opts.CacheSize <= 0 || opts.CacheTTL <= 0 {
		def := DefaultOptions()
		if opts.CacheSize <= 0 {
			opts.CacheSize = def.CacheSize
		}
		if opts.CacheTTL <= 0 {
			opts.CacheTTL = def.CacheTTL
		}
	}

	s := &Server{
		ledger:              ledger,
		rateLimiter:         newRateLimiter(opts.RequestsPerMinute),
		now:                 time.Now,
		categoryReportCache: cache.NewLRUCache[categoryReportResponse](opts.CacheSize, opts.CacheTTL),
		monthlyReportCache:  cache.NewLRUCache[core.MonthlySeries](opts.CacheSize, opts.CacheTTL),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/balance", s.handleBalance)
	mux.HandleFunc("GET /api/periods", s.handlePeriods)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleAddTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("GET /api/reports/categories", s.handleCategoryReport)
	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	s.Addr = addr
	s.Handler = requestIDMiddleware(loggingMiddleware(s.rateLimiter.middleware(mux)))
	return s
}

// Caches returns the report caches for registration with a cache manager.
func (s *Server) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.categoryReportCache, s.monthlyReportCache}
}

// CleanupRateLimiter drops stale rate-limit windows. Meant to be called
// periodically alongside cache cleanup.
func (s *Server) CleanupRateLimiter() {
	s.rateLimiter.cleanStale()
}

func (s *Server) invalidateReports() {
	s.categoryReportCache.Clear()
	s.monthlyReportCache.Clear()
}

// requestIDMiddleware tags each request with an id, echoed in the response
// header for correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = generateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		switch {
		case rec.status >= 500:
			level = slog.LevelError
		case rec.status >= 400:
			level = slog.LevelWarn
		}
		slog.Default().Log(r.Context(), level, "HTTP request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rec.status,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP(r))
	})
}
