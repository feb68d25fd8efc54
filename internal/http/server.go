// Package http exposes the report pipeline over a small JSON API: live
// summary views, the stored run history, and a trigger for an immediate run.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mintward/internal/cache"
	"mintward/internal/core"
	"mintward/internal/services"
	"mintward/internal/storage"
)

// Reporter computes reports on demand. Preview and CashFlow are side-effect
// free and back the GET endpoints; Run persists and publishes like a
// scheduled run.
type Reporter interface {
	Preview(ctx context.Context, cfg services.RunConfig) (*core.Report, error)
	CashFlow(ctx context.Context, year, month int) (core.CashFlowTable, error)
	Run(ctx context.Context, cfg services.RunConfig) (*core.Report, error)
}

// RunReader serves the stored run history. Nil when the server runs without
// a database; the history endpoints then answer 503.
type RunReader interface {
	LatestRun(ctx context.Context) (storage.ReportRun, error)
	ListRuns(ctx context.Context, limit int) ([]storage.ReportRun, error)
	TransactionsForRun(ctx context.Context, runID int64) ([]core.Transaction, error)
}

type Server struct {
	http.Server
	reporter    Reporter
	runs        RunReader
	runCfg      services.RunConfig
	rateLimiter *rateLimiter
	now         func() time.Time

	// Preview results are cached per (date, lookback) so repeated polling
	// does not reparse the feed and reload the template every time.
	reportCache *cache.LRUCache[*core.Report]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, reporter Reporter, runs RunReader, runCfg services.RunConfig) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		reporter:         reporter,
		runs:             runs,
		runCfg:           runCfg,
		rateLimiter:      newRateLimiter(),
		now:              time.Now,
		reportCache:      cache.NewLRUCache[*core.Report](50, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/summary/day", s.withRequestContext(s.handleDaySummary))
	mux.HandleFunc("/summary/cashflow", s.withRequestContext(s.handleCashFlow))
	mux.HandleFunc("/summary/text", s.withRequestContext(s.handleSummaryText))
	mux.HandleFunc("/runs", s.withRequestContext(s.handleListRuns))
	mux.HandleFunc("/runs/latest", s.withRequestContext(s.handleLatestRun))
	mux.HandleFunc("/runs/transactions", s.withRequestContext(s.handleRunTransactions))
	mux.HandleFunc("/report/run", s.withRequestContext(s.handleTriggerRun))

	return s
}

// startCacheCleanup runs periodic cleanup for the report cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.reportCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) cacheKey(today core.Date, lookback int) string {
	return fmt.Sprintf("%s/%d", today.Format("2006-01-02"), lookback)
}

// getReport returns the preview report for the given lookback, serving from
// cache when a fresh one exists for today.
func (s *Server) getReport(ctx context.Context, lookback int) (*core.Report, error) {
	key := s.cacheKey(core.DateOf(s.now()), lookback)

	if report, found := s.reportCache.Get(key); found {
		slog.DebugContext(ctx, "Report cache hit", "key", key)
		return report, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	report, err := s.reporter.Preview(cctx, services.RunConfig{LookbackDays: lookback, Subject: s.runCfg.Subject})
	if err != nil {
		return nil, fmt.Errorf("preview report (lookback=%d): %w", lookback, err)
	}

	s.reportCache.Set(key, report)
	slog.DebugContext(ctx, "Report cached", "key", key, "item_count", report.Daily.Count)
	return report, nil
}
