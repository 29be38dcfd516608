// Package http serves the local JSON API over the renewal, billing and
// sync services.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"renewals/internal/cache"
	"renewals/internal/core"
	"renewals/internal/log"
	"renewals/internal/middleware/ratelimit"
	"renewals/internal/middleware/security"
	"renewals/internal/services"
)

const (
	viewCacheSize = 64
	viewCacheTTL  = 5 * time.Minute
)

// Deps are the services the API exposes.
type Deps struct {
	Renewals *services.RenewalService
	Billing  *services.BillingService
	Sync     *services.SyncService
	Location *time.Location
	Logger   *log.Logger
	Now      func() time.Time
	// SyncPerMinute caps POST /api/sync per client, ratelimit default when 0.
	SyncPerMinute int
}

type Server struct {
	http.Server
	renewals *services.RenewalService
	billing  *services.BillingService
	sync     *services.SyncService
	loc      *time.Location
	logger   *log.Logger
	now      func() time.Time

	summaryCache *cache.LRUCache[core.RecordSummary]
	monthsCache  *cache.LRUCache[[]core.MonthSection]
	caches       *cache.Manager
	syncLimiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = log.Default(log.ComponentHTTP)
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	logger := d.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		renewals:     d.Renewals,
		billing:      d.Billing,
		sync:         d.Sync,
		loc:          d.Location,
		logger:       logger,
		now:          d.Now,
		summaryCache: cache.NewLRUCache[core.RecordSummary](viewCacheSize, viewCacheTTL),
		monthsCache:  cache.NewLRUCache[[]core.MonthSection](viewCacheSize, viewCacheTTL),
		caches:       cache.NewManager(logger),
		syncLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.SyncPerMinute, Now: d.Now}),
	}
	s.caches.Register(s.summaryCache)
	s.caches.Register(s.monthsCache)
	s.caches.StartCleanup(viewCacheTTL * 2)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/records", s.handleListRecords)
	mux.HandleFunc("POST /api/records", s.handleCreateRecord)
	mux.HandleFunc("DELETE /api/records", s.handleClearRecords)
	mux.HandleFunc("GET /api/records/stats", s.handleRecordStats)
	mux.HandleFunc("GET /api/records/months", s.handleRecordMonths)
	mux.HandleFunc("GET /api/records/{id}", s.handleGetRecord)
	mux.HandleFunc("PUT /api/records/{id}", s.handleEditRecord)
	mux.HandleFunc("PATCH /api/records/{id}", s.handleSetField)
	mux.HandleFunc("DELETE /api/records/{id}", s.handleDeleteRecord)

	mux.HandleFunc("GET /api/export", s.handleExport)

	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("POST /api/bills", s.handleFinalizeBill)
	mux.HandleFunc("GET /api/bills/new", s.handleDraftBill)
	mux.HandleFunc("GET /api/bills/report", s.handleBillReport)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)

	limitSync := s.syncLimiter.Middleware(ratelimit.ClientIP, s.rejectSync)
	mux.Handle("POST /api/sync", limitSync(http.HandlerFunc(s.handleSync)))
	mux.HandleFunc("GET /api/sync/settings", s.handleGetSyncSettings)
	mux.HandleFunc("PUT /api/sync/settings", s.handleConnectSheets)
	mux.HandleFunc("DELETE /api/sync/settings", s.handleDisconnectSheets)

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(h)
	h = log.AccessLog(h)
	h = log.RequestIDMiddleware(requestID)(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.syncLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"revision": s.renewals.Revision(),
	})
}
