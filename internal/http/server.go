// Package http exposes the ledger as a JSON API. All mutating routes go
// through the ledger's single-writer operations; the server itself holds no
// domain state beyond response caches.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"homeledger/internal/cache"
	"homeledger/internal/ledger"
	applog "homeledger/internal/log"
)

type Server struct {
	http.Server
	ledger      *ledger.Ledger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logs        *applog.StructuredLogger
	now         func() time.Time

	// Rendered spreadsheet reports, keyed by ledger revision and date
	// range. Any mutation changes the revision, so stale entries are
	// never served; the TTL just bounds memory.
	reportCache *cache.LRUCache[[]byte]
	cacheMgr    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures all routes and returns a ready-to-run server.
func NewServer(addr string, l *ledger.Ledger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      l,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		logs:        applog.NewStructuredLogger(applog.New(applog.DefaultConfig())),
		now:         time.Now,
		reportCache: cache.NewLRUCache[[]byte](32, 10*time.Minute),
		cacheMgr:    cache.NewManager(),
	}

	s.cacheMgr.Register(s.reportCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/state", s.wrap(s.handleState))

	mux.HandleFunc("POST /api/accounts", s.wrap(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.wrap(s.handleEditAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.wrap(s.handleDeleteAccount))
	mux.HandleFunc("POST /api/accounts/{id}/income", s.wrap(s.handleAddIncome))

	mux.HandleFunc("POST /api/loans", s.wrap(s.handleCreateLoan))
	mux.HandleFunc("PUT /api/loans/{id}", s.wrap(s.handleEditLoan))
	mux.HandleFunc("DELETE /api/loans/{id}", s.wrap(s.handleDeleteLoan))

	mux.HandleFunc("POST /api/transfers", s.wrap(s.handleTransfer))
	mux.HandleFunc("POST /api/expenses", s.wrap(s.handleAddExpense))
	mux.HandleFunc("GET /api/transactions", s.wrap(s.handleTransactions))

	mux.HandleFunc("GET /api/report", s.wrap(s.handleReport))
	mux.HandleFunc("GET /api/backup", s.wrap(s.handleBackup))
	mux.HandleFunc("POST /api/restore", s.wrap(s.handleRestore))

	mux.HandleFunc("POST /api/unlock", s.wrap(s.handleUnlock))
	mux.HandleFunc("PUT /api/pin", s.wrap(s.handleSetPIN))
	mux.HandleFunc("GET /api/currencies", s.wrap(s.handleListCurrencies))
	mux.HandleFunc("PUT /api/currency", s.wrap(s.handleSetCurrency))
	mux.HandleFunc("PUT /api/credential", s.wrap(s.handleSetCredential))
	mux.HandleFunc("DELETE /api/credential", s.wrap(s.handleDeleteCredential))

	return s
}

// Shutdown stops the HTTP listener and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.stop()
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
