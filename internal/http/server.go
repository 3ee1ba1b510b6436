// Package http exposes the JSON API: loans and payments, transactions,
// recurring schedules, budgets, accounts and reports. Report responses are
// memoized in LRU caches keyed by owner and period and invalidated on
// writes.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"finbook/internal/cache"
	"finbook/internal/core"
	"finbook/internal/ledger"
	"finbook/internal/log"
	"finbook/internal/scope"
	"finbook/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Store covers the persistence the handlers use directly, next to the
// ledger and services.
type Store interface {
	UpsertBudget(ctx context.Context, b core.Budget) error
	ListBudgets(ctx context.Context, owners []uuid.UUID, year, month int) ([]core.Budget, error)
	InsertAccount(ctx context.Context, a core.Account) error
	ListAccounts(ctx context.Context, owners []uuid.UUID) ([]core.Account, error)
	CreateHousehold(ctx context.Context, id uuid.UUID, name string) error
	AddHouseholdMember(ctx context.Context, householdID, userID uuid.UUID) error
}

// Deps bundles the collaborators the server needs.
type Deps struct {
	Ledger       *ledger.Ledger
	Transactions *services.TransactionService
	Schedules    *services.ScheduleService
	Store        Store
	Resolver     scope.Resolver

	CacheSize int
	CacheTTL  time.Duration
}

type Server struct {
	http.Server

	ledger       *ledger.Ledger
	transactions *services.TransactionService
	schedules    *services.ScheduleService
	store        Store
	resolver     scope.Resolver
	rateLimiter  *rateLimiter
	logger       *log.Logger

	monthlyCache   *cache.LRUCache[monthlyReportResponse]
	categoryCache  *cache.LRUCache[[]categoryTotalResponse]
	dashboardCache *cache.LRUCache[dashboardResponse]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.CacheSize <= 0 {
		deps.CacheSize = 200
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}
	if deps.Resolver == nil {
		deps.Resolver = scope.Single{}
	}

	router := mux.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: router,
		},
		ledger:       deps.Ledger,
		transactions: deps.Transactions,
		schedules:    deps.Schedules,
		store:        deps.Store,
		resolver:     deps.Resolver,
		rateLimiter:  newRateLimiter(),
		logger:       log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP),

		monthlyCache:   cache.NewLRUCache[monthlyReportResponse](deps.CacheSize, deps.CacheTTL),
		categoryCache:  cache.NewLRUCache[[]categoryTotalResponse](deps.CacheSize, deps.CacheTTL),
		dashboardCache: cache.NewLRUCache[dashboardResponse](deps.CacheSize, deps.CacheTTL),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.monthlyCache)
	s.cacheManager.Register(s.categoryCache)
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	router.HandleFunc("/healthz", handleHealth).Methods("GET")
	router.HandleFunc("/readyz", handleReady).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.withRequestLogging)

	api.HandleFunc("/loans", s.handleCreateLoan).Methods("POST")
	api.HandleFunc("/loans", s.handleListLoans).Methods("GET")
	api.HandleFunc("/loans/{id}", s.handleGetLoan).Methods("GET")
	api.HandleFunc("/loans/{id}", s.handleUpdateLoan).Methods("PATCH")
	api.HandleFunc("/loans/{id}", s.handleDeactivateLoan).Methods("DELETE")
	api.HandleFunc("/loans/{id}/payments", s.handleRecordPayment).Methods("POST")
	api.HandleFunc("/loans/{id}/payments", s.handleListPayments).Methods("GET")
	api.HandleFunc("/loans/{id}/plan", s.handleAmortizationPlan).Methods("GET")

	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods("POST")
	api.HandleFunc("/transactions", s.handleListTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods("DELETE")

	api.HandleFunc("/schedules", s.handleCreateSchedule).Methods("POST")
	api.HandleFunc("/schedules", s.handleListSchedules).Methods("GET")
	api.HandleFunc("/schedules/{id}", s.handleGetSchedule).Methods("GET")
	api.HandleFunc("/schedules/{id}", s.handleDeactivateSchedule).Methods("DELETE")

	api.HandleFunc("/reports/monthly", s.handleMonthlyReport).Methods("GET")
	api.HandleFunc("/reports/categories", s.handleCategoryReport).Methods("GET")
	api.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")

	api.HandleFunc("/budgets", s.handleUpsertBudget).Methods("PUT")
	api.HandleFunc("/budgets", s.handleListBudgets).Methods("GET")
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods("POST")
	api.HandleFunc("/accounts", s.handleListAccounts).Methods("GET")
	api.HandleFunc("/households", s.handleCreateHousehold).Methods("POST")
	api.HandleFunc("/households/{id}/members", s.handleAddHouseholdMember).Methods("POST")

	return s
}

// Shutdown stops the cache cleanup and the rate limiter before closing the
// HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestLogging tags each request with an id, logs start and
// completion, and rate-limits writes per client.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
