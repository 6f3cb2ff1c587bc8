package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DemocracyDevelopers/irvcheck/internal/api/handlers"
	mw "github.com/DemocracyDevelopers/irvcheck/internal/api/middleware"
	"github.com/DemocracyDevelopers/irvcheck/internal/buildconfig"
	"github.com/DemocracyDevelopers/irvcheck/internal/config"
	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/metrics"
	"github.com/DemocracyDevelopers/irvcheck/internal/service"
	"github.com/DemocracyDevelopers/irvcheck/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Retention *service.RetentionService
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	runStore := store.NewRunStore(db)

	verificationSvc := service.NewVerificationService(runStore, logger)
	verificationSvc.SetTimeout(config.VerifyTimeout())
	verificationSvc.SetMaxCandidates(config.MaxCandidates())
	verificationSvc.SetConcurrency(config.VerifyConcurrency())

	return &App{
		Router:    NewRouter(verificationSvc, db, config.APIKeys(), logger),
		Retention: service.NewRetentionService(runStore, config.RunRetentionDays(), logger),
	}
}

// NewRouter wires the HTTP routes around an already configured service.
func NewRouter(svc *service.VerificationService, db Pinger, apiKeys []string, logger *zap.Logger) *chi.Mux {
	verificationHandler := handlers.NewVerificationHandler(svc)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// No auth
	r.Get("/health", healthHandler(db))
	r.Get("/version", versionHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKeys))

		r.Route("/verifications", func(r chi.Router) {
			r.Post("/", verificationHandler.Create)
			r.Get("/{id}", verificationHandler.GetByID)
		})
		r.Post("/audits/verify", verificationHandler.VerifyAudit)
		r.Get("/contests/{contest}/verifications", verificationHandler.ListByContest)
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.RunStore = (*store.RunStore)(nil)
	_ domain.RunStore = (*store.InMemoryRunStore)(nil)
	_ Pinger          = (*pgxpool.Pool)(nil)
)
