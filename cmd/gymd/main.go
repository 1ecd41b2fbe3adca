package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/config"
	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/handler"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/cache"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/memory"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/resilience"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/supabase"
	"github.com/Mai1203/project-gimnasio-app/internal/port"
	"github.com/Mai1203/project-gimnasio-app/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()
	loc := cfg.Location()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("auth_disabled", cfg.AuthDisabled),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "gym-cashbox")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache (plan catalog only) ---
	planCache := cache.New[[]domain.Plan](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Store ---
	var ledger port.LedgerStore
	var members port.MemberDirectory

	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as ledger store",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		supabaseClient := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			metrics,
			logger,
			loc,
		)
		ledger = supabaseClient
		members = supabaseClient
	} else {
		logger.Warn("Supabase not configured, using in-memory store (data is not persisted)")
		memStore := memory.NewStore(loc)
		ledger = memStore
		members = memStore
	}

	// --- Services ---
	cashboxSvc := service.NewCashboxService(ledger, members, metrics, logger, loc, nil)
	membershipSvc := service.NewMembershipService(ledger, members, planCache, metrics, logger, loc, nil)
	dashboardSvc := service.NewDashboardService(cashboxSvc, membershipSvc, logger)

	// --- Router ---
	router := handler.NewRouter(cashboxSvc, membershipSvc, dashboardSvc, ledger, metrics, cfg, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
