package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/config"
	"github.com/kailas-cloud/evidex/internal/db"
	dbRedis "github.com/kailas-cloud/evidex/internal/db/redis"
	logpkg "github.com/kailas-cloud/evidex/internal/logger"
	"github.com/kailas-cloud/evidex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/evidex/internal/repository/budget"
	cacherepo "github.com/kailas-cloud/evidex/internal/repository/cache"
	catalogrepo "github.com/kailas-cloud/evidex/internal/repository/catalog"
	chiTransport "github.com/kailas-cloud/evidex/internal/transport/chi"
	"github.com/kailas-cloud/evidex/internal/transport/eutils"
	geminiAI "github.com/kailas-cloud/evidex/internal/transport/gemini"
	openaiAI "github.com/kailas-cloud/evidex/internal/transport/openai"
	aisearchuc "github.com/kailas-cloud/evidex/internal/usecase/aisearch"
	cataloguc "github.com/kailas-cloud/evidex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/evidex/internal/usecase/health"
	researchuc "github.com/kailas-cloud/evidex/internal/usecase/research"
	"github.com/kailas-cloud/evidex/internal/version"
)

// healthProvider is an AI provider that can report its own availability.
type healthProvider interface {
	aisearchuc.Provider
	HealthCheck(ctx context.Context) error
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting evidex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache", cfg.Cache.Enabled()),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterAIMetrics()

	ctx := context.Background()

	// Catalogs are loaded once and fail the process on any error.
	catRepo, err := catalogrepo.New(cfg.Catalog.Dir)
	if err != nil {
		logger.Fatal("Failed to load catalogs", zap.String("dir", cfg.Catalog.Dir), zap.Error(err))
	}
	logger.Info("Catalogs loaded", zap.Strings("names", catRepo.Names()))

	catalogSvc := cataloguc.New(catRepo).
		WithLimits(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize).
		WithMetrics(metrics.CatalogSearchTotal, metrics.CatalogSearchDuration)

	// Optional KV store for response caching and budget persistence.
	var store db.Store
	if cfg.Cache.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer s.Close()

		if err := s.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store")
		store = s
	}

	// Research search over PubMed E-utilities.
	pubmedClient := eutils.New(&eutils.Config{
		BaseURL: cfg.PubMed.BaseURL,
		APIKey:  cfg.PubMed.APIKey,
		Tool:    cfg.PubMed.Tool,
		Email:   cfg.PubMed.Email,
		Timeout: time.Duration(cfg.PubMed.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	researchSvc := researchuc.New(pubmedClient).
		WithSpeller(catalogSvc.Vocabulary()).
		WithQualityFilter(cfg.PubMed.QualityFilter).
		WithFlightTimeout(2 * time.Duration(cfg.PubMed.TimeoutSec) * time.Second)
	if store != nil {
		researchSvc.WithCache(cacherepo.New(store, "research",
			time.Duration(cfg.Cache.ResearchTTLSec)*time.Second, metrics.ResponseCacheTotal, logger))
	}

	// AI search assistant
	provider, err := buildProvider(ctx, cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to create AI provider", zap.Error(err))
	}

	// buildProvider returns a nil interface (not a typed nil pointer) when AI is off.
	var budget *aisearchuc.BudgetTracker
	aiSvc := aisearchuc.New(nil)
	if provider != nil {
		aiSvc = aisearchuc.New(provider)

		budgetCfg := cfg.AI.Budget
		if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
			action := aisearchuc.BudgetActionWarn
			if budgetCfg.Action == "reject" {
				action = aisearchuc.BudgetActionReject
			}
			budget = aisearchuc.NewBudgetTracker(
				provider.Provider(), budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
			).WithGauge(metrics.AIBudgetTokensRemaining)
			if store != nil {
				// Loads the current counters from the store.
				budget.WithStore(ctx, budgetrepo.New(store, 0, 0))
			}
			aiSvc.WithBudget(budget)
		}
		if store != nil {
			aiSvc.WithCache(cacherepo.New(store, "ai",
				time.Duration(cfg.Cache.AITTLSec)*time.Second, metrics.ResponseCacheTotal, logger))
		}
		logger.Info("AI search enabled",
			zap.String("provider", provider.Provider()),
			zap.String("model", provider.Model()),
		)
	}

	// Health service: only configured dependencies are checked.
	healthSvc := healthuc.New().
		With("catalogs", healthuc.CheckerFunc(func(context.Context) error {
			if len(catRepo.Names()) == 0 {
				return errors.New("no catalogs loaded")
			}
			return nil
		}))
	if store != nil {
		healthSvc.With("cache", healthuc.CheckerFunc(store.Ping))
	}
	if provider != nil {
		healthSvc.With("ai", provider)
	}
	if cfg.PubMed.HealthCheck {
		healthSvc.With("pubmed", pubmedClient)
	}

	// Create chi server
	server := chiTransport.NewServer(catalogSvc, researchSvc, aiSvc, healthSvc)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if budget != nil {
		if err := budget.Close(shutdownCtx); err != nil {
			logger.Warn("Budget writes not flushed", zap.Error(err))
		}
	}

	logger.Info("Server stopped gracefully")
}

// buildProvider creates the configured chat provider, or nil when AI search is disabled.
func buildProvider(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (healthProvider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch cfg.Provider {
	case "openai":
		return openaiAI.NewAssistant(&openaiAI.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Provider:  cfg.Provider,
			Logger:    logger,
		}), nil
	case "gemini":
		a, err := geminiAI.NewAssistant(ctx, &geminiAI.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
