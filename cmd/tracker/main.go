package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/ShivanshDengla/Tracker/internal/app/service/marketdata"
	"github.com/ShivanshDengla/Tracker/internal/app/service/portfolio"
	"github.com/ShivanshDengla/Tracker/internal/config"
	"github.com/ShivanshDengla/Tracker/internal/infrastructure/alchemy"
	"github.com/ShivanshDengla/Tracker/internal/infrastructure/network"
	"github.com/ShivanshDengla/Tracker/internal/infrastructure/pricefeed"
	"github.com/ShivanshDengla/Tracker/internal/infrastructure/restapi"
	"github.com/ShivanshDengla/Tracker/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync()

	// Route slog-based libraries through the same zap core.
	slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core(), &zapslog.HandlerOptions{})))

	if !cfg.HasAPIKey() {
		logger.Warn("ALCHEMY_API_KEY is not set; portfolio requests will fail with a configuration error")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder := metrics.New(registry)

	networks := network.Resolve(cfg.Networks, logger)
	logger.Info("Networks resolved", zap.Int("count", len(networks)))

	overrides := map[string]string{}
	if cfg.TokenOverridesFile != "" {
		overrides, err = config.LoadTokenOverrides(cfg.TokenOverridesFile)
		if err != nil {
			logger.Fatal("Failed to load token overrides", zap.String("path", cfg.TokenOverridesFile), zap.Error(err))
		}
		logger.Info("Token overrides loaded", zap.Int("count", len(overrides)))
	}

	chainClient := alchemy.NewClient(alchemy.Options{
		APIKey:       cfg.APIKey,
		RPCBaseURL:   cfg.AlchemyBaseURL,
		PriceBaseURL: cfg.PriceAPIBaseURL,
		Timeout:      cfg.RequestTimeout,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
	}, recorder, logger)

	feed := pricefeed.NewClient(cfg.PriceFeedBaseURL, cfg.RequestTimeout, recorder, logger)

	gateway := marketdata.NewGateway(
		chainClient,
		feed,
		marketdata.NewCaches(cfg.BalanceTTL, cfg.MetadataTTL, cfg.PriceTTL),
		marketdata.Options{Timeout: cfg.RequestTimeout, MetadataBatchSize: cfg.MetadataBatchSize},
		recorder,
		logger,
	)

	portfolioSvc := portfolio.NewService(gateway, networks, overrides, portfolio.Options{
		MaxTokensPerChain: cfg.MaxTokensPerChain,
		TopPricedPerChain: cfg.TopPricedPerChain,
	}, cfg.HasAPIKey(), recorder, logger)

	handler := restapi.NewPortfolioHandler(portfolioSvc, logger)
	router := restapi.NewRouter(handler, registry, logger)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
