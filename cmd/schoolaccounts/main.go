package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/cache"
	"schoolaccounts/internal/cli"
	"schoolaccounts/internal/config"
	apphttp "schoolaccounts/internal/http"
	"schoolaccounts/internal/log"
	"schoolaccounts/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid school timezone", log.FieldError, err)
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		logger.Error("Failed to initialize token verifier", log.FieldError, err)
		os.Exit(1)
	}

	res := cli.InitBackend(context.Background(), logger, cfg)

	var publisher services.EventPublisher
	if res.Publisher != nil {
		publisher = res.Publisher
	}

	reports := services.NewReportService(res.Store, services.ReportConfig{
		Location:  loc,
		CacheTTL:  cfg.ReportCacheTTL,
		CacheSize: cfg.ReportCacheSize,
		Timeout:   cfg.StoreTimeout,
	})
	svc := apphttp.Services{
		Transactions: services.NewTransactionService(res.Store, publisher, reports),
		Categories:   services.NewCategoryService(res.Store, reports),
		Students:     services.NewStudentService(res.Store, reports),
		Balances:     services.NewBalanceService(res.Store, reports),
		Reports:      reports,
	}

	cacheManager := cache.NewManager()
	cacheManager.Register(reports.Cache())
	cacheManager.StartCleanup(10 * time.Minute)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Logger:             logger,
		Verifier:           verifier,
		Store:              res.Store,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, svc)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting school accounts server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", publisher != nil,
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
