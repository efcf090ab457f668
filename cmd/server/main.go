package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmcontext "github.com/avito-tech/go-transaction-manager/trm/v2/context"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/ovozbot/finance-service/internal/application/services"
	"github.com/ovozbot/finance-service/internal/auth"
	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/infrastructure/db/postgres"
	"github.com/ovozbot/finance-service/internal/infrastructure/notify"
	rest "github.com/ovozbot/finance-service/internal/interface/api/rest/chi"
	"github.com/ovozbot/finance-service/pkg/logger"
)

// Version indicates the current version of the application.
var Version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Server run context.
	serverCtx, serverStopCtx := context.WithCancel(context.Background())
	defer serverStopCtx()

	// Load application configurations.
	cfg := config.MustLoad()

	// Create root logger tagged with server version.
	logger := logger.New(logger.Options{
		Path:       cfg.Logger.Path,
		Level:      cfg.Logger.Level,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	}).With(serverCtx, "version", Version)

	db, err := postgres.Connect(cfg, logger)
	if err != nil {
		return err
	}

	// Close connection.
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(err)
		}
		_ = logger.Sync()
	}()

	// Create default transaction manager for database/sql package.
	trManager := manager.Must(
		trmsql.NewDefaultFactory(db),
		manager.WithCtxManager(trmcontext.DefaultManager),
	)

	// Init repositories.
	accountRepo, err := postgres.NewAccountRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init account repository: %w", err)
	}

	withdrawalRepo, err := postgres.NewWithdrawalRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init withdrawal repository: %w", err)
	}

	referralRepo, err := postgres.NewReferralRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init referral repository: %w", err)
	}

	auditRepo, err := postgres.NewAuditRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init audit repository: %w", err)
	}

	settingsRepo, err := postgres.NewSettingsRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init settings repository: %w", err)
	}

	exportRepo, err := postgres.NewExportRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init export repository: %w", err)
	}

	authRepo, err := auth.NewRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init auth repository: %w", err)
	}

	// Init auth service.
	authService, err := auth.NewService(authRepo, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to init auth service: %w", err)
	}

	// Init Telegram notifier.
	notifier, err := notify.NewTelegramNotifier(settingsRepo, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to init notifier: %w", err)
	}

	// Init application services.
	balanceService, err := services.NewBalanceService(accountRepo, auditRepo, trManager, logger)
	if err != nil {
		return fmt.Errorf("failed to init balance service: %w", err)
	}

	withdrawalService, err := services.NewWithdrawalService(
		withdrawalRepo, auditRepo, balanceService, notifier, trManager, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to init withdrawal service: %w", err)
	}

	referralService, err := services.NewReferralService(
		referralRepo, settingsRepo, balanceService, trManager, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to init referral service: %w", err)
	}

	exportService, err := services.NewExportService(
		exportRepo, withdrawalRepo, accountRepo, referralRepo, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to init export service: %w", err)
	}

	// Start the export worker. Stop drains in-flight jobs.
	exportService.Run()
	defer exportService.Stop()

	// Create root router.
	router := rest.InitChi(logger)

	router.Post("/api/v1/auth/login", authService.Login)

	// Internal bot-facing endpoints.
	botOptions := rest.ChiServerOptions{
		BaseURL:    "/api/v1",
		BaseRouter: router,
	}

	// Privileged operator endpoints.
	adminOptions := rest.ChiServerOptions{
		BaseURL:     "/api/v1",
		BaseRouter:  router,
		Middlewares: []rest.MiddlewareFunc{authService.Middleware},
	}

	rest.NewBalanceController(balanceService, withdrawalService, adminOptions)
	rest.NewWithdrawalController(withdrawalService, adminOptions)
	rest.NewReferralController(referralService, botOptions)
	rest.NewExportController(exportService, adminOptions)

	// Build HTTP server.
	hs := &http.Server{
		Addr:              cfg.HTTPServer.Address,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:       cfg.HTTPServer.IdleTimeout,
		Handler:           router,
	}

	// Graceful shutdown.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT,
			syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)

		signal := <-sig

		logger.With(serverCtx, "signal", signal.String()).
			Infof("Shutting down server with %s timeout",
				cfg.HTTPServer.ShutdownTimeout)

		if err = hs.Shutdown(serverCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %s", err)
		}
		serverStopCtx()
	}()

	// Start the HTTP server with graceful shutdown.
	logger.Infof("Server %v is running at %v", Version, cfg.HTTPServer.Address)
	if err = hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("run server failed: %w", err)
	}

	// Wait for server context to be stopped or force exit if timeout exceeded.
	select {
	case <-serverCtx.Done():
	case <-time.After(cfg.HTTPServer.ShutdownTimeout):
		return errors.New("graceful shutdown timed out.. forcing exit")
	}

	return nil
}
