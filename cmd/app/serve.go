package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"consultpay/internal/booking"
	"consultpay/internal/config"
	"consultpay/internal/db"
	"consultpay/internal/logger"
	"consultpay/internal/payment"
	"consultpay/internal/server"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the email worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	return cmd
}

func runServe(skipMigrations bool) error {
	logger.Info("Starting ConsultPay", "version", Version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	logger.Info("Database and Redis connected")

	if !skipMigrations {
		if err := db.RunMigrations(a.db, cfg.MigrationsPath); err != nil {
			return err
		}
		logger.Info("Migrations completed")
	}
	if cfg.GatewayWebhookSecret == "" {
		logger.Warn("GATEWAY_WEBHOOK_SECRET is empty, every webhook will be rejected")
	}

	go a.email.Start(ctx)

	srv := server.New(cfg, server.Deps{
		Engine:    a.engine,
		Analytics: booking.NewAnalyticsRepository(a.db),
		Events:    payment.NewEventLog(a.redis),
		Checks: map[string]server.Check{
			"postgres": a.db.PingContext,
			"redis": func(ctx context.Context) error {
				return a.redis.Ping(ctx).Err()
			},
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("Server error", "error", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", "error", err)
	}
	cancel()

	logger.Info("Server stopped")
	return nil
}
