package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"consultpay/internal/availability"
	"consultpay/internal/booking"
	"consultpay/internal/config"
	"consultpay/internal/consultant"
	"consultpay/internal/db"
	"consultpay/internal/email"
	"consultpay/internal/logger"
	"consultpay/internal/payment"
	"consultpay/internal/settlement"
	"consultpay/internal/wallet"
)

type app struct {
	cfg    *config.Config
	db     *sqlx.DB
	redis  *redis.Client
	email  *email.Service
	engine *settlement.Engine
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return database, nil
}

// buildApp connects every backing service and assembles the settlement
// engine. The caller owns Close.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	database, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		database.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	mailer := email.New(rdb, email.Options{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	})

	consultants := consultant.NewRepository(database)
	engine := settlement.NewEngine(settlement.Deps{
		DB:           database,
		Tx:           db.NewTransactor(database),
		Bookings:     booking.NewRepository(),
		Wallets:      wallet.NewRepository(),
		Consultants:  consultants,
		Availability: availability.NewRepository(database),
		Gateway:      payment.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey),
		Notifier:     settlement.NewEmailNotifier(mailer, consultants),
	}, settlement.Options{
		DefaultCurrency:    cfg.DefaultCurrency,
		CheckoutSuccessURL: cfg.CheckoutSuccessURL,
		CheckoutCancelURL:  cfg.CheckoutCancelURL,
	})

	return &app{cfg: cfg, db: database, redis: rdb, email: mailer, engine: engine}, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		logger.Warn("Failed to close redis", "error", err)
	}
	if err := a.db.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}
