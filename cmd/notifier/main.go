// Package main is the notification worker. It consumes reservation events
// from RabbitMQ and sends the guest emails, recording every attempt in the
// email_queues table. Run it alongside the API when RABBITMQ_URL is set.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/room-reservation/internal/config"
	"github.com/pkordes/room-reservation/internal/mq"
	"github.com/pkordes/room-reservation/internal/notify"
	"github.com/pkordes/room-reservation/internal/repo"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	consumer, err := mq.NewConsumer(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.RabbitMQQueue, mq.RoutingKeys, logger)
	if err != nil {
		slog.Error("failed to connect to message broker", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	mailer := notify.NewMailer(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, logger)
	notifier := notify.NewNotifier(mailer, repo.NewEmailRepo(pool), logger, cfg.RetryBackoff)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("notifier consuming", "queue", cfg.RabbitMQQueue, "exchange", cfg.RabbitMQExchange)
		return consumer.Run(gctx, notifier)
	})

	if err := g.Wait(); err != nil {
		slog.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("notifier stopped")
}
