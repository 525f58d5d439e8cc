// Package main is the entry point for the Room Reservation API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/room-reservation/internal/auth"
	"github.com/pkordes/room-reservation/internal/config"
	"github.com/pkordes/room-reservation/internal/handler"
	"github.com/pkordes/room-reservation/internal/middleware"
	"github.com/pkordes/room-reservation/internal/mq"
	"github.com/pkordes/room-reservation/internal/notify"
	"github.com/pkordes/room-reservation/internal/payment"
	"github.com/pkordes/room-reservation/internal/repo"
	"github.com/pkordes/room-reservation/internal/service"
	"github.com/pkordes/room-reservation/migrations"
)

// dispatchBuffer is how many notifications may wait for the in-process worker.
const dispatchBuffer = 256

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
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

	// --- Database ---------------------------------------------------------
	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	reservationRepo := repo.NewReservationRepo(pool)
	roomRepo := repo.NewRoomRepo(pool)
	userRepo := repo.NewUserRepo(pool)
	emailRepo := repo.NewEmailRepo(pool)

	// --- Notifications ----------------------------------------------------
	// With a broker configured, events go to RabbitMQ and cmd/notifier sends
	// the emails. Otherwise a Dispatcher delivers them from this process.
	g, gctx := errgroup.WithContext(ctx)

	var events service.EventPublisher
	if cfg.RabbitMQURL != "" {
		pub, err := mq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			slog.Error("failed to connect to message broker", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		events = pub
		slog.Info("publishing notifications to broker", "exchange", cfg.RabbitMQExchange)
	} else {
		mailer := notify.NewMailer(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, logger)
		notifier := notify.NewNotifier(mailer, emailRepo, logger, cfg.EmailRetryBackoff)
		dispatcher := notify.NewDispatcher(notifier, dispatchBuffer, logger)
		g.Go(func() error { return dispatcher.Run(gctx) })
		events = dispatcher
		slog.Info("delivering notifications in-process")
	}

	// --- Services ---------------------------------------------------------
	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		slog.Error("invalid token configuration", "error", err)
		os.Exit(1)
	}
	reservations := service.NewReservationService(reservationRepo, roomRepo, userRepo, events, logger)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.PublicBaseURL)
	if cfg.StripeSecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY not set; checkout endpoints will return 503")
	}

	checkout := service.NewCheckoutService(reservations, gateway, service.CheckoutConfig{
		Currency:   cfg.PaymentCurrency,
		SessionTTL: cfg.CheckoutSessionTTL,
		HoldTTL:    cfg.HoldTTL,
	})
	// Unpaid holds are released once HoldTTL passes.
	if cfg.HoldTTL > 0 && cfg.HoldSweepInterval > 0 {
		g.Go(func() error { return checkout.RunReleaser(gctx, cfg.HoldSweepInterval) })
		slog.Info("releasing expired holds", "hold_ttl", cfg.HoldTTL, "interval", cfg.HoldSweepInterval)
	}

	server := handler.NewServer(handler.Services{
		Rooms:        service.NewRoomService(roomRepo, reservationRepo, cfg.RoomCacheTTL),
		Reservations: reservations,
		Checkout:     checkout,
		Auth:         service.NewAuthService(userRepo, tokens),
		Export:       service.NewExportService(reservationRepo, roomRepo),
		Emails:       service.NewEmailLogService(emailRepo),
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", server.Handler(tokens))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown: on signal (or a failed worker) give in-flight
	// requests up to 15 seconds to complete before forcefully closing.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending migrations. goose needs database/sql, not a pgx pool.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", len(applied))
	return nil
}
