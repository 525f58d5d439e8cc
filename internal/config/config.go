// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `envconfig:"PORT" default:"8080"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// LogLevel controls the minimum log level: debug, info, warn or error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// CORSOrigins is the comma-separated list of allowed cross-origin request origins.
	// Defaults to the Vite dev server.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	// JWTSecret signs access tokens. Required.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// JWTTTL is how long an access token stays valid.
	JWTTTL time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// StripeSecretKey enables checkout. Empty disables the payment endpoints.
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`

	// PublicBaseURL is the browser-facing origin checkout returns to.
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:3000"`

	// PaymentCurrency is the ISO currency code charged at checkout.
	PaymentCurrency string `envconfig:"PAYMENT_CURRENCY" default:"eur"`

	// CheckoutSessionTTL is how long a checkout session accepts payment.
	// Stripe requires between 30 minutes and 24 hours.
	CheckoutSessionTTL time.Duration `envconfig:"CHECKOUT_SESSION_TTL" default:"30m"`

	// HoldTTL is how long an unpaid PENDING reservation keeps its room.
	// It should outlast CheckoutSessionTTL.
	HoldTTL time.Duration `envconfig:"HOLD_TTL" default:"1h"`

	// HoldSweepInterval is how often expired holds are looked for.
	HoldSweepInterval time.Duration `envconfig:"HOLD_SWEEP_INTERVAL" default:"1m"`

	// RabbitMQURL selects broker-backed notifications. Empty means events are
	// delivered in-process.
	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"reservations"`

	// BrevoAPIKey enables real email delivery. Empty means emails are only logged.
	BrevoAPIKey      string `envconfig:"BREVO_API_KEY"`
	BrevoSenderEmail string `envconfig:"BREVO_SENDER_EMAIL" default:"no-reply@roomreservation.com"`

	// EmailRetryBackoff is the pause before the second delivery attempt of an
	// in-process notification; it doubles for each further attempt.
	EmailRetryBackoff time.Duration `envconfig:"EMAIL_RETRY_BACKOFF" default:"2s"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	// RoomCacheTTL is how long the room catalogue is cached. Zero disables caching.
	RoomCacheTTL time.Duration `envconfig:"ROOM_CACHE_TTL" default:"1m"`

	// MigrateOnStart applies pending migrations before serving.
	MigrateOnStart bool `envconfig:"MIGRATE_ON_START" default:"true"`
}

// NotifierConfig holds the configuration of the notification worker.
type NotifierConfig struct {
	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	RabbitMQURL      string        `envconfig:"RABBITMQ_URL" required:"true"`
	RabbitMQExchange string        `envconfig:"RABBITMQ_EXCHANGE" default:"reservations"`
	RabbitMQQueue    string        `envconfig:"RABBITMQ_QUEUE" default:"reservation-notifications"`
	BrevoAPIKey      string        `envconfig:"BREVO_API_KEY"`
	BrevoSenderEmail string        `envconfig:"BREVO_SENDER_EMAIL" default:"no-reply@roomreservation.com"`
	RetryBackoff     time.Duration `envconfig:"EMAIL_RETRY_BACKOFF" default:"2s"`
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error naming any required variable that is not set.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)
	if err := requireNonEmpty(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   cfg.JWTSecret,
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadNotifier reads the notification worker configuration.
func LoadNotifier() (NotifierConfig, error) {
	var cfg NotifierConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return NotifierConfig{}, fmt.Errorf("config.LoadNotifier: %w", err)
	}
	if err := requireNonEmpty(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"RABBITMQ_URL": cfg.RabbitMQURL,
	}); err != nil {
		return NotifierConfig{}, err
	}
	return cfg, nil
}

// requireNonEmpty rejects required variables that are set but blank.
func requireNonEmpty(vals map[string]string) error {
	var missing []string
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "RABBITMQ_URL"} {
		if v, ok := vals[key]; ok && strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// trimAll trims each entry and drops empty ones.
func trimAll(in []string) []string {
	var out []string
	for _, part := range in {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
