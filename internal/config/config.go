// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/joao-fontenele/storefront/internal/remote"
)

type Backend string

const (
	BackendNone      Backend = "none"
	BackendPostgres  Backend = "postgres"
	BackendPostgREST Backend = "postgrest"
)

type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SupabaseURL     string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`

	RedisURL           string        `envconfig:"REDIS_URL"`
	SessionFile        string        `envconfig:"SESSION_FILE"`
	SessionTTL         time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	VisitorIdleTimeout time.Duration `envconfig:"VISITOR_IDLE_TIMEOUT" default:"24h"`

	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	OrderPlacedTopic string   `envconfig:"ORDER_PLACED_TOPIC" default:"order.placed"`
	NotifierGroupID  string   `envconfig:"NOTIFIER_GROUP_ID" default:"order-notifier"`

	WhatsAppNumber        string `envconfig:"WHATSAPP_NUMBER" default:"256741068782"`
	StoreName             string `envconfig:"STORE_NAME" default:"M.A Online Store"`
	Currency              string `envconfig:"CURRENCY" default:"UGX"`
	Timezone              string `envconfig:"TIMEZONE" default:"Africa/Kampala"`
	PromotionsFile        string `envconfig:"PROMOTIONS_FILE" default:"config/promotions.yaml"`
	CheckoutRequiresLogin bool   `envconfig:"CHECKOUT_REQUIRES_LOGIN" default:"false"`

	AuthRateLimit float64 `envconfig:"AUTH_RATE_LIMIT" default:"5"`
	AuthRateBurst int     `envconfig:"AUTH_RATE_BURST" default:"10"`

	EmailServiceURL string `envconfig:"EMAIL_SERVICE_URL" default:"http://localhost:8084"`
	BusinessEmail   string `envconfig:"BUSINESS_EMAIL" default:"orders@example.com"`
	MailerPort      string `envconfig:"MAILER_PORT" default:"8084"`
	OutboxSize      int    `envconfig:"OUTBOX_SIZE" default:"100"`
}

// Load reads envFiles (missing files are skipped) and then the process
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.VisitorIdleTimeout <= 0 {
		return fmt.Errorf("VISITOR_IDLE_TIMEOUT must be positive, got %s", c.VisitorIdleTimeout)
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// Backend picks how the remote store is reached. A database URL takes
// precedence over the REST endpoint; placeholder REST credentials count as
// not configured.
func (c *Config) Backend() Backend {
	switch {
	case c.DatabaseURL != "":
		return BackendPostgres
	case remote.IsConfigured(c.SupabaseURL, c.SupabaseAnonKey):
		return BackendPostgREST
	default:
		return BackendNone
	}
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
