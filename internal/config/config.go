package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN renders the pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Delivery stores lifecycle settings: the pending-ride TTL and how often
// the sweeper scans for stale rides.
type Delivery struct {
	RideTTL       time.Duration
	SweepInterval time.Duration
}

// Kafka stores broker addresses and the topics the platform uses.
type Kafka struct {
	Brokers       []string
	EventsTopic   string
	PaymentsTopic string
	GroupID       string
}

// Auth stores JWT settings shared by the HTTP and websocket entry points.
type Auth struct {
	Secret    string
	AccessTTL time.Duration
}

// Gateway stores payment-gateway client settings.
type Gateway struct {
	BaseURL       string
	WebhookSecret string
	Timeout       time.Duration
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
}

// RateLimit stores HTTP rate limiter settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof stores pprof server settings.
type Pprof struct {
	Port int
	User string
	Pass string
}

// Config stores all service settings.
type Config struct {
	Port      int
	DB        DB
	Delivery  Delivery
	Kafka     Kafka
	Auth      Auth
	Gateway   Gateway
	RateLimit RateLimit
	Pprof     Pprof
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      defaultPort,
		DB:        defaultDB,
		Delivery:  defaultDelivery,
		Kafka:     defaultKafka,
		Auth:      defaultAuth,
		Gateway:   defaultGateway,
		RateLimit: defaultRateLimit,
		Pprof:     defaultPprof,
	}

	readEnv(cfg)

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.Parse()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Delivery.RideTTL <= 0 {
		return nil, fmt.Errorf("invalid ride TTL: %s", cfg.Delivery.RideTTL)
	}
	if cfg.Delivery.SweepInterval <= 0 {
		return nil, fmt.Errorf("invalid sweep interval: %s", cfg.Delivery.SweepInterval)
	}
	return cfg, nil
}

func readEnv(cfg *Config) {
	envInt("PORT", &cfg.Port)

	envString("POSTGRES_HOST", &cfg.DB.Host)
	envString("POSTGRES_PORT", &cfg.DB.Port)
	envString("POSTGRES_USER", &cfg.DB.User)
	envString("POSTGRES_PASSWORD", &cfg.DB.Pass)
	envString("POSTGRES_DB", &cfg.DB.Name)

	envDuration("RIDE_TTL", &cfg.Delivery.RideTTL)
	envDuration("SWEEP_INTERVAL", &cfg.Delivery.SweepInterval)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitAndTrim(v)
	}
	envString("KAFKA_EVENTS_TOPIC", &cfg.Kafka.EventsTopic)
	envString("KAFKA_PAYMENTS_TOPIC", &cfg.Kafka.PaymentsTopic)
	envString("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)

	envString("JWT_SECRET", &cfg.Auth.Secret)
	envDuration("JWT_ACCESS_TTL", &cfg.Auth.AccessTTL)

	envString("GATEWAY_BASE_URL", &cfg.Gateway.BaseURL)
	envString("GATEWAY_WEBHOOK_SECRET", &cfg.Gateway.WebhookSecret)
	envDuration("GATEWAY_TIMEOUT", &cfg.Gateway.Timeout)

	envBool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)

	envInt("PPROF_PORT", &cfg.Pprof.Port)
	envString("PPROF_USER", &cfg.Pprof.User)
	envString("PPROF_PASS", &cfg.Pprof.Pass)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
