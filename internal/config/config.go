// README: Config loader with env defaults for HTTP, storage, locking, payments and integrations.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type LockConfig struct {
	TTL      time.Duration
	Attempts int
}

type PaymentConfig struct {
	StripeKey string
	// Secret signs orders of the built-in gateway used when no Stripe key is set.
	Secret   string
	Currency string
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
	}
	Lock     LockConfig
	Payment  PaymentConfig
	Firebase struct {
		ProjectID       string
		CredentialsFile string
		CheckRevoked    bool
		// Push sends ride changes to FCM topics.
		Push            bool
	}
	Maps struct {
		APIKey string
	}
	Kafka struct {
		Brokers []string
		Topic   string
	}
	Search struct {
		RadiusKm float64
	}
	LogLevel string
}

// Load reads RIDEPOOL_* variables. An empty DSN or Redis address selects the
// in-memory implementation of that dependency.
func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("RIDEPOOL_HTTP_ADDR", ":8080")
	cfg.DB.DSN = os.Getenv("RIDEPOOL_DB_DSN")
	cfg.Redis.Addr = os.Getenv("RIDEPOOL_REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("RIDEPOOL_REDIS_PASSWORD")
	cfg.Lock.TTL = envOrDefaultDuration("RIDEPOOL_LOCK_TTL", 5*time.Second)
	cfg.Lock.Attempts = envOrDefaultInt("RIDEPOOL_LOCK_ATTEMPTS", 5)
	cfg.Payment.StripeKey = os.Getenv("RIDEPOOL_STRIPE_KEY")
	cfg.Payment.Secret = os.Getenv("RIDEPOOL_PAYMENT_SECRET")
	cfg.Payment.Currency = strings.ToUpper(envOrDefault("RIDEPOOL_CURRENCY", "INR"))
	cfg.Firebase.ProjectID = os.Getenv("RIDEPOOL_FIREBASE_PROJECT_ID")
	cfg.Firebase.CredentialsFile = os.Getenv("RIDEPOOL_FIREBASE_CREDENTIALS")
	cfg.Firebase.CheckRevoked = envOrDefaultBool("RIDEPOOL_FIREBASE_CHECK_REVOKED", false)
	cfg.Firebase.Push = envOrDefaultBool("RIDEPOOL_FIREBASE_PUSH", false)
	cfg.Maps.APIKey = os.Getenv("RIDEPOOL_MAPS_API_KEY")
	cfg.Kafka.Brokers = splitList(os.Getenv("RIDEPOOL_KAFKA_BROKERS"))
	cfg.Kafka.Topic = envOrDefault("RIDEPOOL_KAFKA_TOPIC", "ride-events")
	cfg.Search.RadiusKm = envOrDefaultFloat("RIDEPOOL_SEARCH_RADIUS_KM", 5.0)
	cfg.LogLevel = envOrDefault("RIDEPOOL_LOG_LEVEL", "info")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("RIDEPOOL_HTTP_ADDR must not be empty"))
	}
	if c.Firebase.ProjectID == "" {
		errs = append(errs, errors.New("RIDEPOOL_FIREBASE_PROJECT_ID is required"))
	}
	if c.Payment.StripeKey == "" && c.Payment.Secret == "" {
		errs = append(errs, errors.New("one of RIDEPOOL_STRIPE_KEY or RIDEPOOL_PAYMENT_SECRET is required"))
	}
	if len(c.Payment.Currency) != 3 {
		errs = append(errs, fmt.Errorf("RIDEPOOL_CURRENCY %q is not an ISO 4217 code", c.Payment.Currency))
	}
	if c.Lock.TTL <= 0 {
		errs = append(errs, errors.New("RIDEPOOL_LOCK_TTL must be positive"))
	}
	if c.Lock.Attempts < 1 {
		errs = append(errs, errors.New("RIDEPOOL_LOCK_ATTEMPTS must be at least 1"))
	}
	if c.Search.RadiusKm <= 0 {
		errs = append(errs, errors.New("RIDEPOOL_SEARCH_RADIUS_KM must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("RIDEPOOL_KAFKA_TOPIC must be set when brokers are configured"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
