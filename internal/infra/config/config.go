package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageMode        string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	ServiceFeeBps      int64
	TaxBps             int64
	PaymentsMode       string
	PaymentGatewayURL  string
	PaymentGatewayKey  string
	PaymentTimeout     time.Duration
	CalendarSyncEvery  time.Duration
	ICalFetchTimeout   time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		StorageMode:       strings.ToLower(getEnv("STORAGE_MODE", "memory")),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "staybook"),
		KafkaTopicPrefix:  getEnv("KAFKA_TOPIC_PREFIX", ""),
		PaymentsMode:      strings.ToLower(getEnv("PAYMENTS_MODE", "memory")),
		PaymentGatewayURL: getEnv("PAYMENT_GATEWAY_URL", "http://localhost:8100"),
		PaymentGatewayKey: os.Getenv("PAYMENT_GATEWAY_KEY"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	paymentTimeout, err := parseDurationEnv("PAYMENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.PaymentTimeout = paymentTimeout

	syncEvery, err := parseDurationEnv("CALENDAR_SYNC_INTERVAL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.CalendarSyncEvery = syncEvery

	fetchTimeout, err := parseDurationEnv("ICAL_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ICalFetchTimeout = fetchTimeout

	serviceFee, err := parseIntEnv("SERVICE_FEE_BPS", 1200)
	if err != nil {
		return Config{}, err
	}
	cfg.ServiceFeeBps = serviceFee

	tax, err := parseIntEnv("TAX_BPS", 800)
	if err != nil {
		return Config{}, err
	}
	cfg.TaxBps = tax

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.StorageMode == "mongo" && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
	}
	if cfg.ServiceFeeBps < 0 || cfg.ServiceFeeBps > 10000 {
		return Config{}, fmt.Errorf("SERVICE_FEE_BPS out of range: %d", cfg.ServiceFeeBps)
	}
	if cfg.TaxBps < 0 || cfg.TaxBps > 10000 {
		return Config{}, fmt.Errorf("TAX_BPS out of range: %d", cfg.TaxBps)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %q", key, raw)
	}
	return v, nil
}
