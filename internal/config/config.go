package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	APIBaseURL       string
	APITimeout       time.Duration
	BreakerThreshold uint32
	BreakerCooldown  time.Duration

	// Persistent device storage: "sqlite", "redis" or "memory".
	DeviceStore   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	KafkaBrokers       []string
	KafkaTopic         string
	KafkaCatalogTopic  string
	KafkaConsumerGroup string

	CatalogTTL time.Duration

	VerifyMaxAttempts int
	VerifyBackoff     time.Duration
	CryptoWindow      time.Duration
	CryptoAddresses   map[string]string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080/api"),
		DeviceStore:   getEnv("DEVICE_STORE", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "./storefront.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:  splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "storefront-events"),

		KafkaCatalogTopic:  getEnv("KAFKA_CATALOG_TOPIC", "catalog-changes"),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.APITimeout, err = getDuration("API_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.BreakerCooldown, err = getDuration("BREAKER_COOLDOWN", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CatalogTTL, err = getDuration("CATALOG_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.VerifyBackoff, err = getDuration("VERIFY_BACKOFF", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.CryptoWindow, err = getDuration("CRYPTO_WINDOW", time.Hour); err != nil {
		return nil, err
	}

	threshold, err := getInt("BREAKER_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	cfg.BreakerThreshold = uint32(threshold)
	if cfg.VerifyMaxAttempts, err = getInt("VERIFY_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}

	cfg.CryptoAddresses, err = parsePairs(getEnv("CRYPTO_ADDRESSES", ""))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePairs reads "BTC=addr1,USDT=addr2".
func parsePairs(value string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range splitList(value) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("invalid pair %q", pair)
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out, nil
}
