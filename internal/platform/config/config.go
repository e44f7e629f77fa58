// Package config builds runtime configuration from environment variables so
// main stays lean. Optional backends (Postgres, Redis, Kafka) are simply left
// unset to run on in-process fallbacks.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server process needs at startup.
type Config struct {
	Addr     string
	LogLevel string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig

	// CronSpec drives the horizon-extension job; empty disables it.
	CronSpec string
	// HorizonDays is how far ahead the scheduler materializes.
	HorizonDays int
}

// PostgresConfig carries the connection settings for the primary store.
type PostgresConfig struct {
	URL string
}

// RedisConfig carries the connection settings for the plan entitlement cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries the audit publisher settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig carries access token verification settings.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:     envOr("TAXCAL_ADDR", ":8080"),
		LogLevel: envOr("TAXCAL_LOG_LEVEL", "info"),
		Postgres: PostgresConfig{
			URL: os.Getenv("TAXCAL_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("TAXCAL_REDIS_URL"),
			PoolSize:     envIntOr("TAXCAL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("TAXCAL_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("TAXCAL_KAFKA_BROKERS")),
			Topic:   envOr("TAXCAL_KAFKA_AUDIT_TOPIC", "taxcal.audit"),
		},
		JWT: JWTConfig{
			SigningKey: envOr("TAXCAL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envOr("TAXCAL_JWT_ISSUER", "platform"),
			Audience:   envOr("TAXCAL_JWT_AUDIENCE", "taxcal"),
		},
		CronSpec:    envOr("TAXCAL_GENERATION_CRON", "@daily"),
		HorizonDays: envIntOr("TAXCAL_GENERATION_HORIZON_DAYS", 90),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
