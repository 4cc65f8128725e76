package config

import (
	"os"
	"strings"
	"time"
)

// Server captures top-level service configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	DevMode       bool

	Provider ProviderConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Poller   PollerConfig
}

// ProviderConfig holds the screening provider integration settings. The
// workflow is unreachable until BaseURL and APIKey are both present.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PostgresConfig holds the persistence settings. Empty DSN means the in-memory
// store is used (dev and tests).
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds settings for the distributed submit lock.
// Empty URL means Redis is not configured and in-process locks are used.
type RedisConfig struct {
	URL string
}

// KafkaConfig holds audit publishing settings. Empty Brokers means audit
// events stay on the structured log only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PollerConfig controls the optional background refresh sweep.
type PollerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("VETGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	providerTimeout := durationFromEnv("PROVIDER_TIMEOUT", 10*time.Second)
	pollInterval := durationFromEnv("POLL_INTERVAL", 5*time.Minute)

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "vetgate.audit"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		DevMode:       os.Getenv("DEV_MODE") == "true",
		Provider: ProviderConfig{
			BaseURL: os.Getenv("PROVIDER_BASE_URL"),
			APIKey:  os.Getenv("PROVIDER_API_KEY"),
			Timeout: providerTimeout,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		Poller: PollerConfig{
			Enabled:  os.Getenv("POLL_ENABLED") == "true",
			Interval: pollInterval,
		},
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
