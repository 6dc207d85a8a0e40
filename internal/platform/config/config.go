package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string

	// LockTimeout bounds the wait for a sequence counter row lock. On expiry
	// the caller gets a retryable contention error, never an unlocked read.
	LockTimeout time.Duration

	// BusinessHoursStart/End bound the compliance window for the
	// out-of-hours audit heuristic (hour of day, local to the server).
	BusinessHoursStart int
	BusinessHoursEnd   int
}

// TypeCacheTTL enforces retention for cached document type configuration.
var TypeCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:               getenv("REGISTRAR_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AuditTopic:         getenv("AUDIT_TOPIC", "registrar.audit"),
		LockTimeout:        getduration("SEQUENCE_LOCK_TIMEOUT", 3*time.Second),
		BusinessHoursStart: getint("BUSINESS_HOURS_START", 7),
		BusinessHoursEnd:   getint("BUSINESS_HOURS_END", 19),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	cfg.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
