package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers selectable with STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Environment string
	StoreDriver string
	LogLevel    string
	LogFormat   string
	Oracle      OracleConfig
	Auth        AuthConfig
	GRPC        GRPCConfig
	Telemetry   TelemetryConfig
	Redis       RedisConfig
	DB          DBConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	Outbox      OutboxConfig
	HTTPPort    int
}

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Port     int
	MaxConns int32
	MinConns int32
}

// RedisConfig holds the record cache connection. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds Kafka broker configuration. No brokers disables the
// submission consumer and the outbox relay.
type KafkaConfig struct {
	ConsumerGroup   string
	SubmissionTopic string
	EventsTopic     string
	SASLMechanism   string
	SASLUsername    string
	SASLPassword    string
	Brokers         []string
	SASLEnabled     bool
	TLS             bool
}

// OracleConfig locates the authorized oracle identity.
type OracleConfig struct {
	Address       string
	AuthorityFile string
}

// AuthConfig holds JWT validation settings for the gRPC API.
type AuthConfig struct {
	JWTSecret        string
	JWTPublicKey     string
	JWTPublicKeyFile string
	Issuer           string
}

// GRPCConfig holds gRPC server settings.
type GRPCConfig struct {
	TLSCertFile     string
	TLSKeyFile      string
	TLSClientCAFile string
	Port            int
	Reflection      bool
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Insecure     bool
}

// OutboxConfig tunes the outbox relay.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// RateLimitConfig tunes the per-client REST limiter.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables with defaults. A .env
// file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTPPort:    getEnvInt("HTTP_PORT", 8090),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		GRPC: GRPCConfig{
			Port:            getEnvInt("GRPC_PORT", 9090),
			TLSCertFile:     getEnv("GRPC_TLS_CERT_FILE", ""),
			TLSKeyFile:      getEnv("GRPC_TLS_KEY_FILE", ""),
			TLSClientCAFile: getEnv("GRPC_TLS_CLIENT_CA_FILE", ""),
			Reflection:      getEnvBool("GRPC_REFLECTION", false),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "sentinel"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "fraudledger"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:         getEnvList("KAFKA_BROKERS"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "fraudledgerd"),
			SubmissionTopic: getEnv("KAFKA_SUBMISSION_TOPIC", "fraud.scores.submitted"),
			EventsTopic:     getEnv("KAFKA_EVENTS_TOPIC", "fraud.events"),
			SASLEnabled:     getEnvBool("KAFKA_SASL_ENABLED", false),
			SASLMechanism:   getEnv("KAFKA_SASL_MECHANISM", "PLAIN"),
			SASLUsername:    getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:    getEnv("KAFKA_SASL_PASSWORD", ""),
			TLS:             getEnvBool("KAFKA_TLS", false),
		},
		Oracle: OracleConfig{
			Address:       getEnv("ORACLE_ADDRESS", ""),
			AuthorityFile: getEnv("ORACLE_AUTHORITY_FILE", ""),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTPublicKey:     getEnv("JWT_PUBLIC_KEY", ""),
			JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:           getEnv("JWT_ISSUER", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName:  "fraudledgerd",
		},
		Outbox: OutboxConfig{
			PollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 100),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("API_RATE_LIMIT_RPS", 20),
			Burst: getEnvInt("API_RATE_LIMIT_BURST", 40),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks required configuration values.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}

	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKey == "" && c.Auth.JWTPublicKeyFile == "" {
		errs = append(errs, errors.New("one of JWT_SECRET, JWT_PUBLIC_KEY or JWT_PUBLIC_KEY_FILE is required"))
	}
	if (c.GRPC.TLSCertFile == "") != (c.GRPC.TLSKeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT_RPS and API_RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c Config) GRPCAddress() string {
	return fmt.Sprintf(":%d", c.GRPC.Port)
}

// HTTPAddress returns the full HTTP listen address.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
