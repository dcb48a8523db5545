package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Admin     AdminConfig
	Listing   ListingConfig
	Retention RetentionConfig
	Kafka     KafkaConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr keeps sessions in
// process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	SessionTTLMinutes     int
	BcryptCost            int
}

// AdminConfig describes the account created on first start.
type AdminConfig struct {
	Username            string
	Email               string
	Password            string
	DefaultUserPassword string
}

// ListingConfig holds list endpoint defaults.
type ListingConfig struct {
	PageSize int
}

// RetentionConfig controls activity log expiry. Days <= 0 disables it.
type RetentionConfig struct {
	Days            int
	IntervalMinutes int
}

// KafkaConfig enables publishing mail events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers   []string
	MailTopic string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	pageSize := getEnvAsInt("LIST_PAGE_SIZE", 10)
	if pageSize <= 0 {
		return nil, fmt.Errorf("invalid LIST_PAGE_SIZE: %d", pageSize)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "postal-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			SessionTTLMinutes:     getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Admin: AdminConfig{
			Username:            getEnv("ADMIN_USERNAME", "admin"),
			Email:               getEnv("ADMIN_EMAIL", "admin@postal.local"),
			Password:            getEnv("ADMIN_PASSWORD", "admin123"),
			DefaultUserPassword: getEnv("DEFAULT_USER_PASSWORD", "changeme"),
		},
		Listing: ListingConfig{
			PageSize: pageSize,
		},
		Retention: RetentionConfig{
			Days:            getEnvAsInt("ACTIVITY_RETENTION_DAYS", 0),
			IntervalMinutes: getEnvAsInt("ACTIVITY_RETENTION_INTERVAL_MINUTES", 60),
		},
		Kafka: KafkaConfig{
			Brokers:   getEnvAsList("KAFKA_BROKERS"),
			MailTopic: getEnv("KAFKA_MAIL_TOPIC", "postal.mail-events"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the idle lifetime of a login session.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// Enabled reports whether activity expiry should run.
func (r RetentionConfig) Enabled() bool {
	return r.Days > 0
}

// MaxAge is how long activity entries are kept.
func (r RetentionConfig) MaxAge() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

// Interval is how often expiry runs.
func (r RetentionConfig) Interval() time.Duration {
	if r.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(r.IntervalMinutes) * time.Minute
}

// Enabled reports whether a broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
