package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Logger        LoggerConfig
	Auth          AuthConfig
	TicketAPI     TicketAPIConfig
	PasswordReset PasswordResetConfig
	Notification  NotificationConfig
	Forms         FormConfig
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

// PostgresConfig holds DB connection values for the receipt log.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuthConfig defines how incoming bearer tokens are verified.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// TicketAPIConfig points at the ticket-creation backend.
type TicketAPIConfig struct {
	Endpoint       string
	RequireAuth    bool
	Simulate       bool
	SimulatedDelay time.Duration
	ClientTimeout  time.Duration
}

// PasswordResetConfig points at the auth backend reset endpoint.
type PasswordResetConfig struct {
	Endpoint       string
	Simulate       bool
	SimulatedDelay time.Duration
}

// NotificationConfig controls notice delivery.
type NotificationConfig struct {
	RecentLimit   int
	ChannelPrefix string
}

// FormConfig bounds the live form sessions held in memory.
type FormConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	MaxPerSession int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-intake"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 0),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 14),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
		},
		TicketAPI: TicketAPIConfig{
			Endpoint:       getEnv("TICKET_API_ENDPOINT", "http://localhost:8081/api/tickets"),
			RequireAuth:    getEnvAsBool("TICKET_API_REQUIRE_AUTH", true),
			Simulate:       getEnvAsBool("TICKET_API_SIMULATE", false),
			SimulatedDelay: getEnvAsDuration("TICKET_API_SIMULATED_DELAY", 2*time.Second),
			ClientTimeout:  getEnvAsDuration("TICKET_API_CLIENT_TIMEOUT", 0),
		},
		PasswordReset: PasswordResetConfig{
			Endpoint:       getEnv("PASSWORD_RESET_ENDPOINT", "http://localhost:8081/api/auth/reset-password"),
			Simulate:       getEnvAsBool("PASSWORD_RESET_SIMULATE", false),
			SimulatedDelay: getEnvAsDuration("PASSWORD_RESET_SIMULATED_DELAY", 1500*time.Millisecond),
		},
		Notification: NotificationConfig{
			RecentLimit:   getEnvAsInt("NOTIFY_RECENT_LIMIT", 20),
			ChannelPrefix: getEnv("NOTIFY_CHANNEL_PREFIX", "notices"),
		},
		Forms: FormConfig{
			IdleTTL:       getEnvAsDuration("FORM_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvAsDuration("FORM_SWEEP_INTERVAL", time.Minute),
			MaxPerSession: getEnvAsInt("FORM_MAX_PER_SESSION", 10),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
