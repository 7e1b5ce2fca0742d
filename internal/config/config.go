package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// MinBcryptCost is the lowest cost accepted for password hashing.
	MinBcryptCost = 12
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	Driver            string // postgres or sqlite
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	SQLitePath        string
	AutoMigrate       bool
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret            string
	Issuer               string
	TokenTTL             time.Duration
	RememberMeTTL        time.Duration
	BcryptCost           int
	HashConcurrency      int
	TrackPasswordLogins  bool
	RateLimitPerMinute   int
	TimingDelayBaseMs    int
	TimingDelayRandomMs  int
	TimingDelayOnSuccess bool
}

type TelemetryConfig struct {
	MetricsEnabled bool
	ServiceName    string
	OTLPEndpoint   string
	OTLPInsecure   bool
	ExportInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	db, err := loadDatabase()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: *db,
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:            jwtSecret,
			Issuer:               getEnv("JWT_ISSUER", "dualauth"),
			TokenTTL:             getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
			RememberMeTTL:        getEnvAsDuration("REMEMBER_ME_TTL", 7*24*time.Hour),
			BcryptCost:           getEnvAsInt("BCRYPT_COST", MinBcryptCost),
			HashConcurrency:      getEnvAsInt("AUTH_HASH_CONCURRENCY", 8),
			TrackPasswordLogins:  getEnvAsBool("AUTH_TRACK_PASSWORD_LOGINS", false),
			RateLimitPerMinute:   getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 20),
			TimingDelayBaseMs:    getEnvAsInt("AUTH_TIMING_DELAY_BASE_MS", 100),
			TimingDelayRandomMs:  getEnvAsInt("AUTH_TIMING_DELAY_RANDOM_MS", 50),
			TimingDelayOnSuccess: getEnvAsBool("AUTH_TIMING_DELAY_ON_SUCCESS", false),
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: getEnvAsBool("OTEL_METRICS_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "dualauth"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPInsecure:   getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ExportInterval: getEnvAsDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),
		},
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.Auth.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings. Used by tooling that never
// issues tokens, so JWT_SECRET is not required.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	return loadDatabase()
}

func loadDatabase() (*DatabaseConfig, error) {
	db := &DatabaseConfig{
		Driver:            strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvAsInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "dualauth"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		SQLitePath:        getEnv("DB_SQLITE_PATH", "dualauth.db"),
		AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
	}

	switch db.Driver {
	case DriverPostgres:
		if db.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
		if db.SQLitePath == "" {
			return nil, fmt.Errorf("DB_SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want %s or %s)", db.Driver, DriverPostgres, DriverSQLite)
	}

	return db, nil
}

func (a *AuthConfig) validate() error {
	if a.BcryptCost < MinBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d (got %d)", MinBcryptCost, a.BcryptCost)
	}
	if a.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if a.RememberMeTTL <= a.TokenTTL {
		return fmt.Errorf("REMEMBER_ME_TTL (%s) must be longer than TOKEN_TTL (%s)", a.RememberMeTTL, a.TokenTTL)
	}
	if a.HashConcurrency < 1 {
		return fmt.Errorf("AUTH_HASH_CONCURRENCY must be at least 1")
	}
	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitList(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5000",
		"http://127.0.0.1:5173",
	}
}
