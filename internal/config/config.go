package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/campusconnect/server/internal/validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Environment string
}

type ServerConfig struct {
	Host           string
	Port           int
	BaseURL        string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
}

type AuthConfig struct {
	SessionSecret      string
	SessionExpiry      time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	// AllowedDomain is the institutional email domain, without "@".
	AllowedDomain string
}

type RateLimitConfig struct {
	PublicPerMinute int
	JoinPerMinute   int
	// TrustedProxyCIDRs lists networks whose X-Forwarded-For is believed.
	TrustedProxyCIDRs []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

// IsProduction reports whether ENVIRONMENT is "production".
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			BaseURL:        strings.TrimRight(getEnv("SERVER_BASE_URL", "http://localhost:8080"), "/"),
			RequestTimeout: getEnvDuration("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			MaxBodyBytes:   int64(getEnvInt("SERVER_MAX_BODY_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
		},
		Auth: AuthConfig{
			SessionSecret:      getEnv("SESSION_SECRET", os.Getenv("NEXTAUTH_SECRET")),
			SessionExpiry:      time.Duration(getEnvInt("SESSION_EXPIRY_HOURS", 24*30)) * time.Hour,
			GoogleClientID:     getEnv("GOOGLE_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_SECRET", ""),
			AllowedDomain:      strings.TrimPrefix(getEnv("AUTH_ALLOWED_DOMAIN", "vitstudent.ac.in"), "@"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			JoinPerMinute:     getEnvInt("RATE_LIMIT_JOIN", 10),
			TrustedProxyCIDRs: splitList(getEnv("TRUSTED_PROXY_CIDRS", "")),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "campusconnect-server"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.Auth.AllowedDomain == "" {
		return Config{}, fmt.Errorf("AUTH_ALLOWED_DOMAIN must not be empty")
	}
	if err := validation.ValidateBaseURL(cfg.Server.BaseURL, "SERVER_BASE_URL"); err != nil {
		return Config{}, err
	}
	if cfg.IsProduction() {
		if cfg.Auth.GoogleClientID == "" || cfg.Auth.GoogleClientSecret == "" {
			return Config{}, fmt.Errorf("GOOGLE_ID and GOOGLE_SECRET are required in production")
		}
		if len(cfg.CORS.AllowedOrigins) == 0 {
			return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
		}
		if len(cfg.Auth.SessionSecret) < 32 {
			return Config{}, fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
		}
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files. Missing files are
// skipped and variables already present in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// LoadFile applies a YAML file of environment keys, for example
//
//	DATABASE_URL: postgres://localhost/campusconnect
//	SERVER_PORT: 9090
//
// Keys already set in the environment are left alone.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	for key, value := range values {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
