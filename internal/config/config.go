package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Spreadsheet access configuration
	Sheets SheetsConfig

	// Recurring import configuration
	Scheduler SchedulerConfig

	// Last-good import result cache
	Cache CacheConfig

	// HTTP rate limiting
	RateLimit RateLimitConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// SheetsConfig holds settings for the spreadsheet fetch strategies
type SheetsConfig struct {
	// APIBaseURL overrides the Sheets values API endpoint (tests, proxies)
	APIBaseURL string
	// ExportBaseURL is the published-export host, e.g. https://docs.google.com
	ExportBaseURL string
	// CredentialsFile is a service-account JSON used when a source has no credential of its own
	CredentialsFile string
	// APIKey is used when a source has no API key of its own
	APIKey         string
	HTTPTimeout    time.Duration
	ExportFallback bool
}

// SchedulerConfig holds the recurring import settings
type SchedulerConfig struct {
	MaxRunsPerMinute int
	MinInterval      time.Duration
	RunTimeout       time.Duration
}

// CacheConfig selects the result cache backend
type CacheConfig struct {
	Driver        string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// RateLimitConfig holds the limiter rate for manual imports, in ulule/limiter format ("10-M")
type RateLimitConfig struct {
	Imports string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables, after an optional .env file
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "recruitops"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Sheets: SheetsConfig{
			APIBaseURL:      getEnv("SHEETS_API_BASE_URL", ""),
			ExportBaseURL:   getEnv("SHEETS_EXPORT_BASE_URL", "https://docs.google.com"),
			CredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
			APIKey:          getEnv("SHEETS_API_KEY", ""),
			HTTPTimeout:     getDurationEnv("SHEETS_HTTP_TIMEOUT", 20*time.Second),
			ExportFallback:  getBoolEnv("SHEETS_EXPORT_FALLBACK", true),
		},
		Scheduler: SchedulerConfig{
			MaxRunsPerMinute: getIntEnv("SCHEDULER_MAX_RUNS_PER_MINUTE", 20),
			MinInterval:      getDurationEnv("SCHEDULER_MIN_INTERVAL", 3*time.Second),
			RunTimeout:       getDurationEnv("SCHEDULER_RUN_TIMEOUT", 2*time.Minute),
		},
		Cache: CacheConfig{
			Driver:        getEnv("CACHE_DRIVER", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			TTL:           getDurationEnv("CACHE_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Imports: getEnv("RATE_LIMIT_IMPORTS", "10-M"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Scheduler.MaxRunsPerMinute <= 0 {
		return fmt.Errorf("SCHEDULER_MAX_RUNS_PER_MINUTE must be positive, got %d", c.Scheduler.MaxRunsPerMinute)
	}
	if c.Scheduler.MinInterval <= 0 {
		return fmt.Errorf("SCHEDULER_MIN_INTERVAL must be positive")
	}
	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_DRIVER must be memory or redis, got %q", c.Cache.Driver)
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
