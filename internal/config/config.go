package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBPath     string `yaml:"db_path"`
	DBLogLevel string `yaml:"db_log_level"`

	HTTPPort        int           `yaml:"http_port"`
	GinMode         string        `yaml:"gin_mode"`
	CORSOrigins     []string      `yaml:"cors_allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	OTelEnabled     bool    `yaml:"otel_enabled"`
	OTelExporter    string  `yaml:"otel_exporter"`
	OTelEndpoint    string  `yaml:"otel_endpoint"`
	OTelServiceName string  `yaml:"otel_service_name"`
	OTelSampleRate  float64 `yaml:"otel_sample_rate"`
}

// Supported values for DBDriver
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

func defaults() *Config {
	return &Config{
		DBDriver:        DriverSQLite,
		DBHost:          "localhost",
		DBUser:          "taskuser",
		DBPassword:      "taskpassword",
		DBName:          "task_management",
		DBPath:          "task_management.db",
		DBLogLevel:      "warn",
		HTTPPort:        8000,
		GinMode:         "debug",
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
		OTelExporter:    "stdout",
		OTelServiceName: "task-tracker-api",
		OTelSampleRate:  1.0,
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables (a local .env file is read first).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if cfg.DBPort == "" {
		cfg.DBPort = defaultDBPort(cfg.DBDriver)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, mysql, postgres)", c.DBDriver)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.OTelSampleRate)
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// defaultDBPort is the server port of the driver's database, empty for sqlite
func defaultDBPort(driver string) string {
	switch driver {
	case DriverMySQL:
		return "3306"
	case DriverPostgres:
		return "5432"
	default:
		return ""
	}
}

func applyEnvOverrides(cfg *Config) error {
	cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", cfg.DBDriver))
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.DBLogLevel = getEnv("DB_LOG_LEVEL", cfg.DBLogLevel)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.OTelExporter = getEnv("OTEL_EXPORTER", cfg.OTelExporter)
	cfg.OTelEndpoint = getEnv("OTEL_ENDPOINT", cfg.OTelEndpoint)
	cfg.OTelServiceName = getEnv("OTEL_SERVICE_NAME", cfg.OTelServiceName)

	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}
	if raw := os.Getenv("HTTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid HTTP_PORT: %w", err)
		}
		cfg.HTTPPort = port
	}
	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if raw := os.Getenv("OTEL_ENABLED"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED: %w", err)
		}
		cfg.OTelEnabled = enabled
	}
	if raw := os.Getenv("OTEL_SAMPLE_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		cfg.OTelSampleRate = rate
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
