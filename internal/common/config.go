package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Extract ExtractConfig `yaml:"extract"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig holds custom-parser store configuration
type StoreConfig struct {
	Driver          string        `yaml:"driver"` // sqlite | postgres | memory
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string `yaml:"http_addr"`
	GRPCAddr       string `yaml:"grpc_addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	Method    string `yaml:"method"` // auto | native | pdftotext
	Pdftotext string `yaml:"pdftotext"`
	MaxPages  int    `yaml:"max_pages"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:          "sqlite",
			DSN:             "pdf-data-extractor.db",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr:       ":8080",
			GRPCAddr:       ":9090",
			MaxUploadBytes: 50 << 20,
		},
		Extract: ExtractConfig{
			Method:    "auto",
			Pdftotext: "pdftotext",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from an optional YAML file (PDFX_CONFIG)
// and then from environment variables, which take precedence.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("PDFX_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid config file "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = getEnv("STORE_DSN", c.Store.DSN)
	c.Store.MaxConns = getEnvAsInt32("STORE_MAX_CONNS", c.Store.MaxConns)
	c.Store.MinConns = getEnvAsInt32("STORE_MIN_CONNS", c.Store.MinConns)
	c.Store.MaxConnLifetime = getEnvAsDuration("STORE_MAX_CONN_LIFETIME", c.Store.MaxConnLifetime)
	c.Store.MaxConnIdleTime = getEnvAsDuration("STORE_MAX_CONN_IDLE_TIME", c.Store.MaxConnIdleTime)
	c.Store.DialTimeout = getEnvAsDuration("STORE_DIAL_TIMEOUT", c.Store.DialTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MaxUploadBytes = int64(getEnvAsInt("MAX_UPLOAD_BYTES", int(c.Server.MaxUploadBytes)))

	c.Extract.Method = getEnv("EXTRACT_METHOD", c.Extract.Method)
	c.Extract.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Extract.Pdftotext)
	c.Extract.MaxPages = getEnvAsInt("EXTRACT_MAX_PAGES", c.Extract.MaxPages)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return NewAppError("CONFIG_ERROR", "STORE_DSN is required for driver "+c.Store.Driver, ErrInvalidInput)
		}
	case "memory":
	default:
		return NewAppError("CONFIG_ERROR", "STORE_DRIVER must be one of sqlite, postgres, memory", ErrInvalidInput)
	}
	switch c.Extract.Method {
	case "auto", "native", "pdftotext":
	default:
		return NewAppError("CONFIG_ERROR", "EXTRACT_METHOD must be one of auto, native, pdftotext", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	return nil
}
