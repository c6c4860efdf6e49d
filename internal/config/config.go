package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPattern  = "{flag} {name} {entry}->{exit} ({ip})"
	DefaultFormat   = "json"
	DefaultWorkers  = 1
	DefaultListen   = ":8080"
	DefaultLogLevel = "info"
)

// Config holds settings shared by the CLI subcommands and the server.
type Config struct {
	Input              string       `yaml:"input,omitempty"`
	Output             string       `yaml:"output,omitempty"`
	Format             string       `yaml:"format,omitempty"`
	Pattern            string       `yaml:"pattern,omitempty"`
	LatencyThresholdMs *float64     `yaml:"latency_threshold_ms,omitempty"`
	IncludeInactive    bool         `yaml:"include_inactive,omitempty"`
	GeoIPDB            string       `yaml:"geoip_db,omitempty"`
	Workers            int          `yaml:"workers,omitempty"`
	LogLevel           string       `yaml:"log_level,omitempty"`
	Serve              *ServeConfig `yaml:"serve,omitempty"`
}

// ServeConfig is used by the serve subcommand.
type ServeConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate performs minimal validation for required fields.
func Validate(cfg Config) error {
	if cfg.Format != "json" && cfg.Format != "csv" {
		return fmt.Errorf("format must be json or csv, got %q", cfg.Format)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if cfg.LatencyThresholdMs != nil && *cfg.LatencyThresholdMs < 0 {
		return fmt.Errorf("latency_threshold_ms must not be negative")
	}
	if cfg.Serve != nil && cfg.Serve.Listen == "" {
		return fmt.Errorf("serve.listen is required")
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Serve != nil && cfg.Serve.Listen == "" {
		cfg.Serve.Listen = DefaultListen
	}
}

// LoadEnv loads environment variables from local .env files. Missing files
// are skipped; values in later files win.
func LoadEnv(logger *logrus.Logger) {
	for _, file := range []string{".env", ".env.dev"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil && logger != nil {
			logger.WithError(err).Warnf("failed to load %s", file)
		}
	}
}

// ApplyEnv overrides cfg from NODECTL_* environment variables. It sits
// between config file and flags in precedence.
func ApplyEnv(cfg *Config) {
	cfg.Input = getEnv("NODECTL_INPUT", cfg.Input)
	cfg.Output = getEnv("NODECTL_OUTPUT", cfg.Output)
	cfg.Format = getEnv("NODECTL_FORMAT", cfg.Format)
	cfg.Pattern = getEnv("NODECTL_PATTERN", cfg.Pattern)
	cfg.IncludeInactive = getEnvBool("NODECTL_INCLUDE_INACTIVE", cfg.IncludeInactive)
	cfg.GeoIPDB = getEnv("NODECTL_GEOIP_DB", cfg.GeoIPDB)
	cfg.Workers = getEnvInt("NODECTL_WORKERS", cfg.Workers)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("NODECTL_LATENCY_THRESHOLD_MS"); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LatencyThresholdMs = &ms
		}
	}
	if v := os.Getenv("NODECTL_LISTEN"); v != "" {
		if cfg.Serve == nil {
			cfg.Serve = &ServeConfig{}
		}
		cfg.Serve.Listen = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
