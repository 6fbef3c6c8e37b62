package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VEXDB_"

type Config struct {
	ListenAddr string           `json:"listen_addr" yaml:"listen_addr"`
	AuthToken  string           `json:"auth_token" yaml:"auth_token"`
	Write      WriteConfig      `json:"write" yaml:"write"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Timeout    TimeoutConfig    `json:"timeout" yaml:"timeout"`
}

// WriteConfig bounds inbound write batches and messages.
type WriteConfig struct {
	// MaxBatchSize is the maximum number of entries in one write batch.
	// Default: 1000
	MaxBatchSize int `json:"max_batch_size,omitempty" yaml:"max_batch_size,omitempty"`
	// MaxMessageSizeMB is the maximum size of a wire message in MB (10^6 bytes).
	// Default: 48
	MaxMessageSizeMB int `json:"max_message_size_mb,omitempty" yaml:"max_message_size_mb,omitempty"`
	// MaxDocumentSizeMB is the maximum size of a single document in MiB.
	// Default: 16
	MaxDocumentSizeMB int `json:"max_document_size_mb,omitempty" yaml:"max_document_size_mb,omitempty"`
	// MaxConcurrentRequests caps in-flight write requests on the HTTP API.
	// Default: 64
	MaxConcurrentRequests int `json:"max_concurrent_requests,omitempty" yaml:"max_concurrent_requests,omitempty"`
}

// GetMaxBatchSize returns MaxBatchSize with default fallback.
func (c WriteConfig) GetMaxBatchSize() int {
	if c.MaxBatchSize <= 0 {
		return 1000
	}
	return c.MaxBatchSize
}

// MaxMessageSizeBytes returns the max message size converted from MB.
func (c WriteConfig) MaxMessageSizeBytes() int {
	if c.MaxMessageSizeMB <= 0 {
		return 48 * 1000 * 1000
	}
	return c.MaxMessageSizeMB * 1000 * 1000
}

// MaxDocumentSizeBytes returns the max document size converted from MiB.
func (c WriteConfig) MaxDocumentSizeBytes() int {
	if c.MaxDocumentSizeMB <= 0 {
		return 16 * 1024 * 1024
	}
	return c.MaxDocumentSizeMB * 1024 * 1024
}

// GetMaxConcurrentRequests returns MaxConcurrentRequests with default fallback.
func (c WriteConfig) GetMaxConcurrentRequests() int {
	if c.MaxConcurrentRequests <= 0 {
		return 64
	}
	return c.MaxConcurrentRequests
}

// ValidationConfig holds document validation settings.
type ValidationConfig struct {
	// Workers is the number of documents evaluated concurrently per batch.
	// Default: 4
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// GetWorkers returns Workers with default fallback.
func (c ValidationConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// GetPath returns Path with default fallback.
func (c MetricsConfig) GetPath() string {
	if c.Path == "" {
		return "/metrics"
	}
	return c.Path
}

// TimeoutConfig holds per-request timeout configuration.
type TimeoutConfig struct {
	// RequestTimeoutMs is the maximum time allowed for a request in milliseconds.
	// Default: 30000 (30 seconds)
	RequestTimeoutMs int `json:"request_timeout_ms" yaml:"request_timeout_ms"`
}

// GetRequestTimeout returns the request timeout with default fallback.
func (c TimeoutConfig) GetRequestTimeout() int {
	if c.RequestTimeoutMs <= 0 {
		return 30000
	}
	return c.RequestTimeoutMs
}

func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads the config file at path (or $VEXDB_CONFIG) and applies
// environment overrides. Files ending in .yaml or .yml are parsed as YAML,
// anything else as JSON.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if env := os.Getenv(EnvPrefix + "LISTEN_ADDR"); env != "" {
		cfg.ListenAddr = env
	}
	if env := os.Getenv(EnvPrefix + "AUTH_TOKEN"); env != "" {
		cfg.AuthToken = env
	}

	// Write limits
	if env := os.Getenv(EnvPrefix + "WRITE_MAX_BATCH_SIZE"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Write.MaxBatchSize = n
		}
	}
	if env := os.Getenv(EnvPrefix + "WRITE_MAX_MESSAGE_SIZE_MB"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Write.MaxMessageSizeMB = n
		}
	}
	if env := os.Getenv(EnvPrefix + "WRITE_MAX_DOCUMENT_SIZE_MB"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Write.MaxDocumentSizeMB = n
		}
	}
	if env := os.Getenv(EnvPrefix + "WRITE_MAX_CONCURRENT_REQUESTS"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Write.MaxConcurrentRequests = n
		}
	}

	if env := os.Getenv(EnvPrefix + "VALIDATION_WORKERS"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Validation.Workers = n
		}
	}

	if env := os.Getenv(EnvPrefix + "LOG_LEVEL"); env != "" {
		cfg.Logging.Level = env
	}
	if env := os.Getenv(EnvPrefix + "LOG_FORMAT"); env != "" {
		cfg.Logging.Format = env
	}
	if env := os.Getenv(EnvPrefix + "METRICS_ENABLED"); env != "" {
		cfg.Metrics.Enabled = env == "true" || env == "1"
	}

	if env := os.Getenv(EnvPrefix + "TIMEOUT_REQUEST_MS"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Timeout.RequestTimeoutMs = n
		}
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func parseIntEnv(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
