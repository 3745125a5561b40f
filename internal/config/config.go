// Package config loads runtime configuration from an optional YAML file and BARGAIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "BARGAIN_"

	// FileEnv names an optional YAML file loaded before the environment.
	FileEnv     = "BARGAIN_CONFIG_FILE"
	defaultFile = "bargainbot.yaml"
)

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Oracle      OracleConfig      `koanf:"oracle"`
	Negotiation NegotiationConfig `koanf:"negotiation"`
	Tracking    TrackingConfig    `koanf:"tracking"`
	AWS         AWSConfig         `koanf:"aws"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Log         LogConfig         `koanf:"log"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	RunLocal        bool          `koanf:"run_local"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type OracleConfig struct {
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type NegotiationConfig struct {
	// Timeout bounds a background negotiation started from a history session.
	Timeout time.Duration `koanf:"timeout"`
}

type TrackingConfig struct {
	Interval time.Duration `koanf:"interval"`
}

type AWSConfig struct {
	Region           string        `koanf:"region"`
	Endpoint         string        `koanf:"endpoint"`
	IdempotencyTable string        `koanf:"idempotency_table"`
	OrdersQueueURL   string        `koanf:"orders_queue_url"`
	IdempotencyTTL   time.Duration `koanf:"idempotency_ttl"`
}

type MetricsConfig struct {
	// Namespace is the CloudWatch namespace; empty disables metric publishing.
	Namespace string `koanf:"namespace"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

var defaults = map[string]interface{}{
	"server.addr":             ":8080",
	"server.run_local":        false,
	"server.shutdown_timeout": "15s",
	"oracle.model":            "gemini-2.5-flash",
	"oracle.timeout":          "45s",
	"negotiation.timeout":     "90s",
	"tracking.interval":       "5s",
	"aws.region":              "us-east-1",
	"aws.idempotency_ttl":     "48h",
	"log.level":               "info",
	"log.format":              "json",
	"telemetry.enabled":       false,
	"telemetry.service_name":  "bargainbot",
}

// envKey maps BARGAIN_ORACLE_API_KEY to oracle.api_key: the first segment
// names the section, the rest is the field.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + field
}

// Load reads the YAML file (if present), then the environment on top of it,
// then fills the built-in defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(FileEnv)
	if path == "" {
		path = defaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// a missing file is fine, the environment alone is enough
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	for key, val := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, val); err != nil {
				return nil, fmt.Errorf("set default %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Tracking.Interval <= 0 {
		return fmt.Errorf("tracking.interval must be positive, got %s", c.Tracking.Interval)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive, got %s", c.Oracle.Timeout)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
