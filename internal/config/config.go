// Package config loads qrdash settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"qrdash/internal/files"
)

const DefaultPath = "qrdash.yaml"

type Config struct {
	Addr         string        `yaml:"addr"`
	RegistryFile string        `yaml:"registry_file"`
	OutputDir    string        `yaml:"output_dir"`
	Watch        bool          `yaml:"watch"`
	TLS          TLSConfig     `yaml:"tls"`
	Logging      LoggingConfig `yaml:"logging"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
	File   string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Addr:            ":8080",
		RegistryFile:    files.DefaultRegistryFile,
		OutputDir:       files.DefaultOutputDir,
		ShutdownTimeout: "5s",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QRDASH_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("QRDASH_REGISTRY"); v != "" {
		c.RegistryFile = v
	}
	if v := os.Getenv("QRDASH_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("QRDASH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RegistryFile) == "" {
		return errors.New("registry_file must not be empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir must not be empty")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q: must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging.format %q: must be console or json", c.Logging.Format)
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return errors.New("tls.cert_file and tls.key_file must be set together")
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

// GetShutdownTimeout returns ShutdownTimeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

func (c *Config) TLSEnabled() bool { return c.TLS.CertFile != "" }
