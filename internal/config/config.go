package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Archive   ArchiveConfig   `yaml:"archive"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IngestConfig contains CSV upload settings.
type IngestConfig struct {
	// MaxUploadBytes caps the request body of an upload.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// SampleRows is how many raw rows are kept on each upload record.
	SampleRows int `yaml:"sample_rows"`
}

// NarrativeConfig contains settings for LLM-written report prose.
// An empty API key disables it.
type NarrativeConfig struct {
	APIKey  string   `yaml:"-"` // env-only, never in YAML
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// ArchiveConfig contains S3-compatible report archive settings.
// An empty bucket disables archiving.
type ArchiveConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Bucket    string   `yaml:"bucket"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
	// SweepInterval is how often reports that missed the archive are retried.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// CORSConfig contains cross-origin settings for the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// DevMode reports whether SNSREPORT_DEV_MODE is enabled.
func DevMode() bool {
	return os.Getenv("SNSREPORT_DEV_MODE") == "true"
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("SNSREPORT_CONFIG_PATH", "config/snsreport.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOffline loads configuration like Load but skips validation. The
// offline CLI commands never serve HTTP, so they need no API key.
func LoadOffline() (*Config, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, getEnv("SNSREPORT_CONFIG_PATH", "config/snsreport.yaml")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/snsreport.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Ingest: IngestConfig{
			MaxUploadBytes: 10 << 20,
			SampleRows:     10,
		},
		Narrative: NarrativeConfig{
			Model:   "gpt-4o-mini",
			Timeout: Duration(30 * time.Second),
		},
		Archive: ArchiveConfig{
			URLExpiry:     Duration(1 * time.Hour),
			SweepInterval: Duration(10 * time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("SNSREPORT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	envDuration("SNSREPORT_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SNSREPORT_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SNSREPORT_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	if v := os.Getenv("SNSREPORT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Auth
	if v := os.Getenv("SNSREPORT_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("SNSREPORT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SNSREPORT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Ingest
	if v := os.Getenv("SNSREPORT_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Ingest.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("SNSREPORT_SAMPLE_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.SampleRows = n
		}
	}

	// Narrative (OPENAI_API_KEY is industry convention)
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Narrative.APIKey = v
	}
	if v := os.Getenv("SNSREPORT_NARRATIVE_MODEL"); v != "" {
		cfg.Narrative.Model = v
	}
	envDuration("SNSREPORT_NARRATIVE_TIMEOUT", &cfg.Narrative.Timeout)

	// Archive
	if v := os.Getenv("SNSREPORT_ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("SNSREPORT_ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("SNSREPORT_ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
	if v := os.Getenv("SNSREPORT_ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("SNSREPORT_ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("SNSREPORT_ARCHIVE_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Archive.UseSSL = &useSSL
	}
	envDuration("SNSREPORT_ARCHIVE_URL_EXPIRY", &cfg.Archive.URLExpiry)
	envDuration("SNSREPORT_ARCHIVE_SWEEP_INTERVAL", &cfg.Archive.SweepInterval)

	// CORS
	if v := os.Getenv("SNSREPORT_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// validate checks that required configuration values are set.
// In dev mode (SNSREPORT_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if c.Ingest.SampleRows < 0 {
		return errors.New("ingest.sample_rows must not be negative")
	}
	if c.Archive.Bucket != "" && c.Archive.Endpoint == "" {
		return errors.New("archive.endpoint is required when archive.bucket is set")
	}
	if c.Archive.Bucket != "" && c.Archive.SweepInterval <= 0 {
		return errors.New("archive.sweep_interval must be positive")
	}

	if DevMode() {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("SNSREPORT_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
