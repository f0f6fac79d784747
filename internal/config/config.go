// Package config provides configuration loading for the SDMX services.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// SDMX_* environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nucleus/sdmx-core/internal/connector/sdmx"
	"github.com/nucleus/sdmx-core/internal/reconcile"
)

// EnvConfigFile names the YAML file loaded when no path is given.
const EnvConfigFile = "SDMX_CONFIG"

// Config is the full service configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// SourceConfig holds the SDMX REST connection settings.
type SourceConfig struct {
	BaseURL          string        `yaml:"base_url" validate:"required,url"`
	AgencyID         string        `yaml:"agency_id" validate:"required"`
	StructureVersion string        `yaml:"structure_version" validate:"required"`
	Language         string        `yaml:"language" validate:"required"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries       int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	RateLimit        float64       `yaml:"rate_limit" validate:"gt=0"`
	RateBurst        int           `yaml:"rate_burst" validate:"gte=1"`
	Token            string        `yaml:"token"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig selects the slog handler. An empty Format lets the command
// choose: text for one-shot commands, JSON for the server.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// ReconcileConfig holds reconciliation defaults.
type ReconcileConfig struct {
	Threshold   float64 `yaml:"threshold" validate:"gte=0"`
	StartPeriod string  `yaml:"start_period"`
	GroupBy     string  `yaml:"group_by" validate:"required"`
	ValueColumn string  `yaml:"value_column" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	def := sdmx.DefaultConfig()
	return &Config{
		Source: SourceConfig{
			BaseURL:          def.BaseURL,
			AgencyID:         def.AgencyID,
			StructureVersion: def.StructureVersion,
			Language:         def.Language,
			Timeout:          def.Timeout,
			MaxRetries:       def.MaxRetries,
			RateLimit:        def.RateLimit,
			RateBurst:        def.RateBurst,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Reconcile: ReconcileConfig{
			Threshold:   reconcile.DefaultThreshold,
			StartPeriod: reconcile.DefaultStartPeriod,
			GroupBy:     reconcile.DefaultGroupBy,
			ValueColumn: reconcile.DefaultValueColumn,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $SDMX_CONFIG when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Source.BaseURL = getEnv("SDMX_BASE_URL", c.Source.BaseURL)
	c.Source.AgencyID = getEnv("SDMX_AGENCY_ID", c.Source.AgencyID)
	c.Source.Language = getEnv("SDMX_LANGUAGE", c.Source.Language)
	c.Source.Timeout = getEnvDuration("SDMX_TIMEOUT", c.Source.Timeout)
	c.Source.MaxRetries = getEnvInt("SDMX_MAX_RETRIES", c.Source.MaxRetries)
	c.Source.RateLimit = getEnvFloat("SDMX_RATE_LIMIT", c.Source.RateLimit)
	c.Source.Token = getEnv("SDMX_TOKEN", c.Source.Token)

	c.Server.Host = getEnv("SDMX_HTTP_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SDMX_HTTP_PORT", c.Server.Port)

	c.Log.Level = strings.ToLower(getEnv("SDMX_LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv("SDMX_LOG_FORMAT", c.Log.Format))

	c.Reconcile.Threshold = getEnvFloat("SDMX_RECONCILE_THRESHOLD", c.Reconcile.Threshold)
	c.Reconcile.StartPeriod = getEnv("SDMX_RECONCILE_START_PERIOD", c.Reconcile.StartPeriod)
	c.Reconcile.GroupBy = getEnv("SDMX_RECONCILE_GROUP_BY", c.Reconcile.GroupBy)
}

var validate = validator.New()

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SDMX converts the source settings into a connector config.
func (c *Config) SDMX() *sdmx.Config {
	return &sdmx.Config{
		BaseURL:          c.Source.BaseURL,
		AgencyID:         c.Source.AgencyID,
		StructureVersion: c.Source.StructureVersion,
		Language:         c.Source.Language,
		Timeout:          c.Source.Timeout,
		MaxRetries:       c.Source.MaxRetries,
		RateLimit:        c.Source.RateLimit,
		RateBurst:        c.Source.RateBurst,
	}
}

// ReconcileOptions converts the reconciliation defaults into comparison
// options.
func (c *Config) ReconcileOptions() reconcile.Options {
	opts := reconcile.DefaultOptions()
	opts.GroupBy = c.Reconcile.GroupBy
	opts.ValueColumn = c.Reconcile.ValueColumn
	opts.Threshold = c.Reconcile.Threshold
	return opts
}

// Addr is the listen address of the HTTP API.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// =============================================================================
// LOGGING
// =============================================================================

// Logger builds a slog logger writing to w, text unless Format is "json".
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.level()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (l LogConfig) level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// --- Env Helpers ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
