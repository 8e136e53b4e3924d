// Package config loads the settings of the curvefit server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/curvefit/internal/fit"
	"gopkg.in/yaml.v3"
)

// MaxCurveSamples bounds the samples a client may ask for per curve.
const MaxCurveSamples = 10000

// Config holds the server settings. Zero values are not meaningful; start
// from Default.
type Config struct {
	Addr         string           `yaml:"addr"`
	DataDir      string           `yaml:"data_dir"`
	SessionTTL   time.Duration    `yaml:"session_ttl"`
	Method       fit.MethodConfig `yaml:"method"`
	CurveSamples int              `yaml:"curve_samples"`
	LogLevel     string           `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:         ":8080",
		DataDir:      "./data",
		SessionTTL:   30 * time.Minute,
		Method:       fit.DefaultMethodConfig(),
		CurveSamples: fit.DefaultSamples,
		LogLevel:     "info",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode applies the YAML document in r on top of cfg.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("session_ttl must not be negative, got %s", c.SessionTTL))
	}
	if _, err := c.Method.Method.MarshalText(); err != nil {
		errs = append(errs, fmt.Errorf("method: %w", err))
	}
	if c.Method.Degree < 1 {
		errs = append(errs, fmt.Errorf("method degree must be at least 1, got %d", c.Method.Degree))
	}
	if c.CurveSamples < 1 || c.CurveSamples > MaxCurveSamples {
		errs = append(errs, fmt.Errorf("curve_samples must be in [1, %d], got %d", MaxCurveSamples, c.CurveSamples))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLogLevel maps debug, info, warn or error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
