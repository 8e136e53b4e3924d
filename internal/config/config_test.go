package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curvefit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
addr: "127.0.0.1:9000"
session_ttl: 5m
method:
  method: polynomial
  degree: 4
curve_samples: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, fit.MethodConfig{Method: fit.PolynomialInterp, Degree: 4}, cfg.Method)
	assert.Equal(t, 50, cfg.CurveSamples)
	assert.Equal(t, Default().DataDir, cfg.DataDir, "unset keys keep defaults")
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "port: 80\n", "port"},
		{"unknown method", "method:\n  method: spline\n", "unknown_method"},
		{"bad samples", "curve_samples: 0\n", "curve_samples"},
		{"negative ttl", "session_ttl: -1s\n", "session_ttl"},
		{"bad log level", "log_level: loud\n", "log level"},
		{"bad degree", "method:\n  method: polynomial\n  degree: 0\n", "degree"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_KeepsUnsetFields(t *testing.T) {
	cfg := Default()
	cfg.Addr = ":1"
	require.NoError(t, Decode(strings.NewReader("log_level: debug\n"), &cfg))
	assert.Equal(t, ":1", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("trace")
	assert.Error(t, err)
}
