package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/server"
	"github.com/cwbudde/curvefit/internal/session"
	"github.com/cwbudde/curvefit/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveAddr       string
	serveConfigPath string
	serveDataDir    string
	serveSessionTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the JSON API for interactive fitting sessions, with an SSE change
stream per session, a dataset store and Prometheus metrics on /metrics.

Settings come from built-in defaults, then the --config YAML file, then any
flag given explicitly.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "YAML config file")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for saved datasets")
	serveCmd.Flags().DurationVar(&serveSessionTTL, "session-ttl", 30*time.Minute, "Drop sessions idle for this long (0 = never)")
	rootCmd.AddCommand(serveCmd)
}

// resolveServeConfig layers explicitly set flags over the config file.
func resolveServeConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = serveAddr
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = serveDataDir
	}
	if flags.Changed("session-ttl") {
		cfg.SessionTTL = serveSessionTTL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveServeConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)

	datasets, err := store.NewFSStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to create dataset store: %w", err)
	}

	srv := server.NewServer(server.Options{
		Addr:         cfg.Addr,
		Sessions:     session.NewManager(cfg.SessionTTL, cfg.Method),
		Store:        datasets,
		CurveSamples: cfg.CurveSamples,
	})

	slog.Info("Server configured",
		"addr", cfg.Addr,
		"data_dir", cfg.DataDir,
		"session_ttl", cfg.SessionTTL,
		"default_method", cfg.Method.String(),
		"curve_samples", cfg.CurveSamples,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
