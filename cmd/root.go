package main

import (
	"log/slog"
	"os"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "curvefit",
	Short: "Fit curves through 2-D points",
	Long: `curvefit fits a least-squares line or an exact interpolating polynomial
(linear, quadratic, degree n, Lagrange) through a set of points, reports the
equation and its mean squared error, and can serve interactive sessions over HTTP.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// setupLogger installs a JSON handler on stderr; stdout carries command output.
// Unknown levels fall back to info.
func setupLogger(level string) {
	lvl, _ := config.ParseLogLevel(level)
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
