// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "curvefit"

var (
	// FitsTotal counts fits by method and outcome ("ok" or an error kind).
	FitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Number of fits computed, by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	FitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Time spent computing a fit.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"method"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live sessions.",
		},
	)

	// ImportsTotal counts bulk imports by outcome ("ok" or "rejected").
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Number of bulk point imports, by outcome.",
		},
		[]string{"outcome"},
	)
)
