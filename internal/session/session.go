// Package session owns the mutable state behind a fit: one point set, the
// method selection, the latest report and the last evaluated point.
//
// A Session is not safe for concurrent use; Manager serializes access when
// sessions are shared across requests.
package session

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cwbudde/curvefit/internal/dataset"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/metrics"
)

// ErrCapacity is returned when adding a point the selected method cannot use.
var ErrCapacity = errors.New("method accepts no more points")

// Session is one user's working state. Every mutation refits immediately.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	points   *fit.PointSet
	config   fit.MethodConfig
	report   *fit.Report
	fitErr   error
	revision uint64
}

// New creates an empty session using cfg.
func New(id string, cfg fit.MethodConfig) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		points:    fit.NewPointSet(),
		config:    cfg,
	}
	s.refit()
	return s, nil
}

// Apply runs a point mutation. Add is refused with ErrCapacity once the
// selected method has all the points it can use. A failed mutation leaves
// the session unchanged.
func (s *Session) Apply(op Op) error {
	if _, ok := op.(Add); ok && !fit.RequirementFor(s.config).CanAdd(s.points.Len()) {
		return fmt.Errorf("add point: %w (%s %s)", ErrCapacity, s.config.Method, fit.RequirementFor(s.config).Hint())
	}
	if err := op.apply(s.points); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Import replaces the points with rows parsed from r. On failure the
// previous points are kept.
func (s *Session) Import(r io.Reader) (dataset.ImportStats, error) {
	points, stats, err := dataset.Import(r)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		return stats, err
	}
	if err := s.Apply(Replace{Points: points}); err != nil {
		metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		return stats, err
	}
	metrics.ImportsTotal.WithLabelValues("ok").Inc()
	return stats, nil
}

// SetMethod switches the method selection and refits. The requested degree
// is stored as given even when the fit has to lower it.
func (s *Session) SetMethod(cfg fit.MethodConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	s.config = cfg
	s.touch()
	return nil
}

// Config returns the method selection.
func (s *Session) Config() fit.MethodConfig {
	return s.config
}

// Points returns a sorted copy of the points.
func (s *Session) Points() []fit.Point {
	return s.points.Points()
}

// Revision increases with every successful change.
func (s *Session) Revision() uint64 {
	return s.revision
}

// Report returns the current fit or the reason there is none.
func (s *Session) Report() (*fit.Report, error) {
	return s.report, s.fitErr
}

// Evaluate computes the current model at x and remembers the result as the
// evaluation point. ok is false when there is no model or it is undefined at x.
func (s *Session) Evaluate(x float64) (y float64, ok bool) {
	y = fit.Evaluate(s.report, x)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return y, false
	}
	s.report.EvaluationPoint = &fit.Point{X: x, Y: y}
	return y, true
}

// Curve samples the current model over the padded data range.
func (s *Session) Curve(steps int) (fit.PlotRange, []fit.Point) {
	return fit.Curve(s.report, s.points.Points(), steps)
}

func (s *Session) touch() {
	s.revision++
	s.UpdatedAt = time.Now()
	s.refit()
}

// refit recomputes the report. The evaluation point is dropped with the old report.
func (s *Session) refit() {
	method := s.config.Method.String()
	start := time.Now()
	s.report, s.fitErr = fit.Fit(s.points.Points(), s.config)
	metrics.FitDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	outcome := "ok"
	var fitErr *fit.Error
	if errors.As(s.fitErr, &fitErr) {
		outcome = string(fitErr.Kind)
	}
	metrics.FitsTotal.WithLabelValues(method, outcome).Inc()
}

func validateConfig(cfg fit.MethodConfig) error {
	if _, err := cfg.Method.MarshalText(); err != nil {
		return err
	}
	if cfg.Method == fit.PolynomialInterp && cfg.Degree < 1 {
		return fit.ErrInvalidDegree
	}
	return nil
}
