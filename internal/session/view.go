package session

import (
	"errors"
	"time"

	"github.com/cwbudde/curvefit/internal/fit"
)

// View is a JSON-safe snapshot of a session.
type View struct {
	ID          string           `json:"id"`
	Revision    uint64           `json:"revision"`
	Config      fit.MethodConfig `json:"config"`
	Requirement fit.Requirement  `json:"requirement"`
	CanAdd      bool             `json:"canAdd"`
	Points      []fit.Point      `json:"points"`
	Report      *ReportView      `json:"report,omitempty"`
	FitError    *ErrorView       `json:"fitError,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ReportView flattens a fit.Report. Exactly one of Regression, Polynomial
// and Lagrange is set.
type ReportView struct {
	Method          fit.Method      `json:"method"`
	RequestedDegree int             `json:"requestedDegree"`
	Degree          int             `json:"degree"`
	Equation        string          `json:"equation"`
	MSE             float64         `json:"mse"`
	PerfectFit      bool            `json:"perfectFit"`
	PointsUsed      int             `json:"pointsUsed"`
	EvaluationPoint *fit.Point      `json:"evaluationPoint,omitempty"`
	Regression      *fit.Regression `json:"regression,omitempty"`
	Polynomial      *fit.Polynomial `json:"polynomial,omitempty"`
	Lagrange        *fit.Lagrange   `json:"lagrange,omitempty"`
}

// ErrorView describes why a session has no model.
type ErrorView struct {
	Kind    fit.ErrorKind `json:"kind"`
	Message string        `json:"message"`
}

// Summary is the short listing form of a session.
type Summary struct {
	ID        string           `json:"id"`
	Config    fit.MethodConfig `json:"config"`
	Points    int              `json:"points"`
	MSE       *float64         `json:"mse,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Snapshot returns the current state as a View.
func (s *Session) Snapshot() View {
	req := fit.RequirementFor(s.config)
	v := View{
		ID:          s.ID,
		Revision:    s.revision,
		Config:      s.config,
		Requirement: req,
		CanAdd:      req.CanAdd(s.points.Len()),
		Points:      s.points.Points(),
		Report:      NewReportView(s.report),
		FitError:    NewErrorView(s.fitErr),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if v.Points == nil {
		v.Points = []fit.Point{}
	}
	return v
}

// Summarize returns the listing form of the session.
func (s *Session) Summarize() Summary {
	sum := Summary{
		ID:        s.ID,
		Config:    s.config,
		Points:    s.points.Len(),
		UpdatedAt: s.UpdatedAt,
	}
	if s.report != nil {
		mse := s.report.MSE
		sum.MSE = &mse
	}
	return sum
}

// NewReportView converts a report; nil stays nil.
func NewReportView(r *fit.Report) *ReportView {
	if r == nil || r.Model == nil {
		return nil
	}
	v := &ReportView{
		Method:          r.Config.Method,
		RequestedDegree: r.RequestedDegree,
		Degree:          r.Degree,
		Equation:        r.Model.Equation(),
		MSE:             r.MSE,
		PerfectFit:      r.PerfectFit,
		PointsUsed:      r.PointsUsed,
		EvaluationPoint: r.EvaluationPoint,
	}
	switch m := r.Model.(type) {
	case *fit.Regression:
		v.Regression = m
	case *fit.Polynomial:
		v.Polynomial = m
	case *fit.Lagrange:
		v.Lagrange = m
	}
	return v
}

// NewErrorView converts a fit failure; nil stays nil.
func NewErrorView(err error) *ErrorView {
	if err == nil {
		return nil
	}
	v := &ErrorView{Message: err.Error()}
	var fitErr *fit.Error
	if errors.As(err, &fitErr) {
		v.Kind = fitErr.Kind
	}
	return v
}
