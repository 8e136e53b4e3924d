package fit

import "math"

// Report is the full outcome of one successful fit.
type Report struct {
	Config          MethodConfig `json:"config"`
	RequestedDegree int          `json:"requestedDegree"`
	Degree          int          `json:"degree"`
	Model           Model        `json:"model"`
	MSE             float64      `json:"mse"`
	PointsUsed      int          `json:"pointsUsed"`
	PerfectFit      bool         `json:"perfectFit"`
	// EvaluationPoint is the last point evaluated by the owning session, if any.
	EvaluationPoint *Point `json:"evaluationPoint,omitempty"`
}

// Evaluator returns the report's model as a function of x.
func (r *Report) Evaluator() Evaluator {
	if r == nil {
		return Undefined
	}
	return EvaluatorOf(r.Model)
}

// Evaluate returns the value of the report's model at x, or NaN when the
// report is nil or the model is undefined there.
func Evaluate(r *Report, x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	return r.Evaluator()(x)
}

// Fit dispatches points to the fitter selected by cfg and scores the model
// against every point. points must be sorted by x (PointSet.Points is).
//
// Linear and quadratic interpolation use the first 2 or 3 points. Polynomial
// interpolation uses all points; a degree above the point count is lowered
// to n−1 so the Vandermonde system stays square.
func Fit(points []Point, cfg MethodConfig) (*Report, error) {
	n := len(points)
	report := &Report{Config: cfg}

	var (
		model Model
		used  []Point
		err   error
	)

	switch cfg.Method {
	case OrdinaryRegression:
		used = points
		model, err = asModel(FitRegression(used))

	case LinearInterp:
		if n < 2 {
			return nil, insufficient("linear", 2, n)
		}
		used = points[:2]
		model, err = asModel(FitPolynomial(used, 1))

	case QuadraticInterp:
		if n < 3 {
			return nil, insufficient("quadratic", 3, n)
		}
		used = points[:3]
		model, err = asModel(FitPolynomial(used, 2))

	case PolynomialInterp:
		degree := cfg.Degree
		if degree < 1 {
			return nil, newError(KindInvalidDegree, "polynomial", "degree %d", degree)
		}
		if n < 2 {
			return nil, insufficient("polynomial", degree+1, n)
		}
		if degree > n {
			degree = n - 1
		}
		report.RequestedDegree = cfg.Degree
		used = points
		model, err = asModel(FitPolynomial(used, degree))

	case LagrangeInterp:
		used = points
		model, err = asModel(FitLagrange(used))

	default:
		return nil, newError(KindUnknownMethod, "fit", "%v", cfg.Method)
	}

	if err != nil {
		return nil, err
	}

	report.Model = model
	report.Degree = model.Degree()
	if report.RequestedDegree == 0 {
		report.RequestedDegree = report.Degree
	}
	report.PointsUsed = len(used)
	report.MSE = MSE(points, model.Eval)
	if !finite(report.MSE) {
		return nil, newError(KindDegenerateFit, "fit", "%s error overflows", cfg.Method)
	}
	report.PerfectFit = report.MSE < perfectFitThreshold
	return report, nil
}

// asModel turns a typed fitter result into a Model without letting a typed
// nil pointer escape as a non-nil interface.
func asModel[M Model](m M, err error) (Model, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
