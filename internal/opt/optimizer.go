package opt

// Objective is a function to minimize over a parameter vector.
type Objective func(params []float64) float64

// Optimizer searches a box for the minimum of an objective.
type Optimizer interface {
	// Minimize returns the best parameters found inside [lower, upper] and
	// their objective value. lower and upper must have the same length.
	Minimize(f Objective, lower, upper []float64) ([]float64, float64, error)
}
