package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// Mayfly wraps the mayfly swarm optimizer.
//
// The library takes one scalar bound for every dimension, so the search runs
// in the unit cube and each coordinate is mapped onto its own [lower, upper].
type Mayfly struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a Mayfly optimizer. popSize must be at least 20.
func NewMayfly(maxIters, popSize int, seed int64) *Mayfly {
	return &Mayfly{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Minimize implements Optimizer.
func (m *Mayfly) Minimize(f Objective, lower, upper []float64) ([]float64, float64, error) {
	dim := len(lower)
	if dim == 0 || len(upper) != dim {
		return nil, 0, fmt.Errorf("mayfly: bounds of length %d and %d", len(lower), len(upper))
	}

	scale := func(unit []float64) []float64 {
		params := make([]float64, dim)
		for i, u := range unit {
			params[i] = lower[i] + u*(upper[i]-lower[i])
		}
		return params
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(unit []float64) float64 { return f(scale(unit)) }
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly: %w", err)
	}

	return scale(result.GlobalBest.Position), result.GlobalBest.Cost, nil
}
