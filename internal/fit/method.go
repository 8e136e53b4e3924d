package fit

import (
	"fmt"
	"strings"
)

// Method selects the fitter. The set is closed; Fit handles every value.
type Method int

const (
	OrdinaryRegression Method = iota + 1
	LinearInterp
	QuadraticInterp
	PolynomialInterp
	LagrangeInterp
)

// Methods lists every method in display order.
var Methods = []Method{OrdinaryRegression, LinearInterp, QuadraticInterp, PolynomialInterp, LagrangeInterp}

var methodNames = map[Method]string{
	OrdinaryRegression: "regression",
	LinearInterp:       "linear",
	QuadraticInterp:    "quadratic",
	PolynomialInterp:   "polynomial",
	LagrangeInterp:     "lagrange",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps a method name (case-insensitive) to its Method.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return 0, newError(KindUnknownMethod, "parse", "%q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	name, ok := methodNames[m]
	if !ok {
		return nil, newError(KindUnknownMethod, "marshal", "%d", int(m))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MethodConfig is a method selection. Degree is only read for PolynomialInterp.
type MethodConfig struct {
	Method Method `json:"method" yaml:"method"`
	Degree int    `json:"degree,omitempty" yaml:"degree,omitempty"`
}

// DefaultMethodConfig returns a regression selection with degree 2 preset
// for when the caller switches to polynomial interpolation.
func DefaultMethodConfig() MethodConfig {
	return MethodConfig{Method: OrdinaryRegression, Degree: 2}
}

func (c MethodConfig) String() string {
	if c.Method == PolynomialInterp {
		return fmt.Sprintf("%s(degree=%d)", c.Method, c.Degree)
	}
	return c.Method.String()
}

// Requirement is the point count a method accepts. Max is 0 when unbounded.
type Requirement struct {
	Min int `json:"min"`
	Max int `json:"max,omitempty"`
}

// RequirementFor returns how many points cfg needs and how many a caller
// should allow to be added one by one. Linear and quadratic interpolation
// only ever use their first 2 or 3 points.
func RequirementFor(cfg MethodConfig) Requirement {
	switch cfg.Method {
	case LinearInterp:
		return Requirement{Min: 2, Max: 2}
	case QuadraticInterp:
		return Requirement{Min: 3, Max: 3}
	case PolynomialInterp:
		return Requirement{Min: max(cfg.Degree, 1) + 1}
	default:
		return Requirement{Min: 2}
	}
}

// CanAdd reports whether another point may be added to a set of n points.
func (r Requirement) CanAdd(n int) bool {
	return r.Max == 0 || n < r.Max
}

// Hint is a short user-facing description of the requirement.
func (r Requirement) Hint() string {
	switch {
	case r.Max != 0 && r.Max == r.Min:
		return fmt.Sprintf("needs exactly %d points", r.Min)
	default:
		return fmt.Sprintf("needs at least %d points", r.Min)
	}
}
