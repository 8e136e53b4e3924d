package store

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/cwbudde/curvefit/internal/fit"
)

// maxNameLength bounds dataset names so they stay usable as directory names.
const maxNameLength = 64

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Dataset is a saved point list and the method chosen for it.
type Dataset struct {
	Name      string           `json:"name"`
	Points    []fit.Point      `json:"points"`
	Config    fit.MethodConfig `json:"config"`
	Timestamp time.Time        `json:"timestamp"`
}

// DatasetInfo is the listing form of a dataset, without its points.
type DatasetInfo struct {
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDataset stamps a dataset with the current time.
func NewDataset(name string, points []fit.Point, cfg fit.MethodConfig) *Dataset {
	return &Dataset{
		Name:      name,
		Points:    points,
		Config:    cfg,
		Timestamp: time.Now(),
	}
}

// ToInfo converts a Dataset to its metadata.
func (d *Dataset) ToInfo() DatasetInfo {
	return DatasetInfo{
		Name:      d.Name,
		Points:    len(d.Points),
		Method:    d.Config.String(),
		Timestamp: d.Timestamp,
	}
}

// Validate checks that the dataset can be saved and fitted again later.
func (d *Dataset) Validate() error {
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if len(d.Points) == 0 {
		return &ValidationError{Field: "Points", Reason: "cannot be empty"}
	}
	for i, p := range d.Points {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return &ValidationError{Field: fmt.Sprintf("Points[%d]", i), Reason: "must be finite"}
		}
	}
	if _, err := d.Config.Method.MarshalText(); err != nil {
		return &ValidationError{Field: "Config.Method", Reason: "unknown method"}
	}
	if d.Config.Method == fit.PolynomialInterp && d.Config.Degree < 1 {
		return &ValidationError{Field: "Config.Degree", Reason: "must be positive"}
	}
	if d.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidateName checks that name is a usable dataset name: letters, digits,
// dot, dash and underscore, not starting with a dot or dash.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "Name", Reason: "cannot be empty"}
	}
	if len(name) > maxNameLength {
		return &ValidationError{Field: "Name", Reason: fmt.Sprintf("longer than %d characters", maxNameLength)}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Field: "Name", Reason: "may only contain letters, digits, '.', '-' and '_'"}
	}
	return nil
}

// ValidationError represents an invalid dataset.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
