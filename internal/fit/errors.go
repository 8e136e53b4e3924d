package fit

import "fmt"

// ErrorKind classifies why a point mutation or a fit could not be completed.
type ErrorKind string

const (
	KindInsufficientPoints   ErrorKind = "insufficient_points"
	KindDegenerateFit        ErrorKind = "degenerate_fit"
	KindSingularSystem       ErrorKind = "singular_system"
	KindInvalidIndex         ErrorKind = "invalid_index"
	KindInvalidPoint         ErrorKind = "invalid_point"
	KindInvalidDegree        ErrorKind = "invalid_degree"
	KindOverdeterminedSystem ErrorKind = "overdetermined_system"
	KindUnknownMethod        ErrorKind = "unknown_method"
)

// Error is the tagged failure returned by the engine. All kinds are
// recoverable: the caller decides how to present them.
//
// Use errors.Is(err, ErrDegenerateFit) and friends to test for a kind, or
// errors.As to get at Op and Detail.
type Error struct {
	Kind   ErrorKind
	Op     string // operation that failed, e.g. "regression", "edit"
	Detail string
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInsufficientPoints   = &Error{Kind: KindInsufficientPoints}
	ErrDegenerateFit        = &Error{Kind: KindDegenerateFit}
	ErrSingularSystem       = &Error{Kind: KindSingularSystem}
	ErrInvalidIndex         = &Error{Kind: KindInvalidIndex}
	ErrInvalidPoint         = &Error{Kind: KindInvalidPoint}
	ErrInvalidDegree        = &Error{Kind: KindInvalidDegree}
	ErrOverdeterminedSystem = &Error{Kind: KindOverdeterminedSystem}
	ErrUnknownMethod        = &Error{Kind: KindUnknownMethod}
)

func newError(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func insufficient(op string, need, have int) *Error {
	return newError(KindInsufficientPoints, op, "need %d points, have %d", need, have)
}
