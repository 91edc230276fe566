package calculator

import (
	"errors"
	"fmt"

	"SmartRental/internal/model"
)

var (
	ErrInvalidPrice          = errors.New("invalid nightly price")
	ErrInvalidHorizon        = errors.New("invalid horizon")
	ErrOutOfRangeAssumption  = errors.New("assumption out of range")
	ErrNoConvergence         = errors.New("irr did not converge")
	ErrDegenerateDerivative  = errors.New("npv derivative is zero")
	ErrComputationFailure    = errors.New("irr computation failed")
	ErrUnknownTerminalPolicy = errors.New("unknown terminal policy")
)

// RangeError describes an assumption outside its expected domain.
type RangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s=%g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRangeAssumption }

// Warning converts the error into the non-fatal form carried by evaluations.
func (e *RangeError) Warning() model.Warning {
	return model.Warning{
		Kind:    KindOutOfRangeAssumption,
		Field:   e.Field,
		Value:   e.Value,
		Message: e.Error(),
	}
}

// SolveError is returned by Solve for every failure. Kind is one of
// ErrNoConvergence, ErrDegenerateDerivative or ErrComputationFailure.
type SolveError struct {
	Kind       error
	Iterations int
	Detail     string
	CashFlows  model.CashFlowSeries
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%v after %d iterations: %s (cash flows %v)", e.Kind, e.Iterations, e.Detail, []float64(e.CashFlows))
}

func (e *SolveError) Unwrap() error { return e.Kind }

func newSolveError(kind error, iter int, cf model.CashFlowSeries, format string, args ...any) *SolveError {
	return &SolveError{
		Kind:       kind,
		Iterations: iter,
		Detail:     fmt.Sprintf(format, args...),
		CashFlows:  cf.Clone(),
	}
}

// Failure kind names as reported to callers and stored in history.
const (
	KindInvalidPrice          = "InvalidPrice"
	KindInvalidHorizon        = "InvalidHorizon"
	KindOutOfRangeAssumption  = "OutOfRangeAssumption"
	KindNoConvergence         = "NoConvergence"
	KindDegenerateDerivative  = "DegenerateDerivative"
	KindComputationFailure    = "ComputationFailure"
	KindUnknownTerminalPolicy = "UnknownTerminalPolicy"
)

// FailureKind maps an error from this package to its kind name, or "" if it is not one of ours.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPrice):
		return KindInvalidPrice
	case errors.Is(err, ErrInvalidHorizon):
		return KindInvalidHorizon
	case errors.Is(err, ErrOutOfRangeAssumption):
		return KindOutOfRangeAssumption
	case errors.Is(err, ErrNoConvergence):
		return KindNoConvergence
	case errors.Is(err, ErrDegenerateDerivative):
		return KindDegenerateDerivative
	case errors.Is(err, ErrComputationFailure):
		return KindComputationFailure
	case errors.Is(err, ErrUnknownTerminalPolicy):
		return KindUnknownTerminalPolicy
	}
	return ""
}
