package model

import "math"

// CashFlowSeries is an ordered list of signed per-period amounts starting at period 0.
type CashFlowSeries []float64

// Len returns the number of periods including period 0.
func (s CashFlowSeries) Len() int { return len(s) }

// NPV discounts every entry by (1+rate)^i and sums them.
func (s CashFlowSeries) NPV(rate float64) float64 {
	npv := 0.0
	for i, cf := range s {
		npv += cf / math.Pow(1+rate, float64(i))
	}
	return npv
}

// Clone returns an independent copy.
func (s CashFlowSeries) Clone() CashFlowSeries {
	if s == nil {
		return nil
	}
	out := make(CashFlowSeries, len(s))
	copy(out, s)
	return out
}

// SolverOptions tunes the IRR root finder.
type SolverOptions struct {
	InitialGuess  float64 `json:"initial_guess" yaml:"initial_guess"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	Tolerance     float64 `json:"tolerance" yaml:"tolerance"`
}

// DefaultSolverOptions returns a 10% starting guess, 100 iterations and a 1e-6 tolerance.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{InitialGuess: 0.10, MaxIterations: 100, Tolerance: 1e-6}
}

// IRRResult is a converged internal rate of return.
type IRRResult struct {
	Rate       float64 `json:"irr"`
	Iterations int     `json:"iterations"`
}
