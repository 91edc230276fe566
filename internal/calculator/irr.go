package calculator

import (
	"math"

	"SmartRental/internal/model"
)

const (
	// derivativeEpsilon is the slope below which a Newton step is refused.
	derivativeEpsilon = 1e-12
	// stallEpsilon is the relative update below which the estimate can no longer move.
	stallEpsilon = 1e-14
)

// NPVAndDerivative evaluates NPV(r) and dNPV/dr for the series.
func NPVAndDerivative(cf model.CashFlowSeries, rate float64) (npv, slope float64) {
	base := 1 + rate
	for i, c := range cf {
		t := float64(i)
		disc := math.Pow(base, t)
		npv += c / disc
		if i > 0 {
			slope -= t * c / (disc * base)
		}
	}
	return npv, slope
}

// Solve finds the rate r with NPV(r) = 0 using Newton's method from opts.InitialGuess.
//
// It stops when |NPV(r)| < Tolerance. A step that would reach r <= -1 is
// replaced by halving the distance between r and -1, so a series with a single
// sign change always stays in the domain where its root lies. When float
// precision stops the estimate from moving before the absolute tolerance is
// met, which only happens for very large series, the estimate is accepted if
// |NPV(r)| <= Tolerance * max(1, sum|cf|).
//
// Every failure is a *SolveError; the last estimate of a failed run is never
// returned as a rate.
func Solve(cf model.CashFlowSeries, opts model.SolverOptions) (model.IRRResult, error) {
	if len(cf) < 2 {
		return model.IRRResult{}, newSolveError(ErrComputationFailure, 0, cf, "need at least 2 periods, got %d", len(cf))
	}
	if opts.MaxIterations < 1 {
		return model.IRRResult{}, newSolveError(ErrComputationFailure, 0, cf, "max iterations must be positive, got %d", opts.MaxIterations)
	}
	if !(opts.Tolerance > 0) || math.IsInf(opts.Tolerance, 0) {
		return model.IRRResult{}, newSolveError(ErrComputationFailure, 0, cf, "tolerance must be positive, got %v", opts.Tolerance)
	}
	if !finite(opts.InitialGuess) || opts.InitialGuess <= -1 {
		return model.IRRResult{}, newSolveError(ErrComputationFailure, 0, cf, "initial guess %v outside (-1, inf)", opts.InitialGuess)
	}

	var pos, neg int
	scale := 0.0
	for i, c := range cf {
		if !finite(c) {
			return model.IRRResult{}, newSolveError(ErrComputationFailure, 0, cf, "period %d is %v", i, c)
		}
		switch {
		case c > 0:
			pos++
		case c < 0:
			neg++
		}
		scale += math.Abs(c)
	}
	// A single sign over the non-zero flows has no real root.
	if (pos == 0) != (neg == 0) {
		return model.IRRResult{}, newSolveError(ErrNoConvergence, 0, cf, "cash flows never change sign")
	}
	scale = math.Max(scale, 1)

	rate := opts.InitialGuess
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		npv, slope := NPVAndDerivative(cf, rate)
		if !finite(npv) || !finite(slope) {
			return model.IRRResult{}, newSolveError(ErrComputationFailure, iter, cf, "npv=%v slope=%v at rate %v", npv, slope, rate)
		}
		if math.Abs(slope) < derivativeEpsilon {
			return model.IRRResult{}, newSolveError(ErrDegenerateDerivative, iter, cf, "slope %v at rate %v", slope, rate)
		}
		if math.Abs(npv) < opts.Tolerance {
			return model.IRRResult{Rate: rate, Iterations: iter}, nil
		}

		step := npv / slope
		next := rate - step
		if !finite(next) || next <= -1 {
			// Halve the distance to -100% instead of leaving the domain.
			next = (rate - 1) / 2
		} else if math.Abs(next-rate) <= stallEpsilon*math.Max(1, math.Abs(rate)) {
			// Float precision is exhausted; fall back to a bound relative to the series size.
			residual, _ := NPVAndDerivative(cf, next)
			if math.Abs(residual) > opts.Tolerance*scale {
				return model.IRRResult{}, newSolveError(ErrNoConvergence, iter, cf, "stalled at residual %v", residual)
			}
			return model.IRRResult{Rate: next, Iterations: iter}, nil
		}
		rate = next
	}
	return model.IRRResult{}, newSolveError(ErrNoConvergence, opts.MaxIterations, cf, "iteration limit reached")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
