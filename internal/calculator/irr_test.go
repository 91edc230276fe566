package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartRental/internal/model"
)

func repeat(outlay, flow float64, n int) model.CashFlowSeries {
	s := make(model.CashFlowSeries, n+1)
	s[0] = -outlay
	for i := 1; i <= n; i++ {
		s[i] = flow
	}
	return s
}

func TestSolve_SingleSignChangeConverges(t *testing.T) {
	t.Parallel()

	opts := model.DefaultSolverOptions()
	tests := []struct {
		name string
		cf   model.CashFlowSeries
		want float64
	}{
		{"one period", model.CashFlowSeries{-100, 110}, 0.10},
		{"two periods", model.CashFlowSeries{-100, 60, 60}, 0.130662386},
		{"explicit ten year series", repeat(170000, 36792.5, 10), 0.172263554},
		{"price derived series", repeat(170000, 26859.4375, 10), 0.093163732},
		{"low price series", repeat(170000, 6387.5, 10), -0.147283735},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Solve(tt.cf, opts)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Rate, 1e-8)
			assert.Less(t, math.Abs(tt.cf.NPV(res.Rate)), opts.Tolerance)
			assert.Positive(t, res.Iterations)
		})
	}
}

func TestSolve_DeeplyNegativeRatesStayInDomain(t *testing.T) {
	t.Parallel()

	opts := model.DefaultSolverOptions()
	tests := []struct {
		name string
		cf   model.CashFlowSeries
		want float64
	}{
		{"price 30", repeat(170000, NetAnnualCashFlow(30, 0.7, 0.5, 0), 10), -0.207157510},
		{"price 10", repeat(170000, NetAnnualCashFlow(10, 0.7, 0.5, 0), 10), -0.312899988},
		{"price 1", repeat(170000, NetAnnualCashFlow(1, 0.7, 0.5, 0), 10), -0.475415747},
		{"ninety nine percent loss", model.CashFlowSeries{-100, 1}, -0.99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Solve(tt.cf, opts)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Rate, 1e-6)
			assert.Greater(t, res.Rate, -1.0)
			assert.Less(t, math.Abs(tt.cf.NPV(res.Rate)), opts.Tolerance)
		})
	}
}

func TestSolve_LargeSeriesUsesRelativeBound(t *testing.T) {
	t.Parallel()

	// NPV cannot reach 1e-6 at this magnitude in float64.
	cf := repeat(1e12, 1.5e11, 10)
	opts := model.DefaultSolverOptions()
	res, err := Solve(cf, opts)
	require.NoError(t, err)
	assert.InDelta(t, 0.081441656, res.Rate, 1e-8)
	assert.LessOrEqual(t, math.Abs(cf.NPV(res.Rate)), opts.Tolerance*2.5e12)
}

func TestSolve_ResaleSeries(t *testing.T) {
	t.Parallel()

	net := 26859.4375
	final := repeat(170000, net, 10)
	final[10] += 150000
	res, err := Solve(final, model.DefaultSolverOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.152266131, res.Rate, 1e-6)

	extra := append(repeat(170000, net, 10), 150000)
	res, err = Solve(extra, model.DefaultSolverOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.146452678, res.Rate, 1e-6)
}

func TestSolve_NoSignChange(t *testing.T) {
	t.Parallel()

	series := []model.CashFlowSeries{
		{-170000, -100, -100, -100},
		{-1, 0, 0},
		{100, 200, 300},
		{0, 5, 5},
	}
	for _, cf := range series {
		res, err := Solve(cf, model.DefaultSolverOptions())
		require.ErrorIs(t, err, ErrNoConvergence, "%v", cf)
		assert.Zero(t, res.Rate)
		assert.Equal(t, KindNoConvergence, FailureKind(err))
	}
}

func TestSolve_IterationLimit(t *testing.T) {
	t.Parallel()

	opts := model.DefaultSolverOptions()
	opts.MaxIterations = 3
	_, err := Solve(repeat(170000, 6387.5, 10), opts)
	require.ErrorIs(t, err, ErrNoConvergence)

	var se *SolveError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.Iterations)
	assert.Len(t, se.CashFlows, 11)
}

func TestSolve_DegenerateDerivative(t *testing.T) {
	t.Parallel()

	cf := make(model.CashFlowSeries, 11)
	_, err := Solve(cf, model.DefaultSolverOptions())
	require.ErrorIs(t, err, ErrDegenerateDerivative)
	assert.Equal(t, KindDegenerateDerivative, FailureKind(err))
}

func TestSolve_ComputationFailure(t *testing.T) {
	t.Parallel()

	good := model.DefaultSolverOptions()
	tests := []struct {
		name string
		cf   model.CashFlowSeries
		opts model.SolverOptions
	}{
		{"empty", nil, good},
		{"single period", model.CashFlowSeries{-100}, good},
		{"nan entry", model.CashFlowSeries{-100, math.NaN(), 50}, good},
		{"inf entry", model.CashFlowSeries{-100, math.Inf(1)}, good},
		{"overflow", model.CashFlowSeries{-1e308, 1e308, 1e308}, good},
		{"zero iterations", model.CashFlowSeries{-100, 110}, model.SolverOptions{InitialGuess: 0.1, Tolerance: 1e-6}},
		{"zero tolerance", model.CashFlowSeries{-100, 110}, model.SolverOptions{InitialGuess: 0.1, MaxIterations: 10}},
		{"guess at -100%", model.CashFlowSeries{-100, 110}, model.SolverOptions{InitialGuess: -1, MaxIterations: 10, Tolerance: 1e-6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Solve(tt.cf, tt.opts)
			require.ErrorIs(t, err, ErrComputationFailure)
			var se *SolveError
			require.True(t, errors.As(err, &se))
			assert.NotEmpty(t, se.Detail)
		})
	}
}

func TestSolve_Idempotent(t *testing.T) {
	t.Parallel()

	cf := repeat(170000, 36792.5, 10)
	opts := model.DefaultSolverOptions()
	first, err1 := Solve(cf, opts)
	second, err2 := Solve(cf, opts)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)

	bad := model.CashFlowSeries{-1, -1}
	_, err1 = Solve(bad, opts)
	_, err2 = Solve(bad, opts)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestSolve_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	cf := model.CashFlowSeries{-1, -1, -1}
	_, err := Solve(cf, model.DefaultSolverOptions())
	var se *SolveError
	require.True(t, errors.As(err, &se))
	se.CashFlows[0] = 42
	assert.Equal(t, -1.0, cf[0])
}

func TestSolve_InitialGuessInsensitive(t *testing.T) {
	t.Parallel()

	cf := repeat(170000, 36792.5, 10)
	for _, g := range []float64{0, 0.1, 0.5} {
		opts := model.DefaultSolverOptions()
		opts.InitialGuess = g
		res, err := Solve(cf, opts)
		require.NoError(t, err)
		assert.InDelta(t, 0.172263554, res.Rate, 1e-8)
	}
}

func TestNPVAndDerivative(t *testing.T) {
	t.Parallel()

	cf := model.CashFlowSeries{-100, 60, 60}
	npv, slope := NPVAndDerivative(cf, 0)
	assert.InDelta(t, 20, npv, 1e-12)
	assert.InDelta(t, -180, slope, 1e-12)
	assert.InDelta(t, cf.NPV(0.05), func() float64 { v, _ := NPVAndDerivative(cf, 0.05); return v }(), 1e-12)
}
