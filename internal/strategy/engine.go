package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SmartRental/internal/calculator"
	"SmartRental/internal/model"
	"SmartRental/internal/oracle"
)

// Oracle failure kinds, kept apart from the solver's.
const (
	KindModelUnavailable  = "ModelUnavailable"
	KindPredictionFailure = "PredictionFailure"
)

// Ratings maps the IRR margin over the target rate to a label, highest first.
var Ratings = []struct {
	MinMargin float64
	Label     string
}{
	{0.05, "strong"},
	{0.02, "favorable"},
	{0.0, "marginal"},
	{-0.03, "below target"},
}

// DefaultRating is the label for margins below every threshold.
const DefaultRating = "poor"

// mapRating labels a margin; thresholds are exclusive.
func mapRating(margin float64) string {
	for _, r := range Ratings {
		if margin > r.MinMargin {
			return r.Label
		}
	}
	return DefaultRating
}

// Decide applies the profitability policy: favorable only when the rate
// strictly exceeds the target.
func Decide(irr, target float64) model.Verdict {
	if irr > target {
		return model.VerdictFavorable
	}
	return model.VerdictUnfavorable
}

// Request is one property to evaluate.
type Request struct {
	Name string
	// NightlyPrice is used as given unless it is zero and Features are set, in
	// which case the oracle is asked.
	NightlyPrice float64
	Features     *model.PropertyFeatures
	Assumptions  model.EconomicAssumptions
	Costs        model.InvestmentCosts
}

// Engine runs oracle, cash-flow builder and IRR solver for a request. It holds
// no state between evaluations.
type Engine struct {
	Oracle oracle.Oracle
	Solver model.SolverOptions
	Now    func() time.Time
}

// NewEngine creates an Engine; o may be nil when prices are always supplied.
func NewEngine(o oracle.Oracle, solver model.SolverOptions) *Engine {
	return &Engine{Oracle: o, Solver: solver, Now: time.Now}
}

// Evaluate always returns an evaluation. The error is non-nil only when the
// price oracle failed; build and solve failures are reported on the
// evaluation with an undetermined verdict.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*model.Evaluation, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ev := &model.Evaluation{
		ID:           uuid.NewString(),
		Name:         req.Name,
		EvaluatedAt:  now(),
		Features:     req.Features,
		NightlyPrice: req.NightlyPrice,
		PriceSource:  model.PriceSourceInput,
		Assumptions:  req.Assumptions,
		Costs:        req.Costs,
		Verdict:      model.VerdictUndetermined,
	}
	log := zap.L().With(zap.String("evaluation_id", ev.ID), zap.String("name", req.Name))

	if req.NightlyPrice == 0 && req.Features != nil && e.Oracle != nil {
		ev.PriceSource = model.PriceSourceOracle
		ev.OracleName = e.Oracle.Name()
		price, err := e.Oracle.Predict(ctx, *req.Features)
		if err != nil {
			ev.FailureKind = oracleFailureKind(err)
			ev.FailureMessage = err.Error()
			log.Warn("price oracle failed", zap.String("oracle", ev.OracleName), zap.Error(err))
			return ev, err
		}
		ev.NightlyPrice = price
	}

	series, warnings, err := calculator.BuildCashFlows(ev.NightlyPrice, req.Assumptions, req.Costs)
	ev.Warnings = warnings
	for _, w := range warnings {
		log.Warn("assumption out of range", zap.String("field", w.Field), zap.Float64("value", w.Value))
	}
	if err != nil {
		e.fail(ev, err)
		log.Info("cash flows not built", zap.String("kind", ev.FailureKind), zap.Error(err))
		return ev, nil
	}
	ev.CashFlows = series

	npv := series.NPV(req.Assumptions.TargetRate)
	ev.NPVAtTarget = &npv

	res, err := calculator.Solve(series, e.Solver)
	if err != nil {
		e.fail(ev, err)
		log.Info("irr not found", zap.String("kind", ev.FailureKind), zap.Error(err))
		return ev, nil
	}

	rate := res.Rate
	margin := rate - req.Assumptions.TargetRate
	ev.IRR = &rate
	ev.Iterations = res.Iterations
	ev.Margin = &margin
	ev.Verdict = Decide(rate, req.Assumptions.TargetRate)
	ev.Rating = mapRating(margin)

	log.Info("evaluation complete",
		zap.Float64("nightly_price", ev.NightlyPrice),
		zap.Float64("irr", rate),
		zap.Float64("target_rate", req.Assumptions.TargetRate),
		zap.String("verdict", string(ev.Verdict)),
	)
	return ev, nil
}

func (e *Engine) fail(ev *model.Evaluation, err error) {
	ev.FailureKind = calculator.FailureKind(err)
	if ev.FailureKind == "" {
		ev.FailureKind = calculator.KindComputationFailure
	}
	ev.FailureMessage = err.Error()
	ev.Verdict = model.VerdictUndetermined
}

func oracleFailureKind(err error) string {
	if errors.Is(err, oracle.ErrPredictionFailure) {
		return KindPredictionFailure
	}
	return KindModelUnavailable
}
