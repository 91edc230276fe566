package calculator

import (
	"fmt"
	"math"

	"SmartRental/internal/model"
)

// NightsPerYear is the number of bookable nights the revenue model assumes.
const NightsPerYear = 365

// BuildParams are the raw inputs of the cash-flow builder.
type BuildParams struct {
	NightlyPrice       float64
	OccupancyRatio     float64
	OperatingCostRatio float64
	AnnualAdminCost    float64
	Horizon            int
	InitialOutlay      float64
	Terminal           model.TerminalPolicy
	StrictRanges       bool
}

// NetAnnualCashFlow returns price x 365 x occupancy x (1 - cost ratio) - admin cost.
func NetAnnualCashFlow(price, occupancy, costRatio, adminCost float64) float64 {
	gross := price * NightsPerYear * occupancy
	return gross*(1-costRatio) - adminCost
}

// Build turns a nightly price and assumptions into a signed annual series.
//
// Ratios outside [0,1] and negative costs are reported as warnings and the series
// is still built, unless StrictRanges is set, in which case the first one is
// returned as a *RangeError.
func Build(p BuildParams) (model.CashFlowSeries, []model.Warning, error) {
	if math.IsNaN(p.NightlyPrice) || math.IsInf(p.NightlyPrice, 0) || p.NightlyPrice <= 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPrice, p.NightlyPrice)
	}
	if p.Horizon < 1 {
		return nil, nil, fmt.Errorf("%w: %d periods", ErrInvalidHorizon, p.Horizon)
	}
	if !p.Terminal.Mode.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTerminalPolicy, p.Terminal.Mode)
	}

	var warnings []model.Warning
	for _, re := range checkRanges(p) {
		if p.StrictRanges {
			return nil, nil, re
		}
		warnings = append(warnings, re.Warning())
	}

	net := NetAnnualCashFlow(p.NightlyPrice, p.OccupancyRatio, p.OperatingCostRatio, p.AnnualAdminCost)

	n := p.Horizon + 1
	if p.Terminal.Mode == model.TerminalExtraPeriod {
		n++
	}
	series := make(model.CashFlowSeries, n)
	series[0] = -p.InitialOutlay
	for i := 1; i <= p.Horizon; i++ {
		series[i] = net
	}

	switch p.Terminal.Mode {
	case model.TerminalFinalPeriod:
		series[p.Horizon] += p.Terminal.Value
	case model.TerminalExtraPeriod:
		series[p.Horizon+1] = p.Terminal.Value
	}

	return series, warnings, nil
}

// BuildCashFlows builds the series for a price under the given assumptions and costs.
// ResaleAtCost in the terminal policy is resolved against costs first.
func BuildCashFlows(price float64, a model.EconomicAssumptions, c model.InvestmentCosts) (model.CashFlowSeries, []model.Warning, error) {
	return Build(BuildParams{
		NightlyPrice:       price,
		OccupancyRatio:     a.OccupancyRatio,
		OperatingCostRatio: a.OperatingCostRatio,
		AnnualAdminCost:    c.AnnualAdminCost,
		Horizon:            a.HorizonYears,
		InitialOutlay:      c.InitialOutlay(),
		Terminal:           a.Terminal.Resolve(c),
		StrictRanges:       a.StrictRanges,
	})
}

func checkRanges(p BuildParams) []*RangeError {
	var out []*RangeError
	ratio := func(field string, v float64) {
		if math.IsNaN(v) || v < 0 || v > 1 {
			out = append(out, &RangeError{Field: field, Value: v, Min: 0, Max: 1})
		}
	}
	nonNegative := func(field string, v float64) {
		if math.IsNaN(v) || v < 0 {
			out = append(out, &RangeError{Field: field, Value: v, Min: 0, Max: math.Inf(1)})
		}
	}
	ratio("occupancy_ratio", p.OccupancyRatio)
	ratio("operating_cost_ratio", p.OperatingCostRatio)
	nonNegative("initial_outlay", p.InitialOutlay)
	nonNegative("annual_admin_cost", p.AnnualAdminCost)
	return out
}
