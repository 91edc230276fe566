package model

// TerminalMode selects how a terminal adjustment (e.g. resale value) enters the series.
type TerminalMode string

const (
	// TerminalNone appends nothing; the series is [-outlay, net x horizon].
	TerminalNone TerminalMode = "none"
	// TerminalFinalPeriod adds the adjustment to the last operating year.
	TerminalFinalPeriod TerminalMode = "final_period"
	// TerminalExtraPeriod appends the adjustment as its own period after the horizon.
	TerminalExtraPeriod TerminalMode = "extra_period"
)

// Valid reports whether m is a known mode. The empty mode is treated as TerminalNone.
func (m TerminalMode) Valid() bool {
	switch m {
	case "", TerminalNone, TerminalFinalPeriod, TerminalExtraPeriod:
		return true
	}
	return false
}

// TerminalPolicy is the explicit horizon-end policy of a cash-flow series.
type TerminalPolicy struct {
	Mode  TerminalMode `json:"mode" yaml:"mode"`
	Value float64      `json:"value" yaml:"value"`
	// ResaleAtCost replaces Value with the property cost when the policy is resolved.
	ResaleAtCost bool `json:"resale_at_cost" yaml:"resale_at_cost"`
}

// Resolve returns the policy with ResaleAtCost applied against costs.
func (p TerminalPolicy) Resolve(costs InvestmentCosts) TerminalPolicy {
	if p.Mode == "" {
		p.Mode = TerminalNone
	}
	if p.ResaleAtCost {
		p.Value = costs.PropertyCost
		p.ResaleAtCost = false
	}
	return p
}

// EconomicAssumptions holds the per-evaluation economic inputs.
type EconomicAssumptions struct {
	OperatingCostRatio float64        `json:"operating_cost_ratio" yaml:"operating_cost_ratio"`
	OccupancyRatio     float64        `json:"occupancy_ratio" yaml:"occupancy_ratio"`
	HorizonYears       int            `json:"horizon_years" yaml:"horizon_years"`
	TargetRate         float64        `json:"target_rate" yaml:"target_rate"`
	StrictRanges       bool           `json:"strict_ranges" yaml:"strict_ranges"`
	Terminal           TerminalPolicy `json:"terminal" yaml:"terminal"`
}

// DefaultAssumptions mirrors the figures the original calculator shipped with.
func DefaultAssumptions() EconomicAssumptions {
	return EconomicAssumptions{
		OperatingCostRatio: 0.5,
		OccupancyRatio:     0.7,
		HorizonYears:       10,
		TargetRate:         0.10,
		Terminal:           TerminalPolicy{Mode: TerminalNone},
	}
}

// InvestmentCosts are the up-front and recurring costs of a property.
type InvestmentCosts struct {
	PropertyCost    float64 `json:"property_cost" yaml:"property_cost"`
	FurnishingCost  float64 `json:"furnishing_cost" yaml:"furnishing_cost"`
	AnnualAdminCost float64 `json:"annual_admin_cost" yaml:"annual_admin_cost"`
}

// InitialOutlay is the single negative entry at period 0.
func (c InvestmentCosts) InitialOutlay() float64 {
	return c.PropertyCost + c.FurnishingCost
}
