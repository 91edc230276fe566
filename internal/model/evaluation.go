package model

import "time"

// Verdict is the recommendation attached to an evaluation.
type Verdict string

const (
	VerdictFavorable    Verdict = "favorable"
	VerdictUnfavorable  Verdict = "unfavorable"
	VerdictUndetermined Verdict = "undetermined"
)

// PriceSource records where the nightly price came from.
type PriceSource string

const (
	PriceSourceInput  PriceSource = "input"
	PriceSourceOracle PriceSource = "oracle"
)

// Warning is a non-fatal condition raised while building a series.
type Warning struct {
	Kind    string  `json:"kind"`
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// Evaluation is the full outcome of one build + solve + verdict run.
type Evaluation struct {
	ID           string              `json:"id"`
	Name         string              `json:"name,omitempty"`
	EvaluatedAt  time.Time           `json:"evaluated_at"`
	Features     *PropertyFeatures   `json:"features,omitempty"`
	NightlyPrice float64             `json:"nightly_price"`
	PriceSource  PriceSource         `json:"price_source"`
	OracleName   string              `json:"oracle,omitempty"`
	Assumptions  EconomicAssumptions `json:"assumptions"`
	Costs        InvestmentCosts     `json:"costs"`
	CashFlows    CashFlowSeries      `json:"cash_flows,omitempty"`
	Warnings     []Warning           `json:"warnings,omitempty"`

	// IRR is nil whenever the build or solve step failed.
	IRR         *float64 `json:"irr"`
	Iterations  int      `json:"iterations,omitempty"`
	NPVAtTarget *float64 `json:"npv_at_target,omitempty"`
	Margin      *float64 `json:"margin_over_target,omitempty"`

	FailureKind    string  `json:"failure_kind,omitempty"`
	FailureMessage string  `json:"failure_message,omitempty"`
	Verdict        Verdict `json:"verdict"`
	Rating         string  `json:"rating,omitempty"`
}

// Failed reports whether the evaluation ended without a rate.
func (e *Evaluation) Failed() bool { return e.FailureKind != "" }
