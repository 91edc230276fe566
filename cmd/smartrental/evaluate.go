package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SmartRental/internal/model"
	"SmartRental/internal/notifier"
	"SmartRental/internal/strategy"
)

var evalOpts struct {
	name       string
	price      float64
	features   model.PropertyFeatures
	costs      model.InvestmentCosts
	occupancy  float64
	costRatio  float64
	horizon    int
	target     float64
	terminal   string
	termValue  float64
	resale     bool
	strict     bool
	jsonOutput bool
	record     bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one property",
	Long:  "Builds the cash flows for a nightly price (or one predicted from --city and the other feature flags), solves the IRR and prints the recommendation.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		eng, err := initEngine(cfg)
		if err != nil {
			return err
		}

		req := strategy.Request{
			Name:         evalOpts.name,
			NightlyPrice: evalOpts.price,
			Assumptions:  evaluateAssumptions(cmd, cfg.Assumptions),
			Costs:        evalOpts.costs,
		}
		if evalOpts.price == 0 {
			features := evalOpts.features
			req.Features = &features
		}

		ev, evalErr := eng.Evaluate(ctx, req)
		if evalOpts.record {
			rec := initRecorder(cfg)
			defer rec.Close() //nolint:errcheck
			if err := rec.RecordEvaluation(ctx, ev); err != nil {
				zap.L().Error("record evaluation", zap.Error(err))
			}
		}

		out := cmd.OutOrStdout()
		if evalOpts.jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(ev); err != nil {
				return err
			}
		} else {
			fmt.Fprint(out, notifier.FormatEvaluation(ev, notifier.Plain))
		}
		return evalErr
	},
}

// evaluateAssumptions overrides base with the flags the user actually set.
func evaluateAssumptions(cmd *cobra.Command, base model.EconomicAssumptions) model.EconomicAssumptions {
	a := base
	f := cmd.Flags()
	if f.Changed("occupancy") {
		a.OccupancyRatio = evalOpts.occupancy
	}
	if f.Changed("cost-ratio") {
		a.OperatingCostRatio = evalOpts.costRatio
	}
	if f.Changed("horizon") {
		a.HorizonYears = evalOpts.horizon
	}
	if f.Changed("target") {
		a.TargetRate = evalOpts.target
	}
	if f.Changed("terminal") {
		a.Terminal.Mode = model.TerminalMode(evalOpts.terminal)
	}
	if f.Changed("terminal-value") {
		a.Terminal.Value = evalOpts.termValue
	}
	if f.Changed("resale-at-cost") {
		a.Terminal.ResaleAtCost = evalOpts.resale
	}
	if f.Changed("strict") {
		a.StrictRanges = evalOpts.strict
	}
	return a
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalOpts.name, "name", "", "label for the report")
	f.Float64Var(&evalOpts.price, "price", 0, "nightly price; 0 asks the price oracle")

	f.Float64Var(&evalOpts.costs.PropertyCost, "property-cost", 0, "purchase price of the property")
	f.Float64Var(&evalOpts.costs.FurnishingCost, "furnishing-cost", 0, "one-off furnishing cost")
	f.Float64Var(&evalOpts.costs.AnnualAdminCost, "admin-cost", 0, "yearly administration cost")

	f.Float64Var(&evalOpts.occupancy, "occupancy", 0, "occupancy ratio in [0,1]")
	f.Float64Var(&evalOpts.costRatio, "cost-ratio", 0, "operating cost ratio in [0,1]")
	f.IntVar(&evalOpts.horizon, "horizon", 0, "horizon in years")
	f.Float64Var(&evalOpts.target, "target", 0, "target rate, e.g. 0.10")
	f.StringVar(&evalOpts.terminal, "terminal", "", "terminal value policy: none, final_period or extra_period")
	f.Float64Var(&evalOpts.termValue, "terminal-value", 0, "terminal (resale) value")
	f.BoolVar(&evalOpts.resale, "resale-at-cost", false, "use the property cost as terminal value")
	f.BoolVar(&evalOpts.strict, "strict", false, "reject out-of-range assumptions instead of warning")

	f.StringVar(&evalOpts.features.City, "city", "", "city, for the price oracle")
	f.StringVar(&evalOpts.features.Neighbourhood, "neighbourhood", "", "neighbourhood, for the price oracle")
	f.StringVar(&evalOpts.features.RoomType, "room-type", "", "room type, for the price oracle")
	f.IntVar(&evalOpts.features.Accommodates, "accommodates", 0, "guests, for the price oracle")
	f.IntVar(&evalOpts.features.Bedrooms, "bedrooms", 0, "bedrooms, for the price oracle")
	f.Float64Var(&evalOpts.features.Bathrooms, "bathrooms", 0, "bathrooms, for the price oracle")

	f.BoolVar(&evalOpts.jsonOutput, "json", false, "print the evaluation as JSON")
	f.BoolVar(&evalOpts.record, "record", true, "store the evaluation in the history database")
	rootCmd.AddCommand(evaluateCmd)
}
