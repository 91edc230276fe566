package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"SmartRental/internal/calculator"
	"SmartRental/internal/model"
	"SmartRental/internal/notifier"
)

var irrOpts model.SolverOptions

var irrCmd = &cobra.Command{
	Use:   "irr <cf0,cf1,...>",
	Short: "Solve the IRR of a literal cash-flow series",
	Long:  "Solves the IRR of a comma-separated series. Put -- before a series that starts with a negative outlay: smartrental irr -- -170000,36792,36792",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		series, err := parseSeries(args[0])
		if err != nil {
			return err
		}
		opts := cfg.Solver
		f := cmd.Flags()
		if f.Changed("guess") {
			opts.InitialGuess = irrOpts.InitialGuess
		}
		if f.Changed("max-iterations") {
			opts.MaxIterations = irrOpts.MaxIterations
		}
		if f.Changed("tolerance") {
			opts.Tolerance = irrOpts.Tolerance
		}

		res, err := calculator.Solve(series, opts)
		if err != nil {
			return eris.Wrapf(err, "irr (%s)", calculator.FailureKind(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "IRR: %s (%.8f) after %d iterations\n",
			notifier.Percent(res.Rate), res.Rate, res.Iterations)
		return nil
	},
}

func parseSeries(s string) (model.CashFlowSeries, error) {
	parts := strings.Split(s, ",")
	series := make(model.CashFlowSeries, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "period %d", i)
		}
		series = append(series, v)
	}
	return series, nil
}

func init() {
	f := irrCmd.Flags()
	f.Float64Var(&irrOpts.InitialGuess, "guess", 0, "initial guess (default from config)")
	f.IntVar(&irrOpts.MaxIterations, "max-iterations", 0, "iteration limit (default from config)")
	f.Float64Var(&irrOpts.Tolerance, "tolerance", 0, "convergence tolerance (default from config)")
	rootCmd.AddCommand(irrCmd)
}
