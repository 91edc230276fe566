package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SmartRental/internal/notifier"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent evaluations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rec := initRecorder(cfg)
		defer rec.Close() //nolint:errcheck

		rows, err := rec.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), notifier.FormatHistory(rows))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of evaluations to show")
	rootCmd.AddCommand(historyCmd)
}
