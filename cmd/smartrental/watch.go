package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SmartRental/internal/notifier"
	"SmartRental/internal/scheduler"
	"SmartRental/internal/watchstate"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate the watchlist on a schedule",
	Long:  "Re-evaluates every watchlist property on the configured cron schedule and notifies when a verdict changes. Telegram commands /watch and /history are answered while running.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.ValidateWatch(); err != nil {
			return eris.Wrap(err, "config validation")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := initEngine(cfg)
		if err != nil {
			return err
		}
		rec := initRecorder(cfg)
		defer rec.Close() //nolint:errcheck

		state, err := watchstate.NewManager(cfg.Schedule.StateFile)
		if err != nil {
			return err
		}

		var n notifier.Notifier = notifier.LogNotifier{}
		var tn *notifier.TelegramNotifier
		if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			n = tn
		}

		sched := scheduler.NewScheduler(ctx, eng, n, rec, state)
		sched.Watchlist = cfg.Watchlist
		sched.Assumptions = cfg.Assumptions
		sched.Concurrency = cfg.Schedule.Concurrency
		if tn == nil {
			sched.Style = notifier.Plain
		}

		if watchOnce {
			evs, err := sched.RunOnce(ctx)
			if err != nil {
				return err
			}
			for _, ev := range evs {
				fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatEvaluation(ev, notifier.Plain))
			}
			return nil
		}

		if err := sched.Register(cfg.Schedule.WatchCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if tn != nil {
			go tn.StartPolling(ctx, sched.HandleCommand)
		}

		zap.L().Info("watching", zap.String("cron", cfg.Schedule.WatchCron), zap.Int("properties", len(cfg.Watchlist)))
		<-ctx.Done()
		zap.L().Info("shutdown signal received, stopping")
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "evaluate the watchlist once and exit")
	rootCmd.AddCommand(watchCmd)
}
