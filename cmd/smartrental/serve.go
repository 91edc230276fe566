package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SmartRental/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := initEngine(cfg)
		if err != nil {
			return err
		}
		rec := initRecorder(cfg)
		defer rec.Close() //nolint:errcheck

		s := api.NewServer(eng, rec, cfg.Assumptions, cfg.Solver)
		if cfg.Server.RequestsPerSecond > 0 {
			s.Limiter = api.NewRateLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
			defer s.Limiter.Stop()
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		srv := &http.Server{
			Addr:         addr,
			Handler:      s.Routes(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		zap.L().Info("starting server", zap.String("addr", ln.Addr().String()))
		return serveUntilDone(ctx, srv, ln)
	},
}

// serveUntilDone serves until ctx is cancelled and returns only after
// Shutdown has drained in-flight requests, so callers may close what the
// handlers use.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server serve")
	}
	<-shutdownDone
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
