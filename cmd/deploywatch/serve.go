package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/deploywatch/internal/adapter/driving/http"
	"github.com/ericfisherdev/deploywatch/internal/config"
)

var (
	serveAddr      string
	serveRateLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve deployment status queries over HTTP",
	Long: `Start an HTTP server exposing the status API:

  GET /api/v1/status?repo=owner/name&commit=SHA   query by commit
  GET /api/v1/status?repo=owner/name&pr=N         query by pull request
  GET /api/v1/history?repo=owner/name             recent recorded verdicts
  GET /api/v1/health                              liveness probe`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "Bind address (default from env, 127.0.0.1:8080)")
	serveCmd.Flags().IntVar(&serveRateLimit, "rate-limit", 60, "Per-client requests per minute")
}

func runServe(cmd *cobra.Command, args []string) error {
	// serve mode wants operational logs at info, not the CLI's quiet default.
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.ListenAddr = serveAddr
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"lookback", cfg.Lookback,
		"timeout", cfg.Timeout,
		"max_in_flight", cfg.MaxInFlight,
		"db_path", cfg.DBPath,
	)

	svc, store, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := httphandler.NewHandler(svc, store, slog.Default())
	limiter := httphandler.NewRateLimiter(serveRateLimit, slog.Default())
	mux := httphandler.NewServeMux(handler, slog.Default(), limiter)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
