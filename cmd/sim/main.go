package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"econ_go/internal/app"

	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml configuration file")
	flag.Parse()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bootstrap.Simulator.Run(ctx)
	})

	if bootstrap.Hub != nil {
		hub := bootstrap.Hub
		g.Go(func() error {
			return hub.Run(ctx)
		})

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.HandleWS)
		srv := &http.Server{Addr: bootstrap.Config.Telemetry.ListenAddr, Handler: mux}

		g.Go(func() error {
			slog.Info("✅ Telemetry listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	slog.Info("✨ Econ Go running. Press Ctrl+C to exit.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("shutdown with error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("👋 Shutting down gracefully...")
}
