// Package main is the entry point for the routereplay server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randytsao24/routereplay/internal/api"
	"github.com/randytsao24/routereplay/internal/config"
	"github.com/randytsao24/routereplay/internal/playback"
	"github.com/randytsao24/routereplay/internal/route"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(newLogger(cfg, level))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := route.NewStore(&http.Client{Timeout: cfg.HTTPTimeout()}, cfg.CacheTTL())
	defer store.Close()

	center := cfg.Center()
	ctrl := playback.New(playback.Config{
		Interval: cfg.TickInterval(),
		Fallback: &center,
	})
	defer ctrl.Close()

	loadCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout())
	points, err := store.Load(loadCtx, cfg.RouteSource)
	cancel()
	if err != nil {
		slog.Warn("no route data, playback disabled", "source", cfg.RouteSource, "error", err)
	} else {
		slog.Info("route loaded", "source", cfg.RouteSource, "points", len(points))
	}
	ctrl.Initialize(points)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(cfg, ctrl, store),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.File != "" {
		watcher, err := config.NewWatcher(cfg.File)
		if err != nil {
			slog.Warn("config watch disabled", "error", err)
		} else {
			g.Go(func() error {
				return watcher.Run(gctx, func(next *config.Config, err error) {
					applyConfig(ctrl, next, err)
				})
			})
		}
	}
	g.Go(func() error {
		slog.Info("routereplay server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"url", fmt.Sprintf("http://localhost:%s", cfg.Port),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// streams only end once their subscriptions close
		ctrl.Close()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// applyConfig applies the settings that can change without a restart.
func applyConfig(ctrl *playback.Controller, next *config.Config, err error) {
	if err != nil {
		slog.Warn("ignoring invalid config change", "error", err)
		return
	}
	if err := ctrl.SetInterval(next.TickInterval()); err != nil {
		slog.Warn("applying tick interval", "error", err)
		return
	}
	slog.Info("config reloaded", "tick_interval", next.TickInterval())
}
