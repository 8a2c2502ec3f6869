// Command replay plays a route in the terminal, printing the vehicle status
// panel on every step until the route ends.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/randytsao24/routereplay/internal/playback"
	"github.com/randytsao24/routereplay/internal/route"
)

func main() {
	source := flag.String("route", "data/dummy-route.json", "route file path or http(s) URL")
	interval := flag.Duration("interval", playback.DefaultInterval, "time between points")
	autoplay := flag.Bool("autoplay", true, "start playing immediately")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, *source, *interval, *autoplay); err != nil {
		slog.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, source string, interval time.Duration, autoplay bool) error {
	if interval <= 0 {
		return playback.ErrInvalidInterval
	}

	store := route.NewStore(&http.Client{Timeout: 10 * time.Second}, 0)
	defer store.Close()

	points, err := store.Load(ctx, source)
	if err != nil {
		return err
	}

	ctrl := playback.New(playback.Config{Interval: interval})
	defer ctrl.Close()
	ctrl.Initialize(points)

	return replay(ctx, w, ctrl, autoplay)
}

// replay prints each snapshot until the route ends or ctx is done. Without
// autoplay, or when the route cannot play, it prints the current panel once.
func replay(ctx context.Context, w io.Writer, ctrl *playback.Controller, autoplay bool) error {
	if !autoplay || !ctrl.Play() {
		printStatus(w, ctrl.Snapshot())
		return nil
	}

	updates, unsubscribe := ctrl.Subscribe(ctx)
	defer unsubscribe()

	for snap := range updates {
		printStatus(w, snap)
		if snap.State == playback.StateAtEnd {
			return nil
		}
	}
	return ctx.Err()
}

func printStatus(w io.Writer, snap playback.Snapshot) {
	status := snap.Status()
	fmt.Fprintf(w, "Vehicle Status [%d/%d] %s\n", snap.Index+1, max(snap.Total, 1), snap.State)
	fmt.Fprintf(w, "  Coordinate: %s\n", status.Coordinate)
	fmt.Fprintf(w, "  Timestamp: %s\n", status.Timestamp)
	fmt.Fprintf(w, "  Speed: %s\n", status.Speed)
}
