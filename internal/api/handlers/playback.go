package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/randytsao24/routereplay/internal/playback"
	"github.com/randytsao24/routereplay/internal/route"
)

type PlaybackHandler struct {
	player  Player
	loader  RouteLoader
	source  string
	timeout time.Duration
}

func NewPlaybackHandler(player Player, loader RouteLoader, source string, timeout time.Duration) *PlaybackHandler {
	return &PlaybackHandler{
		player:  player,
		loader:  loader,
		source:  source,
		timeout: timeout,
	}
}

// GetState returns the current snapshot and vehicle status
func (h *PlaybackHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateBody(h.player.Snapshot()))
}

// Play starts playback. An empty or finished route cannot play.
func (h *PlaybackHandler) Play(w http.ResponseWriter, r *http.Request) {
	if !h.player.Play() {
		snap := h.player.Snapshot()
		message := "Playback is at the last point; reset to play again"
		if snap.Total == 0 {
			message = "No route is loaded"
		}
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    "Cannot play",
			"message":  message,
			"no_data":  snap.Total == 0,
			"playback": snap,
		})
		return
	}
	writeJSON(w, http.StatusOK, stateBody(h.player.Snapshot()))
}

func (h *PlaybackHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.player.Pause()
	writeJSON(w, http.StatusOK, stateBody(h.player.Snapshot()))
}

func (h *PlaybackHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.player.Toggle()
	writeJSON(w, http.StatusOK, stateBody(h.player.Snapshot()))
}

func (h *PlaybackHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.player.Reset()
	writeJSON(w, http.StatusOK, stateBody(h.player.Snapshot()))
}

// Reload drops the cached route, loads it again and restarts playback from
// idle. On failure the player is left with no route.
func (h *PlaybackHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	h.loader.Invalidate(h.source)
	points, err := h.loader.Load(ctx, h.source)
	if err != nil {
		slog.Warn("route reload failed", "source", h.source, "error", err)
		h.player.Initialize(nil)

		status := http.StatusBadGateway
		var loadErr *route.LoadError
		if !errors.As(err, &loadErr) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]any{
			"error":   "Route unavailable",
			"message": err.Error(),
			"no_data": true,
		})
		return
	}

	h.player.Initialize(points)
	slog.Info("route reloaded", "source", h.source, "points", len(points))
	writeJSON(w, http.StatusOK, stateBody(h.player.Snapshot()))
}

func stateBody(snap playback.Snapshot) map[string]any {
	return map[string]any{
		"success":  true,
		"no_data":  snap.Total == 0,
		"playback": snap,
		"status":   snap.Status(),
	}
}
