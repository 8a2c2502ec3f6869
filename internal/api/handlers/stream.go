package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type StreamHandler struct {
	player Player
}

func NewStreamHandler(player Player) *StreamHandler {
	return &StreamHandler{player: player}
}

// Stream sends one "state" event per snapshot until the client goes away or
// the player shuts down.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// the server's write timeout would cut the stream off
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Debug("clearing write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	ch, unsubscribe := h.player.Subscribe(ctx)
	defer unsubscribe()

	fmt.Fprintf(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		slog.Error("streaming unsupported", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				slog.Error("encoding playback event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: state\n")
			fmt.Fprintf(w, "data: %s\n\n", data)
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
