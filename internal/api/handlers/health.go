package handlers

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	startTime time.Time
	player    Player
	loader    RouteLoader
}

func NewHealthHandler(player Player, loader RouteLoader) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), player: player, loader: loader}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.player.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "OK",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"version":       "1.0.0",
		"uptime":        time.Since(h.startTime).String(),
		"route_points":  snap.Total,
		"state":         snap.State,
		"cached_routes": h.loader.Cached(),
	})
}
