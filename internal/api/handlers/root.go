package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "routereplay",
		"description": "Replays a recorded vehicle route on a fixed clock",
		"version":     "1.0.0",
		"endpoints": map[string]string{
			"GET /api":                    "API information",
			"GET /health":                 "Health check",
			"GET /playback":               "Current playback state and vehicle status",
			"POST /playback/play":         "Start or resume playback",
			"POST /playback/pause":        "Pause playback",
			"POST /playback/toggle":       "Play when paused, pause when playing",
			"POST /playback/reset":        "Pause and rewind to the first point",
			"POST /playback/reload":       "Reload the route from its source",
			"GET /playback/stream":        "Server-sent events, one per state change",
			"GET /route.geojson":          "Full and travelled polylines with the vehicle marker",
			"GET /feed/vehicle-positions": "GTFS-Realtime vehicle position (protobuf, ?format=json)",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found", "Check the /api endpoint for available routes")
}
