package api

import (
	"net/http"
	"time"

	"github.com/randytsao24/routereplay/internal/api/handlers"
	"github.com/randytsao24/routereplay/internal/config"
)

const streamPath = "/playback/stream"

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(cfg *config.Config, player handlers.Player, loader handlers.RouteLoader) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(player, loader)
	rootHandler := handlers.NewRootHandler()
	playbackHandler := handlers.NewPlaybackHandler(player, loader, cfg.RouteSource, cfg.HTTPTimeout())
	streamHandler := handlers.NewStreamHandler(player)
	feedHandler := handlers.NewFeedHandler(player, cfg.VehicleID)

	// Core routes
	mux.HandleFunc("GET /{$}", rootHandler.Index)
	mux.HandleFunc("GET /api", rootHandler.Index)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("/", rootHandler.NotFound)

	// Playback state and commands
	mux.HandleFunc("GET /playback", playbackHandler.GetState)
	mux.HandleFunc("POST /playback/play", playbackHandler.Play)
	mux.HandleFunc("POST /playback/pause", playbackHandler.Pause)
	mux.HandleFunc("POST /playback/toggle", playbackHandler.Toggle)
	mux.HandleFunc("POST /playback/reset", playbackHandler.Reset)
	mux.HandleFunc("POST /playback/reload", playbackHandler.Reload)
	mux.HandleFunc("GET "+streamPath, streamHandler.Stream)

	// Map and transit feeds
	mux.HandleFunc("GET /route.geojson", feedHandler.GetGeoJSON)
	mux.HandleFunc("GET /feed/vehicle-positions", feedHandler.GetVehiclePositions)

	// Apply middleware stack
	handler := Chain(mux,
		Recovery,
		Logging,
		CORS,
		Timeout(15*time.Second, streamPath),
	)

	return handler
}
