package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/randytsao24/routereplay/internal/feed"
)

type FeedHandler struct {
	player    Player
	vehicleID string
	now       func() time.Time
}

func NewFeedHandler(player Player, vehicleID string) *FeedHandler {
	return &FeedHandler{player: player, vehicleID: vehicleID, now: time.Now}
}

// GetGeoJSON returns the full route, the travelled part and the vehicle marker
func (h *FeedHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc := feed.Segments(h.player.Snapshot())
	data, err := fc.MarshalJSON()
	if err != nil {
		slog.Error("encoding geojson", "error", err)
		writeError(w, http.StatusInternalServerError, "Encoding failed", err.Error())
		return
	}
	writeBytes(w, "application/geo+json", data)
}

// GetVehiclePositions returns a GTFS-Realtime feed for the replayed vehicle.
// ?format=json renders the protobuf JSON mapping instead of the wire format.
func (h *FeedHandler) GetVehiclePositions(w http.ResponseWriter, r *http.Request) {
	msg := feed.VehiclePositions(h.player.Snapshot(), h.vehicleID, h.now())

	if r.URL.Query().Get("format") == "json" {
		data, err := feed.MarshalJSON(msg)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Encoding failed", err.Error())
			return
		}
		writeBytes(w, "application/json", data)
		return
	}

	data, err := feed.Marshal(msg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Encoding failed", err.Error())
		return
	}
	writeBytes(w, "application/x-protobuf", data)
}
