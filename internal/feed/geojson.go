package feed

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/randytsao24/routereplay/internal/models"
	"github.com/randytsao24/routereplay/internal/playback"
)

// Polyline styles mirror the map: the full route is drawn thin and gray,
// the travelled prefix thick and red.
var (
	fullStyle      = map[string]any{"color": "gray", "weight": 3, "opacity": 0.5}
	travelledStyle = map[string]any{"color": "red", "weight": 6, "opacity": 0.8}
)

// Segments returns the map layers for a snapshot: the full route line (only
// when there are points), the travelled line, and the vehicle marker.
// GeoJSON orders positions as [lng, lat].
func Segments(snap playback.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if len(snap.Full) > 0 {
		full := geojson.NewFeature(lineString(snap.Full))
		full.Properties["segment"] = "full"
		full.Properties["style"] = fullStyle
		fc.Append(full)
	}

	travelled := geojson.NewFeature(lineString(snap.Travelled))
	travelled.Properties["segment"] = "travelled"
	travelled.Properties["style"] = travelledStyle
	fc.Append(travelled)

	marker := geojson.NewFeature(orb.Point{snap.Position.Lng, snap.Position.Lat})
	marker.Properties["segment"] = "vehicle"
	marker.Properties["index"] = snap.Index
	marker.Properties["state"] = snap.State.String()
	marker.Properties["speed_kmh"] = snap.Speed.String()
	if !snap.Position.Timestamp.IsZero() {
		marker.Properties["timestamp"] = snap.Position.Timestamp
	}
	fc.Append(marker)

	return fc
}

func lineString(coords []models.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Lng(), c.Lat()}
	}
	return ls
}
