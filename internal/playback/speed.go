package playback

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/randytsao24/routereplay/internal/location"
	"github.com/randytsao24/routereplay/internal/models"
)

// Speed is an instantaneous speed in km/h. An unknown speed (no positive
// elapsed time between the two samples) renders as "N/A".
type Speed struct {
	KmH   float64
	Known bool
}

var (
	// SpeedZero is reported for the first point and for degenerate routes.
	SpeedZero = Speed{Known: true}
	// SpeedUnknown is reported when elapsed time is not positive.
	SpeedUnknown = Speed{}
)

// String formats the speed to two decimal places, or "N/A".
// NaN coordinates propagate and format as "NaN".
func (s Speed) String() string {
	if !s.Known {
		return "N/A"
	}
	return strconv.FormatFloat(s.KmH, 'f', 2, 64)
}

// MetersPerSecond converts the speed, reporting false when it is unknown or not finite.
func (s Speed) MetersPerSecond() (float64, bool) {
	if !s.Known || math.IsNaN(s.KmH) || math.IsInf(s.KmH, 0) {
		return 0, false
	}
	return s.KmH / 3.6, true
}

func (s Speed) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// speedBetween derives speed from two consecutive samples. A zero timestamp
// on either sample reads as unknown ("N/A") rather than zero: elapsed time
// cannot be measured, unlike a missing point, which is reported as 0.00.
// Decoded routes always carry timestamps, so this only affects routes built
// in code.
func speedBetween(prev, curr models.RoutePoint) Speed {
	hours := location.Hours(curr.Timestamp.Sub(prev.Timestamp))
	if !(hours > 0) || prev.Timestamp.IsZero() || curr.Timestamp.IsZero() {
		return SpeedUnknown
	}
	km := location.DistanceKm(prev.Lat, prev.Lng, curr.Lat, curr.Lng)
	return Speed{KmH: km / hours, Known: true}
}
