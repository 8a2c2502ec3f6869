package playback

import (
	"fmt"
	"time"
)

// TimeLayout renders point timestamps in the vehicle status panel
const TimeLayout = time.TimeOnly

// Status is the human-readable vehicle status panel for a snapshot.
type Status struct {
	Coordinate string `json:"coordinate"`
	Timestamp  string `json:"timestamp"`
	Speed      string `json:"speed"`
}

// Status formats the current position, its local time and the speed.
// A position without a timestamp reads "N/A".
func (s Snapshot) Status() Status {
	ts := "N/A"
	if !s.Position.Timestamp.IsZero() {
		ts = s.Position.Timestamp.Local().Format(TimeLayout)
	}
	return Status{
		Coordinate: fmt.Sprintf("%.6f, %.6f", s.Position.Lat, s.Position.Lng),
		Timestamp:  ts,
		Speed:      s.Speed.String() + " km/h",
	}
}
