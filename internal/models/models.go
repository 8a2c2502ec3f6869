// Package models defines shared data types
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// RoutePoint is one recorded sample of a vehicle's position.
// A zero Timestamp means the time is undefined.
type RoutePoint struct {
	Lat       float64
	Lng       float64
	Timestamp time.Time
}

// Coordinate returns the point as a [lat, lng] pair
func (p RoutePoint) Coordinate() Coordinate {
	return Coordinate{p.Lat, p.Lng}
}

// MarshalJSON encodes non-finite coordinates as null and an undefined
// timestamp as null.
func (p RoutePoint) MarshalJSON() ([]byte, error) {
	var ts *string
	if !p.Timestamp.IsZero() {
		s := p.Timestamp.Format(time.RFC3339Nano)
		ts = &s
	}
	return json.Marshal(struct {
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
		Timestamp *string  `json:"timestamp"`
	}{
		Lat:       finite(p.Lat),
		Lng:       finite(p.Lng),
		Timestamp: ts,
	})
}

// Coordinate is a [lat, lng] polyline vertex
type Coordinate [2]float64

func (c Coordinate) Lat() float64 { return c[0] }
func (c Coordinate) Lng() float64 { return c[1] }

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*float64{finite(c[0]), finite(c[1])})
}

// Route is the ordered sequence of points for one simulated trip.
// Points are kept in the order they were supplied.
type Route []RoutePoint

// Len returns the number of points
func (r Route) Len() int { return len(r) }

// At returns the point at index i, or a *MissingPointError when i is out of range.
func (r Route) At(i int) (RoutePoint, error) {
	if i < 0 || i >= len(r) {
		return RoutePoint{}, &MissingPointError{Index: i, Len: len(r)}
	}
	return r[i], nil
}

// Coordinates projects the first n points to coordinate pairs.
// n is clamped to [0, len(r)].
func (r Route) Coordinates(n int) []Coordinate {
	n = max(0, min(n, len(r)))
	coords := make([]Coordinate, n)
	for i := 0; i < n; i++ {
		coords[i] = r[i].Coordinate()
	}
	return coords
}

// Clone returns a copy that shares no backing array with r.
func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	out := make(Route, len(r))
	copy(out, r)
	return out
}

// MissingPointError reports access to a route point that does not exist.
type MissingPointError struct {
	Index int
	Len   int
}

func (e *MissingPointError) Error() string {
	return fmt.Sprintf("route point %d missing (route has %d points)", e.Index, e.Len)
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
