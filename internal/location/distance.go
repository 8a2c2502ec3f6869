// Package location holds the distance arithmetic used for route playback
package location

import (
	"math"
	"time"

	"github.com/randytsao24/routereplay/internal/models"
)

// KmPerDegree is the length of one degree of arc at the equator
const KmPerDegree = 111.32

// DistanceKm approximates the distance in kilometers between two lat/lng points.
//
// This is a planar approximation: the degree deltas are treated as a flat
// Euclidean offset and scaled by KmPerDegree. It ignores the convergence of
// meridians, so east-west distances are overstated away from the equator.
// It is only suitable for short local routes and is not a great-circle distance.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := lat2 - lat1
	dLng := lng2 - lng1
	return math.Sqrt(dLat*dLat+dLng*dLng) * KmPerDegree
}

// PathLengthKm sums DistanceKm over route[0..through] inclusive
func PathLengthKm(route models.Route, through int) float64 {
	through = min(through, len(route)-1)
	var total float64
	for i := 1; i <= through; i++ {
		prev, curr := route[i-1], route[i]
		total += DistanceKm(prev.Lat, prev.Lng, curr.Lat, curr.Lng)
	}
	return total
}

// KilometersToMeters converts kilometers to meters
func KilometersToMeters(km float64) float64 {
	return km * 1000
}

// Hours converts a duration to fractional hours
func Hours(d time.Duration) float64 {
	return d.Hours()
}
