package location

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/randytsao24/routereplay/internal/models"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		expected               float64
	}{
		{"same point", 17.0, 78.0, 17.0, 78.0, 0},
		{"east by a hundredth", 17.0, 78.0, 17.0, 78.01, 1.1132},
		{"north by a degree", 0, 0, 1, 0, KmPerDegree},
		{"3-4-5 triangle", 0, 0, 0.3, 0.4, 0.5 * KmPerDegree},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := DistanceKm(test.lat1, test.lng1, test.lat2, test.lng2)
			assert.InDelta(t, test.expected, got, 1e-9)
		})
	}
}

func TestDistanceKmIsPlanar(t *testing.T) {
	// A degree of longitude at 60N is about half a degree at the equator on the
	// sphere; the planar approximation does not account for that.
	atEquator := DistanceKm(0, 0, 0, 1)
	at60 := DistanceKm(60, 0, 60, 1)
	assert.InDelta(t, atEquator, at60, 1e-9)
}

func TestPathLengthKm(t *testing.T) {
	t0 := time.Now()
	route := models.Route{
		{Lat: 0, Lng: 0, Timestamp: t0},
		{Lat: 0, Lng: 0.01, Timestamp: t0},
		{Lat: 0, Lng: 0.03, Timestamp: t0},
	}

	assert.Zero(t, PathLengthKm(route, 0))
	assert.InDelta(t, 1.1132, PathLengthKm(route, 1), 1e-9)
	assert.InDelta(t, 3.3396, PathLengthKm(route, 2), 1e-9)
	assert.InDelta(t, 3.3396, PathLengthKm(route, 10), 1e-9)
	assert.Zero(t, PathLengthKm(nil, 3))
}

func TestKilometersToMeters(t *testing.T) {
	assert.Equal(t, 1500.0, KilometersToMeters(1.5))
}

func TestHours(t *testing.T) {
	assert.Equal(t, 1.0, Hours(time.Hour))
	assert.Equal(t, 0.5, Hours(30*time.Minute))
	assert.Equal(t, -2.0, Hours(-2*time.Hour))
	assert.Zero(t, Hours(0))
}
