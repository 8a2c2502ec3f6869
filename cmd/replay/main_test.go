package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/routereplay/internal/models"
	"github.com/randytsao24/routereplay/internal/playback"
)

func threePoints() models.Route {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	return models.Route{
		{Lat: 17.0, Lng: 78.0, Timestamp: t0},
		{Lat: 17.0, Lng: 78.01, Timestamp: t0.Add(time.Hour)},
		{Lat: 17.0, Lng: 78.02, Timestamp: t0.Add(2 * time.Hour)},
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, playback.Snapshot{
		Index:    1,
		Total:    3,
		State:    playback.StatePlaying,
		Position: models.RoutePoint{Lat: 17.0, Lng: 78.01, Timestamp: time.Date(2024, 3, 1, 11, 0, 0, 0, time.Local)},
		Speed:    playback.Speed{KmH: 1.1132, Known: true},
	})

	assert.Equal(t, strings.Join([]string{
		"Vehicle Status [2/3] playing",
		"  Coordinate: 17.000000, 78.010000",
		"  Timestamp: 11:00:00",
		"  Speed: 1.11 km/h",
		"",
	}, "\n"), buf.String())
}

func TestReplayRunsToEnd(t *testing.T) {
	clock := playback.NewManualScheduler()
	ctrl := playback.New(playback.Config{Scheduler: clock})
	defer ctrl.Close()
	ctrl.Initialize(threePoints())

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- replay(context.Background(), &buf, ctrl, true) }()

	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	clock.Advance(playback.DefaultInterval)
	clock.Advance(playback.DefaultInterval)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not finish")
	}

	out := buf.String()
	assert.Contains(t, out, "[3/3] at_end")
	assert.Contains(t, out, "Coordinate: 17.000000, 78.020000")
	assert.Contains(t, out, "Speed: 1.11 km/h")
}

// gatedWriter blocks every write until gate is closed and reports the first attempt.
type gatedWriter struct {
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once

	mu  sync.Mutex
	buf bytes.Buffer
}

func newGatedWriter() *gatedWriter {
	return &gatedWriter{gate: make(chan struct{}), entered: make(chan struct{})}
}

func (w *gatedWriter) Write(p []byte) (int, error) {
	w.once.Do(func() { close(w.entered) })
	<-w.gate
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *gatedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestReplaySlowWriterStillSeesEnd(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	points := make(models.Route, 40)
	for i := range points {
		points[i] = models.RoutePoint{Lat: 17.0, Lng: 78.0 + float64(i)*0.001, Timestamp: t0.Add(time.Duration(i) * time.Minute)}
	}

	clock := playback.NewManualScheduler()
	ctrl := playback.New(playback.Config{Scheduler: clock})
	defer ctrl.Close()
	ctrl.Initialize(points)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := newGatedWriter()
	done := make(chan error, 1)
	go func() { done <- replay(ctx, w, ctrl, true) }()

	select {
	case <-w.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("replay never printed")
	}
	// far more frames than the subscription buffers while the writer is stuck
	assert.Equal(t, 39, clock.Advance(39*playback.DefaultInterval))
	assert.Equal(t, playback.StateAtEnd, ctrl.State())
	close(w.gate)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("replay did not finish after the route ended")
	}
	assert.Contains(t, w.String(), "[40/40] at_end")
}

func TestReplayWithoutAutoplay(t *testing.T) {
	ctrl := playback.New(playback.Config{Scheduler: playback.NewManualScheduler()})
	defer ctrl.Close()
	ctrl.Initialize(threePoints())

	var buf bytes.Buffer
	require.NoError(t, replay(context.Background(), &buf, ctrl, false))

	assert.Contains(t, buf.String(), "[1/3] idle")
	assert.Contains(t, buf.String(), "Speed: 0.00 km/h")
	assert.False(t, ctrl.IsPlaying())
}

func TestReplayEmptyRoute(t *testing.T) {
	ctrl := playback.New(playback.Config{Scheduler: playback.NewManualScheduler()})
	defer ctrl.Close()

	var buf bytes.Buffer
	require.NoError(t, replay(context.Background(), &buf, ctrl, true))

	assert.Contains(t, buf.String(), "[1/1] idle")
	assert.Contains(t, buf.String(), "Coordinate: 17.385044, 78.486671")
	assert.Contains(t, buf.String(), "Timestamp: N/A")
}

func TestReplayStopsOnCancel(t *testing.T) {
	clock := playback.NewManualScheduler()
	ctrl := playback.New(playback.Config{Scheduler: clock})
	defer ctrl.Close()
	ctrl.Initialize(threePoints())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := replay(ctx, &buf, ctrl, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"latitude": 17.0, "longitude": 78.0, "timestamp": "2024-03-01T10:00:00Z"},
		{"latitude": 17.0, "longitude": 78.01, "timestamp": "2024-03-01T11:00:00Z"}
	]`), 0o644))

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), &buf, path, time.Millisecond, true))
	assert.Contains(t, buf.String(), "at_end")
}

func TestRunErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), &buf, "x", 0, true), playback.ErrInvalidInterval)
	assert.Error(t, run(context.Background(), &buf, filepath.Join(t.TempDir(), "missing.json"), time.Second, true))
}
