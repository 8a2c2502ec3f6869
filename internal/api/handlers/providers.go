package handlers

import (
	"context"

	"github.com/randytsao24/routereplay/internal/models"
	"github.com/randytsao24/routereplay/internal/playback"
)

// Player abstracts the playback controller for testability.
type Player interface {
	Initialize(route models.Route)
	Play() bool
	Pause()
	Toggle() bool
	Reset()
	Snapshot() playback.Snapshot
	Subscribe(ctx context.Context) (<-chan playback.Snapshot, func())
}

// RouteLoader abstracts the route store.
type RouteLoader interface {
	Load(ctx context.Context, source string) (models.Route, error)
	Invalidate(source string)
	Cached() int
}
