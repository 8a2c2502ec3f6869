package route

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/randytsao24/routereplay/internal/cache"
	"github.com/randytsao24/routereplay/internal/models"
)

const defaultFetchTimeout = 30 * time.Second

// Store loads routes from files or URLs and keeps them for a TTL.
// Loaded routes are never mutated; callers receive copies.
type Store struct {
	client  *http.Client
	timeout time.Duration
	routes  *cache.Cache[models.Route]
}

// NewStore creates a store. A nil client uses http.DefaultClient. Fetches
// are bounded by the client's Timeout, or 30s when it has none.
func NewStore(client *http.Client, ttl time.Duration) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	timeout := client.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Store{
		client:  client,
		timeout: timeout,
		routes:  cache.New[models.Route](ttl),
	}
}

// Load returns the route for source. Sources starting with http:// or
// https:// are fetched, anything else is read as a file path.
//
// Concurrent loads of one source share a single fetch. The fetch keeps ctx's
// values but not its cancellation, so one caller going away does not fail
// the others; that caller alone gets a *LoadError wrapping ctx.Err().
func (s *Store) Load(ctx context.Context, source string) (models.Route, error) {
	fetchCtx := context.WithoutCancel(ctx)
	route, err := s.routes.GetOrLoadContext(ctx, source, func() (models.Route, error) {
		if !isURL(source) {
			return LoadFile(source)
		}
		reqCtx, cancel := context.WithTimeout(fetchCtx, s.timeout)
		defer cancel()
		return Fetch(reqCtx, s.client, source)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, &LoadError{Source: source, Index: -1, Err: fmt.Errorf("%w: %w", ErrUnreachable, err)}
		}
		return nil, err
	}
	return route.Clone(), nil
}

// Cached returns the number of routes held, including expired ones not yet swept
func (s *Store) Cached() int {
	return s.routes.Size()
}

// Invalidate drops the cached route for source
func (s *Store) Invalidate(source string) {
	s.routes.Delete(source)
}

// Close stops the cache cleanup goroutine
func (s *Store) Close() {
	s.routes.Close()
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
