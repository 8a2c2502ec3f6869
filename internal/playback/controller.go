// Package playback replays a recorded route by advancing an index through its
// points on a fixed cadence and deriving position and speed at that index.
//
// The Controller is a small state machine (see State) that owns at most one
// scheduled task. The task exists only while the state is StatePlaying and is
// cancelled on every transition out of it, including Close.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randytsao24/routereplay/internal/location"
	"github.com/randytsao24/routereplay/internal/models"
)

const (
	// DefaultInterval is the wall-clock time between ticks
	DefaultInterval = 2 * time.Second

	subscriberBuffer = 16
)

// DefaultFallback is reported as the current position when no route is loaded.
var DefaultFallback = models.RoutePoint{Lat: 17.385044, Lng: 78.486671}

var ErrInvalidInterval = errors.New("playback interval must be positive")

// Config configures a Controller. Zero values select the defaults.
type Config struct {
	Interval  time.Duration
	Scheduler Scheduler
	Fallback  *models.RoutePoint
	Logger    *slog.Logger
}

// Snapshot is one consistent read of the playback state and everything derived from it.
type Snapshot struct {
	SessionID  string              `json:"session_id"`
	Index      int                 `json:"index"`
	Total      int                 `json:"total"`
	Playing    bool                `json:"playing"`
	State      State               `json:"state"`
	Position   models.RoutePoint   `json:"position"`
	Speed      Speed               `json:"speed_kmh"`
	DistanceKm float64             `json:"distance_km"`
	Travelled  []models.Coordinate `json:"travelled"`
	Full       []models.Coordinate `json:"full"`
	At         time.Time           `json:"at"`
}

// Controller drives playback of one route. It is safe for concurrent use;
// ticks from the scheduler and commands from the presentation layer are
// serialized on an internal mutex.
type Controller struct {
	mu sync.Mutex

	route    models.Route
	index    int
	state    State
	session  string
	interval time.Duration
	fallback models.RoutePoint

	sched Scheduler
	task  Task
	gen   uint64 // bumped on every clock start and stop; stale ticks are ignored

	subs   map[chan Snapshot]struct{}
	closed bool
	logger *slog.Logger
}

// New creates a controller with an empty route. It does no I/O and starts no timer.
func New(cfg Config) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler{}
	}
	fallback := DefaultFallback
	if cfg.Fallback != nil {
		fallback = *cfg.Fallback
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Controller{
		interval: cfg.Interval,
		fallback: fallback,
		sched:    cfg.Scheduler,
		session:  uuid.NewString(),
		subs:     make(map[chan Snapshot]struct{}),
		logger:   cfg.Logger,
	}
}

// Initialize replaces the route and returns to idle at index 0.
// Any running clock is stopped first. The route is copied.
func (c *Controller) Initialize(route models.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.stopClockLocked()
	c.route = route.Clone()
	c.index = 0
	c.state = StateIdle
	c.session = uuid.NewString()
	c.changedLocked("initialize")
}

// Play starts advancing. It is a no-op returning false when the route is
// empty or already at its last point; no timer is started in that case.
// Calling Play while playing keeps the existing timer.
func (c *Controller) Play() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playLocked()
}

// Pause stops advancing and keeps the index. It is idempotent.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

// Toggle pauses when playing and plays otherwise, returning whether it is now playing.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePlaying {
		c.pauseLocked()
		return false
	}
	return c.playLocked()
}

// Reset pauses and rewinds to index 0.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.stopClockLocked()
	c.index = 0
	c.state = StateIdle
	c.changedLocked("reset")
}

// SetInterval changes the tick cadence. A running clock is replaced so that
// there is still exactly one task.
func (c *Controller) SetInterval(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidInterval
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interval == d {
		return nil
	}
	c.interval = d
	if c.state == StatePlaying {
		c.stopClockLocked()
		c.startClockLocked()
	}
	c.logger.Debug("playback interval changed", "interval", d)
	return nil
}

// Interval returns the current tick cadence.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Close cancels any timer and closes all subscriptions. Later commands are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.stopClockLocked()
	if c.state == StatePlaying {
		c.state = StatePaused
	}
	c.closed = true
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}

func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.route)
}

func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StatePlaying
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID identifies the current route session; it changes on Initialize.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// CurrentPosition returns the point at the current index, or the fallback
// point when the route is empty.
func (c *Controller) CurrentPosition() models.RoutePoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// SpeedAt returns the speed arriving at route[index] from route[index-1].
func (c *Controller) SpeedAt(index int) Speed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speedAtLocked(index)
}

// CurrentSpeed is SpeedAt(Index()).
func (c *Controller) CurrentSpeed() Speed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speedAtLocked(c.index)
}

// TravelledSegment returns route[0..index] inclusive as coordinate pairs.
func (c *Controller) TravelledSegment() []models.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.travelledLocked()
}

// FullSegment returns every route point as coordinate pairs.
func (c *Controller) FullSegment() []models.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route.Coordinates(len(c.route))
}

// Route returns a copy of the loaded route.
func (c *Controller) Route() models.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route.Clone()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that receives the current snapshot at once and
// again after every change. A subscriber that falls behind loses its oldest
// queued frames, never the newest. The channel is closed when the returned func is called, when ctx
// is done, or when the controller is closed.
func (c *Controller) Subscribe(ctx context.Context) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)

	return ch, func() {
		stop()
		unsubscribe()
	}
}

// tick advances one point. gen pins the tick to the clock that scheduled it.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StatePlaying {
		return
	}

	last := len(c.route) - 1
	c.index = min(c.index+1, last)
	if c.index >= last {
		c.stopClockLocked()
		c.state = StateAtEnd
	}
	c.changedLocked("tick")
}

func (c *Controller) playLocked() bool {
	if c.closed {
		return false
	}
	if c.state == StatePlaying {
		return true
	}
	if len(c.route) == 0 || c.index >= len(c.route)-1 {
		return false
	}

	c.state = StatePlaying
	c.startClockLocked()
	c.changedLocked("play")
	return true
}

func (c *Controller) pauseLocked() {
	if c.closed || c.state != StatePlaying {
		return
	}
	c.stopClockLocked()
	c.state = StatePaused
	c.changedLocked("pause")
}

func (c *Controller) startClockLocked() {
	c.gen++
	gen := c.gen
	c.task = c.sched.Every(c.interval, func() { c.tick(gen) })
}

func (c *Controller) stopClockLocked() {
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
	c.gen++
}

func (c *Controller) changedLocked(event string) {
	c.logger.Debug("playback",
		"event", event,
		"index", c.index,
		"total", len(c.route),
		"state", c.state.String(),
	)

	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for ch := range c.subs {
		publish(ch, snap)
	}
}

// publish queues snap without blocking. A full buffer loses its oldest frame
// so the latest state is always delivered. Sends only happen under c.mu, so
// the slot freed by the receive stays free.
func publish(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

func (c *Controller) positionLocked() models.RoutePoint {
	if p, err := c.route.At(c.index); err == nil {
		return p
	}
	if p, err := c.route.At(0); err == nil {
		return p
	}
	return c.fallback
}

func (c *Controller) speedAtLocked(index int) Speed {
	if index == 0 || len(c.route) <= 1 {
		return SpeedZero
	}
	curr, err := c.route.At(index)
	if err != nil {
		c.logger.Debug("speed unavailable", "err", err)
		return SpeedZero
	}
	prev, err := c.route.At(index - 1)
	if err != nil {
		c.logger.Debug("speed unavailable", "err", err)
		return SpeedZero
	}
	return speedBetween(prev, curr)
}

func (c *Controller) travelledLocked() []models.Coordinate {
	if len(c.route) == 0 {
		return []models.Coordinate{}
	}
	return c.route.Coordinates(c.index + 1)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:  c.session,
		Index:      c.index,
		Total:      len(c.route),
		Playing:    c.state == StatePlaying,
		State:      c.state,
		Position:   c.positionLocked(),
		Speed:      c.speedAtLocked(c.index),
		DistanceKm: location.PathLengthKm(c.route, c.index),
		Travelled:  c.travelledLocked(),
		Full:       c.route.Coordinates(len(c.route)),
		At:         time.Now(),
	}
}
