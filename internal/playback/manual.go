package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ManualScheduler drives tasks from a clockwork fake clock for deterministic
// tests. Nothing fires until Advance, and due tasks run on the goroutine
// calling Advance. Advance must not be called concurrently with itself.
type ManualScheduler struct {
	clock *clockwork.FakeClock
	start time.Time

	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	ticker   clockwork.Ticker
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	stopped bool
}

// NewManualScheduler returns a scheduler over a new fake clock.
func NewManualScheduler() *ManualScheduler {
	clock := clockwork.NewFakeClock()
	return &ManualScheduler{clock: clock, start: clock.Now()}
}

// Clock exposes the fake clock, for code under test that reads the time.
func (s *ManualScheduler) Clock() *clockwork.FakeClock {
	return s.clock
}

func (s *ManualScheduler) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		panic("playback: ManualScheduler.Every with non-positive interval")
	}
	t := &manualTask{ticker: s.clock.NewTicker(d), interval: d, fn: fn}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return t
}

func (t *manualTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.stopped = true
		t.ticker.Stop()
	}
}

func (t *manualTask) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Advance moves the clock forward by d and returns the number of firings.
// The clock moves in steps no longer than the shortest task interval, so
// every period fires once; tasks due within the same step fire in the
// order they were scheduled.
func (s *ManualScheduler) Advance(d time.Duration) int {
	fired := 0
	for d > 0 {
		tasks := s.live()
		step := d
		for _, t := range tasks {
			step = min(step, t.interval)
		}
		s.clock.Advance(step)
		d -= step

		for _, t := range tasks {
			if t.isStopped() {
				continue
			}
			select {
			case <-t.ticker.Chan():
				t.fn()
				fired++
			default:
			}
		}
	}
	return fired
}

// Pending returns the number of tasks that have not been stopped.
func (s *ManualScheduler) Pending() int {
	return len(s.live())
}

// Elapsed returns the virtual time since the scheduler was created.
func (s *ManualScheduler) Elapsed() time.Duration {
	return s.clock.Since(s.start)
}

func (s *ManualScheduler) live() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.isStopped() {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
	return append([]*manualTask(nil), live...)
}
