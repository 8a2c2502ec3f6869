package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler starts periodic tasks. The controller owns at most one task at a time.
type Scheduler interface {
	// Every calls fn once per interval until the returned task is stopped.
	// d must be positive.
	Every(d time.Duration, fn func()) Task
}

// Task is a handle to a running periodic action.
type Task interface {
	// Stop cancels future firings. It must not block, since it may be
	// called from inside the task's own function, and it is idempotent.
	Stop()
}

// SystemScheduler runs each task on its own ticker goroutine. Clock defaults
// to the real clock. Firings missed while fn is still running are dropped,
// not queued.
type SystemScheduler struct {
	Clock clockwork.Clock
}

func (s SystemScheduler) Every(d time.Duration, fn func()) Task {
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	t := &tickerTask{done: make(chan struct{})}
	ticker := clock.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.Chan():
				// Stop may have raced with the tick.
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return t
}

type tickerTask struct {
	done chan struct{}
	once sync.Once
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}
