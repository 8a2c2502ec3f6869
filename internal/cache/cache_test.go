package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache[T any](t *testing.T, ttl time.Duration) (*Cache[T], *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	c := New[T](ttl)
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

func TestGetSetExpire(t *testing.T) {
	c, clock := newTestCache[string](t, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", "route")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "route", v)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size(), "expired items stay until cleanup runs")

	c.removeExpired()
	assert.Zero(t, c.Size())
}

func TestNonPositiveTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache[int](t, 0)

	c.Set("a", 1)
	clock.Advance(24 * time.Hour)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache[int](t, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	c.Delete("b")
	assert.Zero(t, c.Size())
}

func TestGetOrLoad(t *testing.T) {
	t.Run("caches successful loads", func(t *testing.T) {
		c, _ := newTestCache[int](t, time.Minute)
		var calls int
		load := func() (int, error) {
			calls++
			return 42, nil
		}

		for i := 0; i < 3; i++ {
			v, err := c.GetOrLoad("k", load)
			require.NoError(t, err)
			assert.Equal(t, 42, v)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("does not cache errors", func(t *testing.T) {
		c, _ := newTestCache[int](t, time.Minute)
		boom := errors.New("boom")
		var calls int

		_, err := c.GetOrLoad("k", func() (int, error) {
			calls++
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)

		v, err := c.GetOrLoad("k", func() (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, 2, calls)
	})

	t.Run("shares concurrent loads", func(t *testing.T) {
		c, _ := newTestCache[int](t, time.Minute)
		var calls atomic.Int32
		release := make(chan struct{})

		var wg sync.WaitGroup
		results := make([]int, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := c.GetOrLoad("k", func() (int, error) {
					calls.Add(1)
					<-release
					return 9, nil
				})
				assert.NoError(t, err)
				results[i] = v
			}(i)
		}

		// Let the goroutines pile up behind the first load before releasing it.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, v := range results {
			assert.Equal(t, 9, v)
		}
		assert.LessOrEqual(t, calls.Load(), int32(len(results)))
		v, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, 9, v)
	})
}

func TestGetOrLoadContext(t *testing.T) {
	c, _ := newTestCache[int](t, time.Minute)
	started, release := make(chan struct{}), make(chan struct{})
	load := func() (int, error) {
		close(started)
		<-release
		return 5, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoadContext(ctx, "k", load)
		errc <- err
	}()
	<-started

	shared := make(chan int, 1)
	go func() {
		v, err := c.GetOrLoadContext(context.Background(), "k", func() (int, error) {
			t.Error("second caller must join the running load")
			return 0, nil
		})
		assert.NoError(t, err)
		shared <- v
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	assert.Equal(t, 5, <-shared, "a cancelled waiter does not fail the others")

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New[int](time.Minute)
	c.Close()
	c.Close()
}
