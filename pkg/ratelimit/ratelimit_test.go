package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory(limit int, window time.Duration) (*Memory, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
	return newMemory(Rule{Limit: limit, Window: window}, time.Hour, clock.Now), clock
}

func TestMemory_FixedWindow(t *testing.T) {
	m, clock := newTestMemory(3, time.Minute)
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := m.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, _ := m.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "4th request in window must be rejected")

	// 其他 key 不受影响
	ok, _ = m.Allow(ctx, "5.6.7.8")
	assert.True(t, ok)

	clock.Advance(59 * time.Second)
	ok, _ = m.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	clock.Advance(time.Second)
	ok, _ = m.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "window expired, counter resets")
}

func TestMemory_Sweep(t *testing.T) {
	m, clock := newTestMemory(1, time.Minute)
	defer m.Close()
	ctx := context.Background()

	_, _ = m.Allow(ctx, "a")
	clock.Advance(30 * time.Second)
	_, _ = m.Allow(ctx, "b")
	assert.Equal(t, 2, m.Len())

	clock.Advance(31 * time.Second)
	m.sweep()
	assert.Equal(t, 1, m.Len())
}

func TestMemory_Concurrent(t *testing.T) {
	m, _ := newTestMemory(50, time.Minute)
	defer m.Close()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Allow(context.Background(), "k"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), allowed.Load())
}

func TestMemory_ZeroWindowDoesNotPanic(t *testing.T) {
	var m *Memory
	require.NotPanics(t, func() {
		m = NewMemory(Rule{Limit: 1, Window: 0}, 0)
	})
	m.Close()
}

func TestMemory_CloseIdempotent(t *testing.T) {
	m := NewMemory(Rule{Limit: 1, Window: 10 * time.Millisecond}, 0)
	time.Sleep(25 * time.Millisecond)
	m.Close()
	m.Close()
}
