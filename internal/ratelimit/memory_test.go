package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBurst(t *testing.T) {
	m := NewMemoryLimiter(10, 3) // 10 rps, burst 3
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := m.Allow(ctx, "ip:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be within burst", i)
	}

	ok, err := m.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok, "burst exhausted")
}

func TestMemoryLimiterRefill(t *testing.T) {
	// 1000 tokens/s means roughly one token per millisecond.
	m := NewMemoryLimiter(1000, 2)
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := m.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := m.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, err = m.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "tokens should refill over time")
}

func TestMemoryLimiterIndependentKeys(t *testing.T) {
	m := NewMemoryLimiter(1, 1)
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	ok, err := m.Allow(ctx, "user:a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Allow(ctx, "user:b")
	require.NoError(t, err)
	assert.True(t, ok, "a second key gets its own bucket")
}

func TestMemoryLimiterConcurrentAccess(t *testing.T) {
	m := NewMemoryLimiter(1000, 100)
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = m.Allow(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}

func TestPerMinute(t *testing.T) {
	m := PerMinute(5)
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ok, err := m.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := m.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIPKeyFunc(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:54321"
	assert.Equal(t, "192.0.2.7", IPKeyFunc(r))
}
