package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: baseTime}
	s := NewMemory(WithClock(clock.Now))

	_, ok, err := s.Get(ctx, "acme:acme.dev")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "acme:acme.dev", sampleResult()))

	got, ok, err := s.Get(ctx, "acme:acme.dev")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)
}

func TestMemoryStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: baseTime}
	s := NewMemory(WithClock(clock.Now))
	require.NoError(t, s.Put(ctx, "k", sampleResult()))

	clock.Advance(time.Hour)
	_, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok, "exactly one TTL old is still fresh")

	clock.Advance(time.Millisecond)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "stale entry evicted on read")
}

func TestMemoryStore_OverwriteRefreshesStamp(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: baseTime}
	s := NewMemory(WithClock(clock.Now), WithTTL(10*time.Minute))

	require.NoError(t, s.Put(ctx, "k", sampleResult()))
	clock.Advance(8 * time.Minute)

	updated := sampleResult()
	updated.Summary = "updated"
	require.NoError(t, s.Put(ctx, "k", updated))
	clock.Advance(8 * time.Minute)

	got, ok, _ := s.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "updated", got.Summary)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	in := sampleResult()
	require.NoError(t, s.Put(ctx, "k", in))

	in.Keywords[0] = "mutated"
	got, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "ci", got.Keywords[0])

	got.Summary = "mutated"
	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "Acme builds developer tooling.", again.Summary)
}

func TestMemoryStore_Evict(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Put(ctx, "k", sampleResult()))
	require.NoError(t, s.Evict(ctx, "k"))
	require.NoError(t, s.Evict(ctx, "missing"))

	_, ok, _ := s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Put(ctx, "k", sampleResult())
			_, _, _ = s.Get(ctx, "k")
		}()
	}
	wg.Wait()

	_, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)
}
