package refetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDedup(t *testing.T) {
	assert := assert.New(t)

	f := NewFetcher(slog.Default(), &FetcherOptions{Capacity: 10, Workers: 1})
	req := Request{TargetID: 42, SubKind: "avatar", Kind: KindProfileImage}

	assert.True(f.Enqueue(req))
	// identical key while the first is outstanding: rejected
	assert.False(f.Enqueue(req))
	assert.Equal(1, f.QueueDepth())

	// a different key is unrelated
	assert.True(f.Enqueue(Request{TargetID: 43, SubKind: "avatar", Kind: KindProfileImage}))

	// completion releases the key; re-enqueue is accepted again
	f.MarkCompleted(req)
	assert.True(f.Enqueue(req))
}

func TestEnqueueOverflowDropsOldest(t *testing.T) {
	assert := assert.New(t)

	f := NewFetcher(slog.Default(), &FetcherOptions{Capacity: 3, Workers: 1})
	for i := int64(1); i <= 3; i++ {
		assert.True(f.Enqueue(Request{TargetID: i, Kind: KindContent}))
	}
	assert.Equal(3, f.QueueDepth())

	// capacity+1th distinct key: the oldest queued item is evicted, not the
	// newest
	assert.True(f.Enqueue(Request{TargetID: 4, Kind: KindContent}))
	assert.Equal(3, f.QueueDepth())

	var queued []int64
	for len(f.queue) > 0 {
		queued = append(queued, (<-f.queue).TargetID)
	}
	assert.Equal([]int64{2, 3, 4}, queued)

	// the evicted item's key was released, so it can be queued again
	assert.True(f.Enqueue(Request{TargetID: 1, Kind: KindContent}))
}

func TestWorkerProcessesAndReleasesKey(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := NewFetcher(slog.Default(), &FetcherOptions{Capacity: 10, Workers: 2})

	var lk sync.Mutex
	fetched := make(map[int64]int)
	done := make(chan struct{}, 16)
	f.HandleContentFetch = func(ctx context.Context, req Request) error {
		lk.Lock()
		fetched[req.TargetID]++
		lk.Unlock()
		done <- struct{}{}
		return nil
	}
	f.HandleProfileImageFetch = func(ctx context.Context, req Request) error {
		done <- struct{}{}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	req := Request{TargetID: 7, Kind: KindContent}
	require.True(f.Enqueue(req))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never processed the request")
	}

	// the key must be free again after completion
	assert.Eventually(func() bool {
		return f.Enqueue(req)
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never processed the re-enqueued request")
	}

	lk.Lock()
	defer lk.Unlock()
	assert.Equal(2, fetched[7])
}

func TestWorkerSurvivesFailuresAndPanics(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f := NewFetcher(slog.Default(), &FetcherOptions{Capacity: 10, Workers: 1})

	done := make(chan int64, 16)
	f.HandleContentFetch = func(ctx context.Context, req Request) error {
		defer func() { done <- req.TargetID }()
		switch req.TargetID {
		case 1:
			return fmt.Errorf("upstream said no")
		case 2:
			panic("boom")
		}
		return nil
	}
	f.HandleProfileImageFetch = func(ctx context.Context, req Request) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	require.True(f.Enqueue(Request{TargetID: 1, Kind: KindContent}))
	require.True(f.Enqueue(Request{TargetID: 2, Kind: KindContent}))
	require.True(f.Enqueue(Request{TargetID: 3, Kind: KindContent}))

	// the single worker keeps going past the error and the panic
	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("worker stalled after %d items", i)
		}
	}
	assert.True(seen[3])

	// all keys released, including the failed and panicked ones
	assert.Eventually(func() bool {
		return f.Enqueue(Request{TargetID: 1, Kind: KindContent}) &&
			f.Enqueue(Request{TargetID: 2, Kind: KindContent})
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnqueueConcurrentSameKey(t *testing.T) {
	assert := assert.New(t)

	f := NewFetcher(slog.Default(), &FetcherOptions{Capacity: 100, Workers: 1})
	req := Request{TargetID: 9, SubKind: "avatar", Kind: KindProfileImage}

	// run with `-race`: exactly one of many racing producers may win
	var wg sync.WaitGroup
	var wins int32
	var lk sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.Enqueue(req) {
				lk.Lock()
				wins++
				lk.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(int32(1), wins)
	assert.Equal(1, f.QueueDepth())
}

func TestDedupKeyDeterministic(t *testing.T) {
	assert := assert.New(t)

	a := Request{TargetID: 5, SubKind: "avatar", Kind: KindProfileImage}
	b := Request{TargetID: 5, SubKind: "avatar", Kind: KindProfileImage}
	c := Request{TargetID: 5, SubKind: "avatar", Kind: KindContent}
	assert.Equal(a.DedupKey(), b.DedupKey())
	assert.NotEqual(a.DedupKey(), c.DedupKey())
}
