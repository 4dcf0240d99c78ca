// Package refetch implements a bounded, deduplicating work queue for
// best-effort background fetches (message content, profile images) triggered
// by moderation events.
//
// Delivery is best-effort: under sustained overload the oldest
// queued-but-not-yet-started request is evicted rather than blocking
// producers, and failed fetches are not retried.
package refetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type Kind string

const (
	KindContent      Kind = "content"
	KindProfileImage Kind = "profile-image"
)

// One fetch request. Immutable; constructed by producers, consumed and
// discarded by workers.
type Request struct {
	TargetID int64
	// Disambiguates variants of the same kind (eg, photo size, media type).
	SubKind string
	Kind    Kind
}

// Deterministic key identifying equivalent pending work. Equal keys collapse
// to a single queued request.
func (r Request) DedupKey() string {
	return fmt.Sprintf("%s/%d/%s", r.Kind, r.TargetID, r.SubKind)
}

type FetcherOptions struct {
	// Queue capacity; the oldest unstarted request is dropped on overflow.
	Capacity int
	// Number of worker goroutines consuming the queue.
	Workers int
}

func DefaultFetcherOptions() *FetcherOptions {
	return &FetcherOptions{
		Capacity: 1000,
		Workers:  4,
	}
}

// Fetcher owns the queue, the in-flight dedup set, and the worker pool.
type Fetcher struct {
	Logger *slog.Logger

	// Kind-specific fetch routines. Both must be set before Run.
	HandleContentFetch      func(ctx context.Context, req Request) error
	HandleProfileImageFetch func(ctx context.Context, req Request) error

	workers int
	queue   chan Request
	// dedup key -> enqueue time; a key is present here for the entire
	// window between enqueue and completion
	inflight *xsync.MapOf[string, time.Time]
	// serializes the overflow (drop-oldest) path across producers
	lk sync.Mutex
}

func NewFetcher(logger *slog.Logger, opts *FetcherOptions) *Fetcher {
	if opts == nil {
		opts = DefaultFetcherOptions()
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 1000
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Fetcher{
		Logger:   logger.With("component", "refetch"),
		workers:  opts.Workers,
		queue:    make(chan Request, opts.Capacity),
		inflight: xsync.NewMapOf[string, time.Time](),
	}
}

// Enqueue offers a request to the queue. Returns false without enqueuing
// when an equal dedup key is already outstanding (queued or being worked
// on). Never blocks: when the queue is full the oldest unstarted request is
// silently evicted to make room.
func (f *Fetcher) Enqueue(req Request) bool {
	key := req.DedupKey()
	// atomic check-and-insert; two producers racing on the same key can
	// not both observe "absent"
	if _, loaded := f.inflight.LoadOrStore(key, time.Now()); loaded {
		fetchDuplicates.WithLabelValues(string(req.Kind)).Inc()
		return false
	}

	f.lk.Lock()
	defer f.lk.Unlock()
	for {
		select {
		case f.queue <- req:
			fetchEnqueued.WithLabelValues(string(req.Kind)).Inc()
			fetchQueueDepth.Set(float64(len(f.queue)))
			return true
		default:
		}
		// queue full: evict the oldest unstarted request and release its
		// key so it can be re-queued later
		select {
		case old := <-f.queue:
			f.inflight.Delete(old.DedupKey())
			fetchDropped.WithLabelValues(string(old.Kind)).Inc()
			f.Logger.Warn("refetch queue full, dropping oldest request", "dropped", old.DedupKey(), "enqueuing", key)
		default:
			// a worker raced us to the oldest item; the next loop
			// iteration will find room
		}
	}
}

// MarkCompleted releases the request's dedup key. Workers call this
// unconditionally after processing; it is also safe to call for requests
// that were never enqueued.
func (f *Fetcher) MarkCompleted(req Request) {
	f.inflight.Delete(req.DedupKey())
}

// Number of queued-but-not-yet-started requests.
func (f *Fetcher) QueueDepth() int {
	return len(f.queue)
}

// Run starts the worker pool and blocks until ctx is cancelled. Queued
// requests are abandoned on shutdown (queue state is not persisted).
func (f *Fetcher) Run(ctx context.Context) {
	f.Logger.Info("starting refetch workers", "count", f.workers)
	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			f.runWorker(ctx, n)
		}(i)
	}
	wg.Wait()
}

func (f *Fetcher) runWorker(ctx context.Context, n int) {
	log := f.Logger.With("worker", n)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-f.queue:
			fetchQueueDepth.Set(float64(len(f.queue)))
			f.process(ctx, log, req)
		}
	}
}

// One item. A failure (error or panic) is logged and dropped; the worker
// loop continues, and the dedup key is always released.
func (f *Fetcher) process(ctx context.Context, log *slog.Logger, req Request) {
	defer f.MarkCompleted(req)
	defer func() {
		if r := recover(); r != nil {
			log.Error("refetch handler panicked", "err", r, "key", req.DedupKey())
			fetchErrors.WithLabelValues(string(req.Kind)).Inc()
		}
	}()

	start := time.Now()
	var err error
	switch req.Kind {
	case KindContent:
		err = f.HandleContentFetch(ctx, req)
	case KindProfileImage:
		err = f.HandleProfileImageFetch(ctx, req)
	default:
		log.Error("unknown refetch kind", "kind", req.Kind)
		return
	}
	fetchDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		// not retried; bounds worst-case resource use
		log.Warn("refetch failed", "key", req.DedupKey(), "err", err)
		fetchErrors.WithLabelValues(string(req.Kind)).Inc()
		return
	}
	fetchProcessed.WithLabelValues(string(req.Kind)).Inc()
}
