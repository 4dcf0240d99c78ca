package moderation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Aggregate outcome of fanning one action out across targets.
type CrossTargetResult struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// ExecuteAcrossTargets runs the action against every healthy active target
// with bounded concurrency. Each per-target execution is isolated: an error
// or panic in one target is counted as failed and never cancels siblings.
// Targets complete in no particular order.
func (e *Engine) ExecuteAcrossTargets(ctx context.Context, label string, action func(ctx context.Context, target Target) error) CrossTargetResult {
	ctx, span := tracer.Start(ctx, "ExecuteAcrossTargets")
	defer span.End()

	start := time.Now()
	log := e.Logger.With("action", label)

	targets, err := e.Targets.ListActive(ctx)
	if err != nil {
		log.Error("listing targets failed, nothing attempted", "err", err)
		return CrossTargetResult{}
	}

	healthy := e.Health.FilterHealthy(ctx, targets)
	skipped := len(targets) - len(healthy)
	if skipped > 0 {
		healthyIDs := make(map[int64]bool, len(healthy))
		for _, t := range healthy {
			healthyIDs[t.ID] = true
		}
		for _, t := range targets {
			if !healthyIDs[t.ID] {
				log.Warn("skipping unhealthy target", "chatID", t.ID, "title", t.Title)
				targetsSkipped.WithLabelValues(label).Inc()
			}
		}
	}

	var succeeded, failed atomic.Int64
	// single point of backpressure against the platform
	sem := semaphore.NewWeighted(e.concurrency())
	var wg sync.WaitGroup
	for _, t := range healthy {
		if err := sem.Acquire(ctx, 1); err != nil {
			// cancelled mid-fanout: remaining targets are counted, never
			// silently lost
			failed.Add(1)
			continue
		}
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					log.Error("per-target action panicked", "chatID", t.ID, "err", r)
					failed.Add(1)
				}
			}()
			if e.PlatformLimiter != nil {
				if err := e.PlatformLimiter.Wait(ctx); err != nil {
					failed.Add(1)
					return
				}
			}
			if err := action(ctx, t); err != nil {
				log.Warn("per-target action failed", "chatID", t.ID, "err", err)
				failed.Add(1)
				return
			}
			succeeded.Add(1)
		}(t)
	}
	wg.Wait()

	res := CrossTargetResult{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Skipped:   skipped,
	}
	crossTargetDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	log.Info("cross-target action finished", "succeeded", res.Succeeded, "failed", res.Failed, "skipped", res.Skipped)
	return res
}
