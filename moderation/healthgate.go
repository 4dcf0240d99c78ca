package moderation

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// HealthGate backed by live platform permission checks, with a short TTL
// cache so a fan-out over many targets does not re-probe every chat on every
// action.
type PlatformHealthGate struct {
	logger   *slog.Logger
	platform ChatPlatform
	cache    *expirable.LRU[int64, bool]
}

func NewPlatformHealthGate(logger *slog.Logger, platform ChatPlatform, capacity int, ttl time.Duration) *PlatformHealthGate {
	if capacity <= 0 {
		capacity = 1024
	}
	return &PlatformHealthGate{
		logger:   logger.With("component", "healthgate"),
		platform: platform,
		cache:    expirable.NewLRU[int64, bool](capacity, nil, ttl),
	}
}

func (g *PlatformHealthGate) FilterHealthy(ctx context.Context, targets []Target) []Target {
	healthy := make([]Target, 0, len(targets))
	for _, t := range targets {
		ok, cached := g.cache.Get(t.ID)
		if !cached {
			var err error
			ok, err = g.platform.CanModerate(ctx, t.ID)
			if err != nil {
				// probe failure counts as unhealthy, but is not cached:
				// the next action gets a fresh look
				g.logger.Warn("health probe failed", "chatID", t.ID, "err", err)
				continue
			}
			g.cache.Add(t.ID, ok)
		}
		if ok {
			healthy = append(healthy, t)
		}
	}
	return healthy
}
