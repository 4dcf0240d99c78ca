// Package moderation implements the moderation action framework: typed
// intents and results, per-kind handlers, a cross-target executor with
// bounded concurrency, and an ordered event dispatcher for side effects.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/groupwarden/warden/moderation/truststore"
	"github.com/groupwarden/warden/moderation/warnstore"
)

var tracer = otel.Tracer("moderation")

// Runtime for executing moderation actions. Handlers are the only place
// that calls the chat platform or mutates trust/ban state.
//
// TODO: careful when initializing: Logger, Platform, Targets, Health, Trust
// and Warnings should all be non-nil.
type Engine struct {
	Logger   *slog.Logger
	Platform ChatPlatform
	Targets  TargetRegistry
	Health   HealthGate
	Trust    truststore.TrustStore
	Warnings warnstore.WarnStore

	// Max concurrent per-target platform calls during a fan-out. Tuned to
	// the platform's rate limits, not an architectural constant.
	// Defaults to 3.
	CrossChatConcurrency int
	// Optional global rate limit on per-target platform calls.
	PlatformLimiter *rate.Limiter

	regOnce  sync.Once
	handlers map[ActionKind]handlerFunc
}

type handlerFunc func(ctx context.Context, intent Intent) Result

// One handler per action kind, registered once. Plain map, no reflection.
func (e *Engine) registry() map[ActionKind]handlerFunc {
	e.regOnce.Do(func() {
		e.handlers = map[ActionKind]handlerFunc{
			ActionBan:              e.handleBan,
			ActionUnban:            e.handleUnban,
			ActionWarn:             e.handleWarn,
			ActionTrust:            e.handleTrust,
			ActionUntrust:          e.handleUntrust,
			ActionRevokeTrust:      e.handleRevokeTrust,
			ActionDelete:           e.handleDelete,
			ActionTempBan:          e.handleTempBan,
			ActionRestrict:         e.handleRestrict,
			ActionMarkAsSpamAndBan: e.handleMarkAsSpamAndBan,
		}
	})
	return e.handlers
}

// HandleIntent executes one intent and always returns a Result; internal
// failures (including panics) are folded into a failed Result rather than
// propagated.
func (e *Engine) HandleIntent(ctx context.Context, intent Intent) (res Result) {
	// similar to an HTTP server, we want to recover any panics from handler execution
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("action handler panicked", "kind", intent.Kind, "userID", intent.UserID, "err", r)
			res = failedResult(intent.Kind, fmt.Sprintf("internal error: %v", r))
		}
	}()

	ctx, span := tracer.Start(ctx, "HandleIntent")
	defer span.End()

	start := time.Now()
	if err := intent.Validate(); err != nil {
		actionCount.WithLabelValues(string(intent.Kind), "invalid").Inc()
		return failedResult(intent.Kind, err.Error())
	}
	h, ok := e.registry()[intent.Kind]
	if !ok {
		actionCount.WithLabelValues(string(intent.Kind), "invalid").Inc()
		return failedResult(intent.Kind, fmt.Sprintf("no handler for action kind: %s", intent.Kind))
	}

	e.Logger.Info("executing action", "kind", intent.Kind, "userID", intent.UserID, "actor", intent.Actor.String(), "reason", intent.Reason)
	res = h(ctx, intent)
	actionDuration.WithLabelValues(string(intent.Kind)).Observe(time.Since(start).Seconds())
	outcome := "failed"
	if res.Success {
		outcome = "ok"
	}
	actionCount.WithLabelValues(string(intent.Kind), outcome).Inc()
	return res
}

func (e *Engine) concurrency() int64 {
	if e.CrossChatConcurrency > 0 {
		return int64(e.CrossChatConcurrency)
	}
	return 3
}
