package moderation

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Read-only snapshot of a completed action, built by the caller from the
// intent and its result. The dispatcher's only input; carries no references
// to live objects.
type Event struct {
	Kind   ActionKind
	UserID int64
	Actor  Actor
	Reason string

	ChatID    int64
	MessageID int64

	ChatsAffected  int
	ChatsFailed    int
	TrustRevoked   bool
	MessageDeleted bool
	WarningCount   int

	CreatedAt time.Time
}

func EventFromResult(intent Intent, res Result) Event {
	return Event{
		Kind:           intent.Kind,
		UserID:         intent.UserID,
		Actor:          intent.Actor,
		Reason:         intent.Reason,
		ChatID:         intent.ChatID,
		MessageID:      intent.MessageID,
		ChatsAffected:  res.ChatsAffected,
		ChatsFailed:    res.ChatsFailed,
		TrustRevoked:   res.Kind == ActionRevokeTrust && res.Success,
		MessageDeleted: res.MessageDeleted,
		WarningCount:   res.WarningCount,
		CreatedAt:      time.Now(),
	}
}

type FollowUpKind string

const (
	FollowUpNone FollowUpKind = ""
	FollowUpBan  FollowUpKind = "ban"
)

// At most one follow-up is honored per dispatch; the reason names the
// handler that requested it.
type DispatchResult struct {
	FollowUp FollowUpKind
	Reason   string
}

// One side-effect handler. Declares its applicable action kinds as plain
// data; an empty Kinds slice means "applies to every kind". Handlers with
// lower Priority run first.
type EventHandler struct {
	Name     string
	Priority int
	Kinds    []ActionKind
	Handle   func(ctx context.Context, evt *Event) (FollowUpKind, error)
}

func (h *EventHandler) applies(kind ActionKind) bool {
	if len(h.Kinds) == 0 {
		return true
	}
	for _, k := range h.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Dispatcher runs side-effect handlers (audit, escalation, notification)
// after an action completes. Handlers run strictly in priority order, never
// concurrently: later handlers may depend on state mutated by earlier ones,
// and only the first follow-up may win.
type Dispatcher struct {
	logger   *slog.Logger
	handlers []EventHandler
}

// The handler list is fixed at construction; sorting is stable so equal
// priorities keep registration order.
func NewDispatcher(logger *slog.Logger, handlers ...EventHandler) *Dispatcher {
	sorted := make([]EventHandler, len(handlers))
	copy(sorted, handlers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		handlers: sorted,
	}
}

// Dispatch runs every applicable handler and returns the collected result.
// A handler failure (error or panic) is logged and never suppresses the
// remaining handlers. The caller decides whether to construct and execute
// the follow-up intent; the dispatcher never recurses.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *Event) DispatchResult {
	var out DispatchResult
	for i := range d.handlers {
		h := &d.handlers[i]
		if !h.applies(evt.Kind) {
			continue
		}
		fu, err := d.invoke(ctx, h, evt)
		if err != nil {
			d.logger.Error("side-effect handler failed", "handler", h.Name, "kind", evt.Kind, "userID", evt.UserID, "err", err)
			dispatchErrors.WithLabelValues(h.Name).Inc()
			continue
		}
		if fu == FollowUpNone {
			continue
		}
		if out.FollowUp != FollowUpNone {
			// first follow-up wins; later requests are recorded but dropped
			d.logger.Info("dropping extra follow-up request", "handler", h.Name, "followUp", fu, "winner", out.Reason)
			dispatchFollowUpsDropped.WithLabelValues(h.Name).Inc()
			continue
		}
		out.FollowUp = fu
		out.Reason = "requested by " + h.Name
		dispatchFollowUps.WithLabelValues(h.Name, string(fu)).Inc()
	}
	return out
}

func (d *Dispatcher) invoke(ctx context.Context, h *EventHandler, evt *Event) (fu FollowUpKind, err error) {
	defer func() {
		if r := recover(); r != nil {
			fu = FollowUpNone
			err = recoveredError(r)
		}
	}()
	return h.Handle(ctx, evt)
}
