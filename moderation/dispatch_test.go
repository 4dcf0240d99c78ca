package moderation

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchFirstFollowUpWins(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	h1 := EventHandler{
		Name:     "first",
		Priority: 1,
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			return FollowUpBan, nil
		},
	}
	h2 := EventHandler{
		Name:     "second",
		Priority: 2,
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			return FollowUpBan, nil
		},
	}
	// register out of order; the dispatcher sorts by priority
	d := NewDispatcher(slog.Default(), h2, h1)

	res := d.Dispatch(ctx, &Event{Kind: ActionWarn, UserID: 7})
	assert.Equal(FollowUpBan, res.FollowUp)
	assert.Equal("requested by first", res.Reason)
}

func TestDispatchSurvivesPanickingHandler(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ran := 0
	h1 := EventHandler{
		Name:     "bomb",
		Priority: 1,
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			panic("boom")
		},
	}
	h2 := EventHandler{
		Name:     "counter",
		Priority: 2,
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			ran++
			return FollowUpNone, nil
		},
	}
	d := NewDispatcher(slog.Default(), h1, h2)

	res := d.Dispatch(ctx, &Event{Kind: ActionBan, UserID: 7})
	assert.Equal(FollowUpNone, res.FollowUp)
	assert.Equal(1, ran)
}

func TestDispatchKindFiltering(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	warnOnly, all := 0, 0
	d := NewDispatcher(slog.Default(),
		EventHandler{
			Name:     "warn-only",
			Priority: 1,
			Kinds:    []ActionKind{ActionWarn},
			Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
				warnOnly++
				return FollowUpNone, nil
			},
		},
		EventHandler{
			Name:     "all-kinds",
			Priority: 2,
			Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
				all++
				return FollowUpNone, nil
			},
		},
	)

	d.Dispatch(ctx, &Event{Kind: ActionBan, UserID: 7})
	d.Dispatch(ctx, &Event{Kind: ActionWarn, UserID: 7})

	assert.Equal(1, warnOnly)
	assert.Equal(2, all)
}

func TestDispatchStableOrderForEqualPriority(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var order []string
	mk := func(name string) EventHandler {
		return EventHandler{
			Name:     name,
			Priority: 5,
			Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
				order = append(order, name)
				return FollowUpNone, nil
			},
		}
	}
	d := NewDispatcher(slog.Default(), mk("a"), mk("b"), mk("c"))

	d.Dispatch(ctx, &Event{Kind: ActionBan, UserID: 7})
	assert.Equal([]string{"a", "b", "c"}, order)
}
