package moderation

import (
	"context"
	"time"
)

// One chat/group the system moderates. Actions may fan out across many
// targets.
type Target struct {
	ID    int64
	Title string
}

// Source of the set of chats currently under management.
type TargetRegistry interface {
	// Returns all active, non-deleted targets.
	ListActive(ctx context.Context) ([]Target, error)
}

// Filters out targets the system currently cannot act upon (eg, the bot
// lost its restrict-members permission there).
type HealthGate interface {
	FilterHealthy(ctx context.Context, targets []Target) []Target
}

// Injected chat-platform capability. Transport and wire format live in the
// implementing package; handlers and the cross-target executor only see this
// surface. Platform ban/unban calls are expected to be idempotent.
type ChatPlatform interface {
	// A zero `until` bans permanently.
	BanMember(ctx context.Context, chatID, userID int64, until time.Time) error
	UnbanMember(ctx context.Context, chatID, userID int64) error
	RestrictMember(ctx context.Context, chatID, userID int64, until time.Time) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	SendMessage(ctx context.Context, chatID int64, text string) error
	// Whether the bot holds the permissions needed to moderate the chat.
	CanModerate(ctx context.Context, chatID int64) (bool, error)
}
