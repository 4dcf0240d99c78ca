package moderation

import "time"

// Typed outcome of handling one Intent. Handlers never return errors to
// callers; failures are folded into the result so calling code (including
// the web layer) can render success/partial-success/failure without
// unwinding.
type Result struct {
	Kind    ActionKind
	Success bool

	// Cross-chat fan-out accounting. Zero for single-chat actions.
	ChatsAffected int
	ChatsFailed   int
	ChatsSkipped  int

	// Human-readable failure text, empty on success.
	ErrorMessage string

	// Set on ban and spam-ban: the caller should chain a revoke-trust
	// intent. Chaining is never performed inside a handler.
	ShouldRevokeTrust bool
	// Set on unban when trusted status was re-granted.
	TrustRestored bool
	// Set on delete and spam-ban when the offending message was removed.
	MessageDeleted bool
	// Post-increment warning count, set on warn.
	WarningCount int
	// When a temp-ban or restriction lapses.
	ExpiresAt *time.Time
}

func failedResult(kind ActionKind, msg string) Result {
	return Result{Kind: kind, ErrorMessage: msg}
}
