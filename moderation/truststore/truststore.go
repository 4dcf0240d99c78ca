package truststore

import (
	"context"
)

// Tracks which users are trusted (exempt from spam scoring and auto-actions).
// Global trust is a single per-user flag; chat-scoped trust grants exist so
// revocation can be limited to one chat.
type TrustStore interface {
	IsTrusted(ctx context.Context, userID int64) (bool, error)
	SetTrusted(ctx context.Context, userID int64, trusted bool) error
	// Grants trust scoped to a single chat.
	SetTrustedInChat(ctx context.Context, userID, chatID int64) error
	// Removes trust grants for the user. A nil chatID expires everything,
	// including the global flag; otherwise only the one chat grant.
	ExpireTrustsForUser(ctx context.Context, userID int64, chatID *int64) error
}
