package auditstore

import (
	"context"
	"time"
)

// One auditable moderation outcome. Flattened snapshot, no references to
// live objects.
type Entry struct {
	Action     string
	UserID     int64
	ActorLabel string
	Reason     string

	ChatID    int64
	MessageID int64

	ChatsAffected  int
	ChatsFailed    int
	WarningCount   int
	TrustRevoked   bool
	MessageDeleted bool

	CreatedAt time.Time
}

type AuditSink interface {
	Record(ctx context.Context, entry *Entry) error
}
