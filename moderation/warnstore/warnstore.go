package warnstore

import "context"

// Per-user warning counters. Warnings only ever grow until explicitly reset
// (eg, when a user is trusted or banned).
type WarnStore interface {
	// Increments and returns the post-increment count.
	Add(ctx context.Context, userID int64) (int, error)
	Count(ctx context.Context, userID int64) (int, error)
	Reset(ctx context.Context, userID int64) error
}
