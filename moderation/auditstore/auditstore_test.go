package auditstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormAuditStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(err)

	store, err := NewGormAuditStore(db)
	require.NoError(err)

	require.NoError(store.Record(ctx, &Entry{
		Action:        "ban",
		UserID:        7,
		ActorLabel:    "system",
		Reason:        "spam detected",
		ChatsAffected: 3,
	}))
	require.NoError(store.Record(ctx, &Entry{
		Action:       "warn",
		UserID:       7,
		ActorLabel:   "web:42 (alice)",
		Reason:       "off-topic flooding",
		WarningCount: 1,
	}))
	require.NoError(store.Record(ctx, &Entry{
		Action:     "ban",
		UserID:     8,
		ActorLabel: "system",
	}))

	entries, err := store.ListForUser(ctx, 7, 10)
	assert.NoError(err)
	require.Len(entries, 2)
	for _, e := range entries {
		assert.Equal(int64(7), e.UserID)
	}

	// limit applies
	entries, err = store.ListForUser(ctx, 7, 1)
	assert.NoError(err)
	assert.Len(entries, 1)

	// unknown user is empty, not an error
	entries, err = store.ListForUser(ctx, 999, 10)
	assert.NoError(err)
	assert.Empty(entries)
}
