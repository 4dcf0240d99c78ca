package chatstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/groupwarden/warden/moderation"
)

func TestMemRegistry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	r := NewMemRegistry(
		moderation.Target{ID: 1, Title: "general"},
		moderation.Target{ID: 2, Title: "offtopic"},
	)

	targets, err := r.ListActive(ctx)
	assert.NoError(err)
	assert.Len(targets, 2)

	r.Add(moderation.Target{ID: 3, Title: "support"})
	r.Remove(1)

	targets, err = r.ListActive(ctx)
	assert.NoError(err)
	assert.Len(targets, 2)
	ids := map[int64]bool{}
	for _, tgt := range targets {
		ids[tgt.ID] = true
	}
	assert.True(ids[2])
	assert.True(ids[3])
}

func TestGormRegistry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(err)

	r, err := NewGormRegistry(db)
	require.NoError(err)

	require.NoError(r.Upsert(ctx, moderation.Target{ID: 1001, Title: "general"}, true))
	require.NoError(r.Upsert(ctx, moderation.Target{ID: 1002, Title: "offtopic"}, true))
	require.NoError(r.Upsert(ctx, moderation.Target{ID: 1003, Title: "archive"}, false))

	targets, err := r.ListActive(ctx)
	assert.NoError(err)
	assert.Len(targets, 2)

	// upsert of an existing chat updates in place, no duplicate row
	require.NoError(r.Upsert(ctx, moderation.Target{ID: 1001, Title: "general-renamed"}, true))
	targets, err = r.ListActive(ctx)
	assert.NoError(err)
	assert.Len(targets, 2)
	for _, tgt := range targets {
		if tgt.ID == 1001 {
			assert.Equal("general-renamed", tgt.Title)
		}
	}

	// deactivation removes the chat from fan-out without deleting history
	require.NoError(r.Upsert(ctx, moderation.Target{ID: 1002, Title: "offtopic"}, false))
	targets, err = r.ListActive(ctx)
	assert.NoError(err)
	assert.Len(targets, 1)
	assert.Equal(int64(1001), targets[0].ID)
}
