package truststore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemTrustStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ts := NewMemTrustStore()

	ok, err := ts.IsTrusted(ctx, 123)
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(ts.SetTrusted(ctx, 123, true))
	ok, err = ts.IsTrusted(ctx, 123)
	assert.NoError(err)
	assert.True(ok)

	assert.NoError(ts.SetTrusted(ctx, 123, false))
	ok, err = ts.IsTrusted(ctx, 123)
	assert.NoError(err)
	assert.False(ok)
}

func TestMemTrustStoreChatScoped(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ts := NewMemTrustStore()

	assert.NoError(ts.SetTrustedInChat(ctx, 42, 1001))
	assert.NoError(ts.SetTrustedInChat(ctx, 42, 1002))
	ok, err := ts.IsTrusted(ctx, 42)
	assert.NoError(err)
	assert.True(ok)

	// expiring one chat grant leaves the other
	chat := int64(1001)
	assert.NoError(ts.ExpireTrustsForUser(ctx, 42, &chat))
	ok, err = ts.IsTrusted(ctx, 42)
	assert.NoError(err)
	assert.True(ok)

	// expiring everything clears both scoped grants and the global flag
	assert.NoError(ts.SetTrusted(ctx, 42, true))
	assert.NoError(ts.ExpireTrustsForUser(ctx, 42, nil))
	ok, err = ts.IsTrusted(ctx, 42)
	assert.NoError(err)
	assert.False(ok)
}
