package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_IssuesTokenForEmptyID(t *testing.T) {
	storage := NewMemoryStorage()

	sess, err := Bootstrap(context.Background(), storage, "")
	require.NoError(t, err)

	assert.True(t, ValidID(sess.ID()))
	assert.True(t, sess.IsNew())
	assert.Empty(t, sess.LastStore())
}

func TestBootstrap_ReplacesMalformedID(t *testing.T) {
	sess, err := Bootstrap(context.Background(), NewMemoryStorage(), "not-a-token")
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-token", sess.ID())
}

func TestBootstrap_RederivesExistingSession(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	first, err := Bootstrap(ctx, storage, "")
	require.NoError(t, err)
	require.NoError(t, first.Remember(ctx, "mystore"))

	second, err := Bootstrap(ctx, storage, first.ID())
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.False(t, second.IsNew())
	assert.Equal(t, "mystore", second.LastStore())
	assert.Equal(t, first.CreatedAt(), second.CreatedAt())
}

func TestContext_BackupLifecycle(t *testing.T) {
	ctx := context.Background()
	sess, err := Bootstrap(ctx, NewMemoryStorage(), "")
	require.NoError(t, err)

	_, err = sess.ReadBackup(ctx)
	require.ErrorIs(t, err, ErrNoBackup)

	require.NoError(t, sess.WriteBackup(ctx, "mystore", 3, 100000))

	backup, err := sess.ReadBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupVersion, backup.Version)
	assert.Equal(t, sess.ID(), backup.SessionID)
	assert.Equal(t, "mystore", backup.StoreName)
	assert.Equal(t, 3, backup.ItemCount)
	assert.Equal(t, int64(100000), backup.TotalPrice)
	assert.False(t, backup.Timestamp.IsZero())

	require.NoError(t, sess.InvalidateBackup(ctx))
	_, err = sess.ReadBackup(ctx)
	assert.ErrorIs(t, err, ErrNoBackup)
}
