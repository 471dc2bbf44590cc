package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/session"
)

// testClient connects to TEST_REDIS_ADDR or skips
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSessionStorageRoundTrip(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	storage := NewSessionStorage(rdb, time.Minute)

	sess, err := session.Bootstrap(ctx, storage, "")
	require.NoError(t, err)
	assert.True(t, sess.IsNew())
	t.Cleanup(func() { rdb.Del(ctx, sessionKey(sess.ID()), storeKey(sess.ID()), backupKey(sess.ID())) })

	require.NoError(t, sess.Remember(ctx, "mystore"))
	require.NoError(t, sess.WriteBackup(ctx, "mystore", 3, 59950))

	again, err := session.Bootstrap(ctx, storage, sess.ID())
	require.NoError(t, err)
	assert.False(t, again.IsNew())
	assert.Equal(t, "mystore", again.LastStore())

	backup, err := again.ReadBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, backup.ItemCount)
	assert.Equal(t, int64(59950), backup.TotalPrice)

	require.NoError(t, again.InvalidateBackup(ctx))
	_, err = again.ReadBackup(ctx)
	assert.ErrorIs(t, err, session.ErrNoBackup)
}

func TestLockerExcludesSecondHolder(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	locker := NewLocker(rdb)
	key := "checkout:lock:test-" + uuid.NewString()

	release, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key, time.Minute)
	assert.ErrorIs(t, err, checkout.ErrCheckoutInProgress)

	release()
	release2, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	release2()
}

func TestAttemptStoreMissing(t *testing.T) {
	rdb := testClient(t)

	_, err := NewAttemptStore(rdb).Load(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, checkout.ErrAttemptNotFound)
}

func TestRateLimiter(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	limiter := NewRateLimiter(rdb, 2, time.Minute)
	key := "test-" + uuid.NewString()

	allowed, remaining, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, _, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestUnreachableRedisIsStorageError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	_, err := NewLocker(rdb).Acquire(ctx, "checkout:lock:test", time.Second)
	assert.ErrorIs(t, err, cart.ErrStorage)
	assert.NotErrorIs(t, err, checkout.ErrCheckoutInProgress)

	_, err = NewAttemptStore(rdb).Load(ctx, uuid.NewString())
	assert.ErrorIs(t, err, cart.ErrStorage)
	assert.NotErrorIs(t, err, checkout.ErrAttemptNotFound)
}
