package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
)

// AttemptStore keeps gateway checkout attempts under checkout:attempt:{id}
type AttemptStore struct {
	rdb *redis.Client
}

// NewAttemptStore creates an AttemptStore
func NewAttemptStore(rdb *redis.Client) *AttemptStore {
	return &AttemptStore{rdb: rdb}
}

func attemptKey(id string) string { return fmt.Sprintf("checkout:attempt:%s", id) }

func (s *AttemptStore) Save(ctx context.Context, attempt *checkout.Attempt, ttl time.Duration) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, attemptKey(attempt.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save checkout attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Load(ctx context.Context, id string) (*checkout.Attempt, error) {
	raw, err := s.rdb.Get(ctx, attemptKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, checkout.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load checkout attempt: %w", cart.ErrStorage, err)
	}

	var attempt checkout.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return nil, fmt.Errorf("failed to decode checkout attempt: %w", err)
	}
	return &attempt, nil
}

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a single-node SET NX lock
type Locker struct {
	rdb *redis.Client
}

// NewLocker creates a Locker
func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to acquire lock %s: %w", cart.ErrStorage, key, err)
	}
	if !ok {
		return nil, checkout.ErrCheckoutInProgress
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		releaseScript.Run(releaseCtx, l.rdb, []string{key}, token)
	}, nil
}
