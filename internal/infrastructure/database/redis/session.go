package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/domain/session"
)

// SessionStorage is the session.Storage backed by Redis. It is the only
// writer of the session:{id} key family.
type SessionStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStorage creates a SessionStorage. Every write refreshes ttl.
func NewSessionStorage(rdb *redis.Client, ttl time.Duration) *SessionStorage {
	return &SessionStorage{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s", id) }
func storeKey(id string) string   { return fmt.Sprintf("session:%s:store", id) }
func backupKey(id string) string  { return fmt.Sprintf("session:%s:cart_backup", id) }

func (s *SessionStorage) Touch(ctx context.Context, sessionID string) (*session.Session, bool, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	switch {
	case err == nil:
		var sess session.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, false, fmt.Errorf("failed to decode session: %w", err)
		}
		if last, err := s.rdb.Get(ctx, storeKey(sessionID)).Result(); err == nil {
			sess.StoreContext = last
		}
		s.rdb.Expire(ctx, sessionKey(sessionID), s.ttl)
		return &sess, false, nil
	case !errors.Is(err, redis.Nil):
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}

	sess := session.Session{ID: sessionID, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, false, err
	}
	// SETNX so two first requests of one browser agree on created_at
	created, err := s.rdb.SetNX(ctx, sessionKey(sessionID), payload, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return s.Touch(ctx, sessionID)
	}
	return &sess, true, nil
}

func (s *SessionStorage) SetLastStore(ctx context.Context, sessionID, storeIdentifier string) error {
	if err := s.rdb.Set(ctx, storeKey(sessionID), storeIdentifier, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save store context: %w", err)
	}
	return nil
}

func (s *SessionStorage) SaveBackup(ctx context.Context, backup session.Backup) error {
	payload, err := json.Marshal(backup)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, backupKey(backup.SessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart backup: %w", err)
	}
	return nil
}

func (s *SessionStorage) LoadBackup(ctx context.Context, sessionID string) (*session.Backup, error) {
	raw, err := s.rdb.Get(ctx, backupKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNoBackup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart backup: %w", err)
	}

	var backup session.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return nil, fmt.Errorf("failed to decode cart backup: %w", err)
	}
	if backup.Version != session.BackupVersion {
		return nil, session.ErrNoBackup
	}
	return &backup, nil
}

func (s *SessionStorage) ClearBackup(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, backupKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart backup: %w", err)
	}
	return nil
}
