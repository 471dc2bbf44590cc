package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps session keys in process memory. It backs tests and
// single-node development runs without Redis.
type MemoryStorage struct {
	mu       sync.Mutex
	sessions map[string]Session
	backups  map[string]Backup
}

// NewMemoryStorage creates an empty in-memory session storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]Session),
		backups:  make(map[string]Backup),
	}
}

func (m *MemoryStorage) Touch(ctx context.Context, sessionID string) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[sessionID]; ok {
		return &sess, false, nil
	}
	sess := Session{ID: sessionID, CreatedAt: time.Now().UTC()}
	m.sessions[sessionID] = sess
	return &sess, true, nil
}

func (m *MemoryStorage) SetLastStore(ctx context.Context, sessionID, storeIdentifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		sess = Session{ID: sessionID, CreatedAt: time.Now().UTC()}
	}
	sess.StoreContext = storeIdentifier
	m.sessions[sessionID] = sess
	return nil
}

func (m *MemoryStorage) SaveBackup(ctx context.Context, backup Backup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups[backup.SessionID] = backup
	return nil
}

func (m *MemoryStorage) LoadBackup(ctx context.Context, sessionID string) (*Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	backup, ok := m.backups[sessionID]
	if !ok {
		return nil, ErrNoBackup
	}
	return &backup, nil
}

func (m *MemoryStorage) ClearBackup(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.backups, sessionID)
	return nil
}
