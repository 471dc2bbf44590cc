// internal/domain/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BackupVersion is the layout version of the cart backup snapshot
const BackupVersion = 1

// ErrNoBackup is returned when a session has no cart backup snapshot
var ErrNoBackup = errors.New("no cart backup for session")

// Session is the anonymous buyer session. It is a cart partition key,
// not a security boundary.
type Session struct {
	ID           string    `json:"session_id"`
	StoreContext string    `json:"store_context,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Backup is the non-authoritative cart snapshot kept for "we found your
// previous cart" messaging. It is never replayed into the record store.
type Backup struct {
	Version    int       `json:"version"`
	SessionID  string    `json:"session_id"`
	StoreName  string    `json:"store_name"`
	Timestamp  time.Time `json:"timestamp"`
	ItemCount  int       `json:"item_count"`
	TotalPrice int64     `json:"total_price"`
}

// Storage is the persistence adapter for session-owned keys: the session
// token record, the last visited store and the cart backup blob. Nothing else
// writes these keys.
type Storage interface {
	// Touch loads the session record, creating it when missing.
	Touch(ctx context.Context, sessionID string) (*Session, bool, error)
	SetLastStore(ctx context.Context, sessionID, storeIdentifier string) error
	SaveBackup(ctx context.Context, backup Backup) error
	// LoadBackup returns ErrNoBackup when nothing is stored.
	LoadBackup(ctx context.Context, sessionID string) (*Backup, error)
	ClearBackup(ctx context.Context, sessionID string) error
}

// Context is the per-request session handle. It replaces a process-wide
// "last known store" slot: the resolver and cart manager receive it
// explicitly and the HTTP bootstrap owns its lifecycle.
type Context struct {
	id        string
	createdAt time.Time
	lastStore string
	isNew     bool
	storage   Storage
}

// NewID generates a fresh opaque session token
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like a token we issued
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Bootstrap derives the session for a request. An empty or malformed id gets
// a new token.
func Bootstrap(ctx context.Context, storage Storage, id string) (*Context, error) {
	if !ValidID(id) {
		id = NewID()
	}

	sess, created, err := storage.Touch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &Context{
		id:        sess.ID,
		createdAt: sess.CreatedAt,
		lastStore: sess.StoreContext,
		isNew:     created,
		storage:   storage,
	}, nil
}

// ID returns the session token
func (c *Context) ID() string { return c.id }

// CreatedAt returns when the session was first seen
func (c *Context) CreatedAt() time.Time { return c.createdAt }

// IsNew reports whether this request created the session
func (c *Context) IsNew() bool { return c.isNew }

// LastStore returns the canonical identifier of the last resolved store, or ""
func (c *Context) LastStore() string { return c.lastStore }

// Remember records the canonical identifier of a resolved store so routes
// without a tenant hint can recover it.
func (c *Context) Remember(ctx context.Context, storeIdentifier string) error {
	if storeIdentifier == "" || storeIdentifier == c.lastStore {
		return nil
	}
	if err := c.storage.SetLastStore(ctx, c.id, storeIdentifier); err != nil {
		return fmt.Errorf("failed to remember store: %w", err)
	}
	c.lastStore = storeIdentifier
	return nil
}

// WriteBackup stores the cart snapshot for this session
func (c *Context) WriteBackup(ctx context.Context, storeName string, itemCount int, totalPrice int64) error {
	return c.storage.SaveBackup(ctx, Backup{
		Version:    BackupVersion,
		SessionID:  c.id,
		StoreName:  storeName,
		Timestamp:  time.Now().UTC(),
		ItemCount:  itemCount,
		TotalPrice: totalPrice,
	})
}

// ReadBackup returns the stored cart snapshot
func (c *Context) ReadBackup(ctx context.Context) (*Backup, error) {
	return c.storage.LoadBackup(ctx, c.id)
}

// InvalidateBackup drops the cart snapshot
func (c *Context) InvalidateBackup(ctx context.Context) error {
	return c.storage.ClearBackup(ctx, c.id)
}
