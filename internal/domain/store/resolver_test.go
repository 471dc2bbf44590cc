package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/retry"
)

var errDBDown = errors.New("dial tcp: connection refused")

// flakyRepository fails the first failures calls with errDBDown
type flakyRepository struct {
	Repository
	failures int
	calls    int
}

func (f *flakyRepository) FindByUsername(ctx context.Context, username string) (*Store, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errDBDown
	}
	return f.Repository.FindByUsername(ctx, username)
}

func testPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func seededRepo() *MemoryRepository {
	return NewMemoryRepository(
		Store{Username: "mystore", Name: "My Store", IsActive: true},
		Store{Username: "acme-goods", Name: "Acme Goods", IsActive: true},
		Store{Username: "closed", Name: "Closed Shop", IsActive: false},
	)
}

func newSession(t *testing.T) *session.Context {
	t.Helper()
	sess, err := session.Bootstrap(context.Background(), session.NewMemoryStorage(), "")
	require.NoError(t, err)
	return sess
}

func TestResolver_CaseInsensitiveUsername(t *testing.T) {
	r := NewResolver(seededRepo(), testPolicy(), logger.Discard(), nil)

	upper, err := r.Resolve(context.Background(), newSession(t), "MyStore")
	require.NoError(t, err)
	lower, err := r.Resolve(context.Background(), newSession(t), "mystore")
	require.NoError(t, err)

	assert.Equal(t, upper.Store.ID, lower.Store.ID)
	assert.Equal(t, "mystore", upper.CanonicalIdentifier)
}

func TestResolver_TrimsHint(t *testing.T) {
	r := NewResolver(seededRepo(), testPolicy(), logger.Discard(), nil)

	res, err := r.Resolve(context.Background(), newSession(t), "  ACME-GOODS \n")
	require.NoError(t, err)
	assert.Equal(t, "acme-goods", res.CanonicalIdentifier)
}

func TestResolver_FallsBackToDisplayName(t *testing.T) {
	r := NewResolver(seededRepo(), testPolicy(), logger.Discard(), nil)

	res, err := r.Resolve(context.Background(), newSession(t), "acme goods")
	require.NoError(t, err)
	assert.Equal(t, "acme-goods", res.CanonicalIdentifier)
}

func TestResolver_NotFound(t *testing.T) {
	tests := []struct {
		name string
		hint string
	}{
		{name: "unknown store", hint: "nowhere"},
		{name: "inactive store", hint: "closed"},
		{name: "blank hint without session store", hint: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(seededRepo(), testPolicy(), logger.Discard(), nil)
			_, err := r.Resolve(context.Background(), newSession(t), tt.hint)
			require.ErrorIs(t, err, ErrStoreNotFound)
			assert.NotErrorIs(t, err, ErrLookupUnavailable)
		})
	}
}

func TestResolver_RemembersStoreOnSession(t *testing.T) {
	r := NewResolver(seededRepo(), testPolicy(), logger.Discard(), nil)
	sess := newSession(t)

	_, err := r.Resolve(context.Background(), sess, "My Store")
	require.NoError(t, err)
	assert.Equal(t, "mystore", sess.LastStore())

	// a bare route with no hint recovers the tenant from the session
	res, err := r.Resolve(context.Background(), sess, "")
	require.NoError(t, err)
	assert.Equal(t, "mystore", res.CanonicalIdentifier)
}

func TestResolver_NotFoundIsNotRetried(t *testing.T) {
	repo := &flakyRepository{Repository: seededRepo()}
	r := NewResolver(repo, testPolicy(), logger.Discard(), nil)

	_, err := r.Resolve(context.Background(), newSession(t), "nowhere")
	require.ErrorIs(t, err, ErrStoreNotFound)
	assert.Equal(t, 1, repo.calls)
}

func TestResolver_RetriesTransientErrors(t *testing.T) {
	repo := &flakyRepository{Repository: seededRepo(), failures: 2}
	r := NewResolver(repo, testPolicy(), logger.Discard(), nil)

	res, err := r.Resolve(context.Background(), newSession(t), "mystore")
	require.NoError(t, err)
	assert.Equal(t, "mystore", res.CanonicalIdentifier)
	assert.Equal(t, 3, repo.calls)
}

func TestResolver_ExhaustedRetriesReportNotFound(t *testing.T) {
	repo := &flakyRepository{Repository: seededRepo(), failures: 10}
	r := NewResolver(repo, testPolicy(), logger.Discard(), nil)
	sess := newSession(t)

	_, err := r.Resolve(context.Background(), sess, "mystore")
	require.ErrorIs(t, err, ErrStoreNotFound)
	assert.ErrorIs(t, err, ErrLookupUnavailable)
	assert.Equal(t, 3, repo.calls)
	assert.Empty(t, sess.LastStore())
}

func TestHintFromHost(t *testing.T) {
	tests := []struct {
		host string
		base string
		want string
	}{
		{host: "mystore.shop.example", base: "shop.example", want: "mystore"},
		{host: "MyStore.Shop.Example:8443", base: "shop.example", want: "mystore"},
		{host: "www.shop.example", base: "shop.example", want: ""},
		{host: "shop.example", base: "shop.example", want: ""},
		{host: "a.b.shop.example", base: "shop.example", want: ""},
		{host: "mystore.other.example", base: "shop.example", want: ""},
		{host: "mystore.shop.example", base: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, HintFromHost(tt.host, tt.base))
		})
	}
}
