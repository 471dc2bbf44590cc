// internal/domain/store/resolver.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/retry"
)

// ErrLookupUnavailable marks a not-found result caused by the record store
// being unreachable after all retries, rather than a missing store.
var ErrLookupUnavailable = errors.New("store lookup unavailable")

// Resolver maps a tenant hint (path segment, subdomain label or the session's
// last known store) to exactly one store.
type Resolver struct {
	repo    Repository
	policy  retry.Policy
	logger  *logrus.Logger
	metrics *metrics.Recorder
}

// NewResolver creates a store context resolver
func NewResolver(repo Repository, policy retry.Policy, logger *logrus.Logger, recorder *metrics.Recorder) *Resolver {
	return &Resolver{
		repo:    repo,
		policy:  policy,
		logger:  logger,
		metrics: recorder,
	}
}

// NormalizeHint lower-cases and trims a tenant hint
func NormalizeHint(hint string) string {
	return strings.ToLower(strings.TrimSpace(hint))
}

// Resolve finds the store for hint. An empty hint falls back to the session's
// last known store. On success the canonical identifier is remembered on the
// session. Not-found is never retried; transient lookup errors are retried
// under the resolver's policy and then reported as not found wrapped with
// ErrLookupUnavailable.
func (r *Resolver) Resolve(ctx context.Context, sess *session.Context, hint string) (*Resolution, error) {
	normalized := NormalizeHint(hint)
	if normalized == "" && sess != nil {
		normalized = sess.LastStore()
	}
	if normalized == "" {
		r.metrics.StoreResolution("not_found")
		return nil, ErrStoreNotFound
	}

	var found *Store
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		s, err := r.lookup(ctx, normalized)
		if errors.Is(err, ErrStoreNotFound) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		found = s
		return nil
	}, func(err error, attempt int, wait time.Duration) {
		r.logger.WithFields(logrus.Fields{
			"hint":    normalized,
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		}).Warn("Store lookup failed, retrying")
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrStoreNotFound):
		r.metrics.StoreResolution("not_found")
		r.logger.WithField("hint", normalized).Info("Store not found")
		return nil, ErrStoreNotFound
	default:
		r.metrics.StoreResolution("unavailable")
		r.logger.WithFields(logrus.Fields{
			"hint":     normalized,
			"attempts": r.policy.Attempts,
			"error":    err.Error(),
		}).Error("Store lookup exhausted retries")
		return nil, fmt.Errorf("%w: %w: %w", ErrStoreNotFound, ErrLookupUnavailable, err)
	}

	resolution := &Resolution{
		Store:               found,
		CanonicalIdentifier: strings.ToLower(found.Username),
	}

	if sess != nil {
		if err := sess.Remember(ctx, resolution.CanonicalIdentifier); err != nil {
			r.logger.WithFields(logrus.Fields{
				"session_id": sess.ID(),
				"store":      resolution.CanonicalIdentifier,
				"error":      err.Error(),
			}).Warn("Failed to persist last known store")
		}
	}

	r.metrics.StoreResolution("hit")
	return resolution, nil
}

// lookup tries the canonical username first, then the display name
func (r *Resolver) lookup(ctx context.Context, hint string) (*Store, error) {
	s, err := r.repo.FindByUsername(ctx, hint)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrStoreNotFound) {
		return nil, err
	}
	return r.repo.FindByName(ctx, hint)
}

// HintFromHost extracts the subdomain label of host under baseDomain.
// "mystore.shop.example:443" with base "shop.example" yields "mystore".
// The bare base domain and the www label yield "".
func HintFromHost(host, baseDomain string) string {
	if baseDomain == "" {
		return ""
	}
	host = strings.ToLower(host)
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	suffix := "." + strings.ToLower(strings.TrimPrefix(baseDomain, "."))
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	label := strings.TrimSuffix(host, suffix)
	if label == "" || label == "www" || strings.Contains(label, ".") {
		return ""
	}
	return label
}
