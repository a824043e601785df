package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same semantics as the
// Redis-backed one. It backs tests and redis-less deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string][]Entry // newest first
	cap       int
	retention time.Duration
	now       func() time.Time
}

// NewMemoryStore returns a MemoryStore with the given cap and
// retention horizon; zero values fall back to the defaults.
func NewMemoryStore(cap int, retention time.Duration) *MemoryStore {
	if cap <= 0 {
		cap = DefaultCap
	}
	if retention <= 0 {
		retention = DefaultRetentionDays * 24 * time.Hour
	}
	return &MemoryStore{
		byID:      map[string][]Entry{},
		cap:       cap,
		retention: retention,
		now:       time.Now,
	}
}

// Append records an executed search, collapsing duplicates and
// enforcing the per-identity cap.
func (m *MemoryStore) Append(ctx context.Context, identity string, e Entry) error {
	if identity == "" {
		return ErrUnauthorized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	horizon := m.now().Add(-m.retention)
	kept := make([]Entry, 0, m.cap)
	kept = append(kept, e)
	for _, prev := range m.byID[identity] {
		if prev.Query == e.Query {
			continue
		}
		if prev.RecordedAt.Before(horizon) {
			continue
		}
		kept = append(kept, prev)
	}
	if len(kept) > m.cap {
		kept = kept[:m.cap]
	}
	m.byID[identity] = kept
	return nil
}

// Recent returns up to limit entries, most recent first.
func (m *MemoryStore) Recent(ctx context.Context, identity string, limit int) ([]Entry, error) {
	if identity == "" {
		return nil, ErrUnauthorized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	horizon := m.now().Add(-m.retention)
	out := make([]Entry, 0, limit)
	for _, e := range m.byID[identity] {
		if e.RecordedAt.Before(horizon) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Clear removes all entries for an identity.
func (m *MemoryStore) Clear(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrUnauthorized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, identity)
	return nil
}
