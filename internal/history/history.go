// Package history stores per-identity search history with bounded
// retention. The store is the only shared mutable resource on the
// search path: writes for a given identity are serialized, reads see a
// consistent snapshot.
package history

import (
	"context"
	"errors"
	"time"
)

// Defaults match the product contract: at most 20 entries per
// identity, 90 days of retention.
const (
	DefaultCap           = 20
	DefaultRecentLimit   = 10
	DefaultRetentionDays = 90
)

// ErrUnauthorized is returned when a history operation is invoked
// without an identity.
var ErrUnauthorized = errors.New("history: identity required")

// Entry is one executed search recorded for an identity.
type Entry struct {
	ID          string    `json:"id,omitempty"`
	Query       string    `json:"query"`
	Kind        string    `json:"kind"`
	RecordedAt  time.Time `json:"recordedAt"`
	ResultCount int       `json:"resultCount"`
}

// Store is the per-identity bounded history log.
//
// Append collapses duplicate canonical queries: the prior entry is
// removed and the new one lands at the front. The per-identity cap
// evicts the oldest entry on insert. Entries older than the retention
// horizon are evicted lazily on read.
type Store interface {
	Append(ctx context.Context, identity string, e Entry) error
	Recent(ctx context.Context, identity string, limit int) ([]Entry, error)
	Clear(ctx context.Context, identity string) error
}
