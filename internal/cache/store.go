package cache

import (
	"context"
	"errors"
)

// ErrCorruptEntry marks a persisted payload that could not be decoded. The
// coordinator deletes the offending key and treats the read as a miss rather
// than surfacing the failure.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// Store is a dumb key-value tier. Freshness is evaluated by the Coordinator,
// not the tier, so both tiers share one expiry model and unbounded entries
// behave identically everywhere.
type Store interface {
	Lookup(ctx context.Context, key string) (Entry, bool, error)
	Store(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Size(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// Flusher is implemented by tiers that can drop every entry at once. The
// application-wide reset empties the ephemeral tier this way instead of
// walking prefixes.
type Flusher interface {
	Flush(ctx context.Context) error
}
