package cache

import (
	"encoding/json"
	"time"
)

// Entry wraps a cached payload with the bookkeeping needed for lazy expiry.
// WrittenAt is fixed at write time; an update is a new write, never a patch.
// A TTL of zero means the entry never expires on its own.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	WrittenAt time.Time       `json:"writtenAt"`
	TTL       time.Duration   `json:"ttl"`
}

// Fresh reports whether the entry is still within its time-to-live at now.
func (e Entry) Fresh(now time.Time) bool {
	if e.TTL <= 0 {
		return true
	}
	return now.Sub(e.WrittenAt) <= e.TTL
}

// NewEntry marshals value and stamps the wrapper. Marshal failures surface to
// the caller so the coordinator can absorb them at its boundary.
func NewEntry(value any, ttl time.Duration, now time.Time) (Entry, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Value: payload, WrittenAt: now.UTC(), TTL: ttl}, nil
}
