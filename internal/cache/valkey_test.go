package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestValkey(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(server.Close)

	store, err := NewValkey(ValkeyConfig{Address: server.Addr()})
	if err != nil {
		t.Fatalf("new valkey: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store, server
}

func TestValkeyStoreLookup(t *testing.T) {
	store, _ := newTestValkey(t)
	ctx := context.Background()

	entry, err := NewEntry(map[string]any{"name": "Alice", "rating": 4.5}, 10*time.Minute, time.Now())
	if err != nil {
		t.Fatalf("new entry: %v", err)
	}
	if err := store.Store(ctx, "vendor:profile:v1", entry); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, ok, err := store.Lookup(ctx, "vendor:profile:v1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.TTL != 10*time.Minute {
		t.Fatalf("expected wrapper ttl to round-trip, got %s", got.TTL)
	}
	if got.WrittenAt.IsZero() {
		t.Fatalf("expected writtenAt to round-trip")
	}

	_, ok, err = store.Lookup(ctx, "vendor:profile:absent")
	if err != nil {
		t.Fatalf("lookup absent: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for absent key")
	}
}

func TestValkeyStoreCorruptPayload(t *testing.T) {
	store, server := newTestValkey(t)
	ctx := context.Background()

	server.Set("vendor:profile:v1", "{not json")

	_, _, err := store.Lookup(ctx, "vendor:profile:v1")
	if !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry, got %v", err)
	}
}

func TestValkeyStoreKeysAndDeletePrefix(t *testing.T) {
	store, _ := newTestValkey(t)
	ctx := context.Background()
	entry, _ := NewEntry("x", time.Minute, time.Now())

	for _, key := range []string{"rating:stats:v1", "rating:stats:v2", "rating:user:u1:v1"} {
		if err := store.Store(ctx, key, entry); err != nil {
			t.Fatalf("store %s: %v", key, err)
		}
	}

	keys, err := store.Keys(ctx, "rating:stats:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}

	if err := store.DeletePrefix(ctx, "rating:stats:"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, ok, _ := store.Lookup(ctx, "rating:stats:v1"); ok {
		t.Fatalf("expected prefix delete to remove stats entries")
	}
	if _, ok, _ := store.Lookup(ctx, "rating:user:u1:v1"); !ok {
		t.Fatalf("expected user rating to survive an unrelated prefix clear")
	}
}

func TestValkeyStoreDeleteIdempotent(t *testing.T) {
	store, _ := newTestValkey(t)
	ctx := context.Background()

	if err := store.Delete(ctx, "never:written"); err != nil {
		t.Fatalf("delete absent key: %v", err)
	}
}

func TestValkeyStoreRequiresAddress(t *testing.T) {
	if _, err := NewValkey(ValkeyConfig{}); err == nil {
		t.Fatalf("expected error for missing address")
	}
}
