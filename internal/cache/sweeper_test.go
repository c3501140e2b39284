package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperEvictsOnInterval(t *testing.T) {
	co, clock := newTestCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	co.Set(ctx, CacheVendorProfile, "v1", profile{Name: "Alice"})
	clock.Advance(time.Hour)

	sweeper := NewSweeper(co, 10*time.Millisecond, testLogger())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		keys, err := co.tiers[TierDurable].Keys(ctx, "vendor:profile:")
		require.NoError(t, err)
		if len(keys) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("sweeper never evicted the stale entry")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop on cancellation")
	}
}

func TestSweeperDefaultsInterval(t *testing.T) {
	co, _ := newTestCoordinator(t)
	sweeper := NewSweeper(co, 0, nil)
	assert.Equal(t, DefaultSweepInterval, sweeper.interval)
}
