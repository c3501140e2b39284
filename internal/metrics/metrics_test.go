package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveCacheOpCountsByOutcome(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())

	rec.ObserveCacheOp("vendorProfile", CacheOpGet, CacheHit, time.Millisecond)
	rec.ObserveCacheOp("vendorProfile", CacheOpGet, CacheHit, time.Millisecond)
	rec.ObserveCacheOp("vendorProfile", CacheOpGet, CacheMiss, time.Millisecond)
	rec.ObserveCacheOp("userProfile", CacheOpDelete, CacheOK, time.Millisecond)

	hits := testutil.ToFloat64(rec.cacheOperations.WithLabelValues("vendorProfile", "get", "hit"))
	require.Equal(t, 2.0, hits)
	misses := testutil.ToFloat64(rec.cacheOperations.WithLabelValues("vendorProfile", "get", "miss"))
	require.Equal(t, 1.0, misses)
	deletes := testutil.ToFloat64(rec.cacheOperations.WithLabelValues("userProfile", "delete", "ok"))
	require.Equal(t, 1.0, deletes)
}

func TestObserveSweepAccumulates(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())

	rec.ObserveSweep("ephemeral", 10, 3)
	rec.ObserveSweep("ephemeral", 5, 1)
	rec.SweepCompleted(20 * time.Millisecond)

	require.Equal(t, 15.0, testutil.ToFloat64(rec.sweepScanned.WithLabelValues("ephemeral")))
	require.Equal(t, 4.0, testutil.ToFloat64(rec.sweepEvicted.WithLabelValues("ephemeral")))
	require.Greater(t, testutil.ToFloat64(rec.sweepLastRun), 0.0)
}

func TestObserveBackendOutcomeFollowsError(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())

	rec.ObserveBackend("vendor_list", nil, time.Millisecond)
	rec.ObserveBackend("vendor_list", errors.New("boom"), time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(rec.backendRequests.WithLabelValues("vendor_list", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.backendRequests.WithLabelValues("vendor_list", "error")))
}

func TestSetLiveEntries(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())

	rec.SetLiveEntries("durable", 42)
	require.Equal(t, 42.0, testutil.ToFloat64(rec.liveEntries.WithLabelValues("durable")))

	rec.SetLiveEntries("durable", 7)
	require.Equal(t, 7.0, testutil.ToFloat64(rec.liveEntries.WithLabelValues("durable")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder

	rec.ObserveCacheOp("vendorProfile", CacheOpGet, CacheHit, time.Millisecond)
	rec.ObserveSweep("ephemeral", 1, 1)
	rec.SweepCompleted(time.Millisecond)
	rec.SetLiveEntries("ephemeral", 1)
	rec.ObserveBackend("vendor_list", nil, time.Millisecond)

	require.NotNil(t, rec.Handler())
	require.Nil(t, rec.Gatherer())
}
