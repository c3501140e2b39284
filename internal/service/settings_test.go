package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

type stubSettingsBackend struct {
	flags map[string]bool
	calls int
}

func (s *stubSettingsBackend) FeatureSettings(context.Context) (backend.FeatureSettings, error) {
	s.calls++
	return backend.FeatureSettings{Flags: s.flags}, nil
}

func TestSettingsCachedUntilExplicitAction(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubSettingsBackend{flags: map[string]bool{"bookingV2": true}}
	svc := NewSettingsService(stub, co, testLogger())
	ctx := context.Background()

	got, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, got.Flags["bookingV2"])

	// The unbounded ttl means repeat reads never refetch.
	_, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestSettingsRefreshRefetches(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubSettingsBackend{flags: map[string]bool{"bookingV2": false}}
	svc := NewSettingsService(stub, co, testLogger())
	ctx := context.Background()

	_, err := svc.Settings(ctx)
	require.NoError(t, err)

	stub.flags = map[string]bool{"bookingV2": true}
	got, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, got.Flags["bookingV2"])
	assert.Equal(t, 2, stub.calls)
}

func TestSettingsClearedByAppReset(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubSettingsBackend{flags: map[string]bool{"bookingV2": true}}
	svc := NewSettingsService(stub, co, testLogger())
	ctx := context.Background()

	_, err := svc.Settings(ctx)
	require.NoError(t, err)

	co.ClearGroup(ctx, cache.GroupApp, "")

	_, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}
