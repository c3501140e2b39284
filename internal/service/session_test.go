package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

type stubAuthBackend struct {
	session backend.Session
	profile backend.UserProfile

	// onSignOut runs inside the backend call so tests can observe the
	// state of the world at the moment the revocation request goes out.
	onSignOut func()
}

func (s *stubAuthBackend) SignIn(context.Context, string, string) (backend.Session, error) {
	return s.session, nil
}

func (s *stubAuthBackend) SignOut(context.Context) error {
	if s.onSignOut != nil {
		s.onSignOut()
	}
	return nil
}

func (s *stubAuthBackend) RefreshSession(context.Context, string) (backend.Session, error) {
	return s.session, nil
}

func (s *stubAuthBackend) UserProfile(context.Context, string) (backend.UserProfile, error) {
	return s.profile, nil
}

func (s *stubAuthBackend) UpdateUserProfile(context.Context, backend.UserProfile) error {
	return nil
}

func TestSignOutClearsUserAndSessionCaches(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubAuthBackend{}
	svc := NewSessionService(stub, co, testLogger())
	ctx := context.Background()

	co.Set(ctx, cache.CacheUserProfile, "u1", backend.UserProfile{ID: "u1", FullName: "Alice"})
	co.Set(ctx, cache.CacheVendorID, "u1", "v1")
	co.Set(ctx, cache.CacheSessionIdentity, "tok-1", backend.Session{UserID: "u1"})
	co.Set(ctx, cache.CacheVendorProfile, "v1", backend.VendorProfile{ID: "v1"})

	require.NoError(t, svc.SignOut(ctx, "u1"))

	var p backend.UserProfile
	assert.False(t, co.Get(ctx, cache.CacheUserProfile, "u1", &p), "no cached data from session N may reach session N+1")
	var id string
	assert.False(t, co.Get(ctx, cache.CacheVendorID, "u1", &id))
	var sess backend.Session
	assert.False(t, co.Get(ctx, cache.CacheSessionIdentity, "tok-1", &sess))

	var vp backend.VendorProfile
	assert.True(t, co.Get(ctx, cache.CacheVendorProfile, "v1", &vp), "shared vendor data is not user-scoped")
}

func TestSignOutClearsCachesBeforeBackendCall(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubAuthBackend{}
	svc := NewSessionService(stub, co, testLogger())
	ctx := context.Background()

	co.Set(ctx, cache.CacheUserProfile, "u1", backend.UserProfile{ID: "u1"})

	cleared := false
	stub.onSignOut = func() {
		var p backend.UserProfile
		cleared = !co.Get(ctx, cache.CacheUserProfile, "u1", &p)
	}

	require.NoError(t, svc.SignOut(ctx, "u1"))
	assert.True(t, cleared, "the clears must complete before the backend revocation is issued")
}

func TestSignInCachesSessionIdentity(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubAuthBackend{session: backend.Session{AccessToken: "tok-1", UserID: "u1"}}
	svc := NewSessionService(stub, co, testLogger())
	ctx := context.Background()

	session, err := svc.SignIn(ctx, "alice@example.com", "pw")
	require.NoError(t, err)

	cached, ok := svc.Identity(ctx, session.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "u1", cached.UserID)
}

func TestUpdateProfileInvalidatesCachedCopy(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubAuthBackend{profile: backend.UserProfile{ID: "u1", FullName: "Alice"}}
	svc := NewSessionService(stub, co, testLogger())
	ctx := context.Background()

	_, err := svc.Profile(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateProfile(ctx, backend.UserProfile{ID: "u1", FullName: "Alice Renamed"}))

	var cached backend.UserProfile
	assert.False(t, co.Get(ctx, cache.CacheUserProfile, "u1", &cached))
}

func TestResetClearsEverything(t *testing.T) {
	co := newTestCoordinator(t)
	svc := NewSessionService(&stubAuthBackend{}, co, testLogger())
	ctx := context.Background()

	co.Set(ctx, cache.CacheFeatureSettings, "", map[string]bool{"x": true})
	co.Set(ctx, cache.CacheVendorProfile, "v1", backend.VendorProfile{ID: "v1"})

	svc.Reset(ctx)

	var settings map[string]bool
	assert.False(t, co.Get(ctx, cache.CacheFeatureSettings, "", &settings))
	var vp backend.VendorProfile
	assert.False(t, co.Get(ctx, cache.CacheVendorProfile, "v1", &vp))
}
