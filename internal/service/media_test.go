package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goafyi/goafyi/internal/cache"
)

type stubObjectStore struct {
	uploads int
	removed []string
}

func (s *stubObjectStore) Upload(context.Context, string, string, []byte, string) error {
	s.uploads++
	return nil
}

func (s *stubObjectStore) PublicURL(bucket, key string) string {
	return "https://cdn.example/" + bucket + "/" + key
}

func (s *stubObjectStore) Remove(_ context.Context, _, key string) error {
	s.removed = append(s.removed, key)
	return nil
}

func TestAvatarURLCached(t *testing.T) {
	co := newTestCoordinator(t)
	store := &stubObjectStore{}
	svc := NewMediaService(store, co, testLogger())
	ctx := context.Background()

	url, err := svc.AvatarURL(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/avatars/u1", url)

	var cached string
	assert.True(t, co.Get(ctx, cache.CacheAvatarURL, "u1", &cached))
}

func TestUploadAvatarInvalidatesURL(t *testing.T) {
	co := newTestCoordinator(t)
	store := &stubObjectStore{}
	svc := NewMediaService(store, co, testLogger())
	ctx := context.Background()

	_, err := svc.AvatarURL(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.UploadAvatar(ctx, "u1", []byte("jpeg"), "image/jpeg"))
	assert.Equal(t, 1, store.uploads)

	var cached string
	assert.False(t, co.Get(ctx, cache.CacheAvatarURL, "u1", &cached))
}

func TestRemoveAvatarInvalidatesURL(t *testing.T) {
	co := newTestCoordinator(t)
	store := &stubObjectStore{}
	svc := NewMediaService(store, co, testLogger())
	ctx := context.Background()

	_, err := svc.AvatarURL(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveAvatar(ctx, "u1"))
	assert.Equal(t, []string{"u1"}, store.removed)

	var cached string
	assert.False(t, co.Get(ctx, cache.CacheAvatarURL, "u1", &cached))
}
