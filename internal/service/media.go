package service

import (
	"context"
	"log/slog"

	"github.com/goafyi/goafyi/internal/cache"
)

const avatarBucket = "avatars"

// ObjectStore is the slice of the backend's file storage the media service
// consumes.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicURL(bucket, key string) string
	Remove(ctx context.Context, bucket, key string) error
}

// MediaService handles avatar objects. The bytes live in the backend's object
// store and are never cached; only the public URL is, under the same ttl and
// invalidation rules as any other cached value.
type MediaService struct {
	store  ObjectStore
	cache  *cache.Coordinator
	urls   *cache.ReadThrough[string]
	logger *slog.Logger
}

// NewMediaService wires the avatar-URL policy onto the coordinator.
func NewMediaService(store ObjectStore, co *cache.Coordinator, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{
		store:  store,
		cache:  co,
		urls:   cache.NewReadThrough[string](co, cache.CacheAvatarURL),
		logger: logger.With(slog.String("component", "media_service")),
	}
}

// AvatarURL returns the public URL for a user's avatar.
func (s *MediaService) AvatarURL(ctx context.Context, userID string) (string, error) {
	return s.urls.Get(ctx, userID, func(context.Context) (string, error) {
		return s.store.PublicURL(avatarBucket, userID), nil
	})
}

// UploadAvatar replaces the user's avatar object, then drops the cached URL so
// the next read rebuilds it (the object key encodes nothing mutable, but a
// re-upload may move the object behind a new CDN variant).
func (s *MediaService) UploadAvatar(ctx context.Context, userID string, data []byte, contentType string) error {
	if err := s.store.Upload(ctx, avatarBucket, userID, data, contentType); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CacheAvatarURL, userID)
	return nil
}

// RemoveAvatar deletes the avatar object and invalidates the cached URL.
func (s *MediaService) RemoveAvatar(ctx context.Context, userID string) error {
	if err := s.store.Remove(ctx, avatarBucket, userID); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CacheAvatarURL, userID)
	return nil
}
