package service

import (
	"context"
	"log/slog"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

// RatingBackend is the slice of the remote API the rating service consumes.
type RatingBackend interface {
	RatingStats(ctx context.Context, vendorID string) (backend.RatingStats, error)
	UserRating(ctx context.Context, userID, vendorID string) (backend.Rating, error)
	SubmitRating(ctx context.Context, r backend.Rating) error
}

// RatingService serves vendor rating aggregates and the caller's own ratings.
// Both read paths are plain read-through; stats are server-computed and a
// stale aggregate shown after a submission would read as a lost write.
type RatingService struct {
	backend RatingBackend
	cache   *cache.Coordinator
	stats   *cache.ReadThrough[backend.RatingStats]
	ratings *cache.ReadThrough[backend.Rating]
	logger  *slog.Logger
}

// NewRatingService wires the rating read policies onto the coordinator.
func NewRatingService(b RatingBackend, co *cache.Coordinator, logger *slog.Logger) *RatingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatingService{
		backend: b,
		cache:   co,
		stats:   cache.NewReadThrough[backend.RatingStats](co, cache.CacheRatingStats),
		ratings: cache.NewReadThrough[backend.Rating](co, cache.CacheUserRating),
		logger:  logger.With(slog.String("component", "rating_service")),
	}
}

// Stats returns the server-computed rating aggregate for a vendor.
func (s *RatingService) Stats(ctx context.Context, vendorID string) (backend.RatingStats, error) {
	return s.stats.Get(ctx, vendorID, func(ctx context.Context) (backend.RatingStats, error) {
		return s.backend.RatingStats(ctx, vendorID)
	})
}

// UserRating returns one user's rating of one vendor. An explicit not-found
// from the backend propagates uncached; absence is not a value.
func (s *RatingService) UserRating(ctx context.Context, userID, vendorID string) (backend.Rating, error) {
	return s.ratings.Get(ctx, userRatingKey(userID, vendorID), func(ctx context.Context) (backend.Rating, error) {
		return s.backend.UserRating(ctx, userID, vendorID)
	})
}

// Submit writes the rating to the backend first; only on success does it drop
// the affected entries. The aggregate is recomputed server-side by triggers,
// so the cache is never populated with a locally guessed value.
func (s *RatingService) Submit(ctx context.Context, r backend.Rating) error {
	if err := s.backend.SubmitRating(ctx, r); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CacheRatingStats, r.VendorID)
	s.cache.Delete(ctx, cache.CacheUserRating, userRatingKey(r.UserID, r.VendorID))
	return nil
}

func userRatingKey(userID, vendorID string) string {
	return userID + ":" + vendorID
}
