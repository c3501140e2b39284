package service

import (
	"context"
	"log/slog"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

// VendorBackend is the slice of the remote API the vendor service consumes.
type VendorBackend interface {
	VendorProfile(ctx context.Context, vendorID string) (backend.VendorProfile, error)
	VendorList(ctx context.Context, category string) ([]backend.VendorSummary, error)
	ResolveVendorID(ctx context.Context, userID string) (string, error)
	UpdateVendorProfile(ctx context.Context, v backend.VendorProfile) error
	UpdatePortfolio(ctx context.Context, vendorID string, items []backend.PortfolioItem) error
}

// VendorService serves the vendor directory and vendor pages.
//
// Profile reads use stale-while-revalidate: they are on the critical path for
// first paint, and a slightly stale profile beats added latency as long as the
// next view sees fresher data. List snapshots use plain read-through.
type VendorService struct {
	backend  VendorBackend
	cache    *cache.Coordinator
	profiles *cache.StaleWhileRevalidate[backend.VendorProfile]
	lists    *cache.ReadThrough[[]backend.VendorSummary]
	logger   *slog.Logger
}

// NewVendorService wires the vendor read policies onto the coordinator.
func NewVendorService(b VendorBackend, co *cache.Coordinator, logger *slog.Logger) *VendorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VendorService{
		backend:  b,
		cache:    co,
		profiles: cache.NewStaleWhileRevalidate[backend.VendorProfile](co, cache.CacheVendorProfile, logger),
		lists:    cache.NewReadThrough[[]backend.VendorSummary](co, cache.CacheVendorList),
		logger:   logger.With(slog.String("component", "vendor_service")),
	}
}

// Profile returns one vendor's full record, serving a cached copy immediately
// when present and refreshing it in the background.
func (s *VendorService) Profile(ctx context.Context, vendorID string) (backend.VendorProfile, error) {
	return s.profiles.Get(ctx, vendorID, func(ctx context.Context) (backend.VendorProfile, error) {
		return s.backend.VendorProfile(ctx, vendorID)
	})
}

// List returns the directory snapshot for a category; empty category means the
// full directory.
func (s *VendorService) List(ctx context.Context, category string) ([]backend.VendorSummary, error) {
	return s.lists.Get(ctx, listKey(category), func(ctx context.Context) ([]backend.VendorSummary, error) {
		return s.backend.VendorList(ctx, category)
	})
}

// ResolveID maps an owner user id to their vendor id through the ephemeral
// tier; the mapping is read on nearly every vendor-owner screen.
func (s *VendorService) ResolveID(ctx context.Context, userID string) (string, error) {
	var vendorID string
	if s.cache.Get(ctx, cache.CacheVendorID, userID, &vendorID) {
		return vendorID, nil
	}
	vendorID, err := s.backend.ResolveVendorID(ctx, userID)
	if err != nil {
		return "", err
	}
	s.cache.Set(ctx, cache.CacheVendorID, userID, vendorID)
	return vendorID, nil
}

// UpdateProfile writes the vendor record to the backend, then invalidates the
// entries the write could have affected. The cache is never patched with the
// local value; the next read re-derives truth from the backend.
func (s *VendorService) UpdateProfile(ctx context.Context, v backend.VendorProfile) error {
	if err := s.backend.UpdateVendorProfile(ctx, v); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CacheVendorProfile, v.ID)
	s.cache.Delete(ctx, cache.CacheVendorList, listKey(""))
	s.cache.Delete(ctx, cache.CacheVendorList, listKey(v.Category))
	return nil
}

// UpdatePortfolio replaces a vendor's portfolio on the backend, then drops the
// cached profile that embeds it.
func (s *VendorService) UpdatePortfolio(ctx context.Context, vendorID string, items []backend.PortfolioItem) error {
	if err := s.backend.UpdatePortfolio(ctx, vendorID, items); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CacheVendorProfile, vendorID)
	return nil
}

// DrainRefreshes waits for pending background profile refreshes; used by
// tests.
func (s *VendorService) DrainRefreshes() {
	s.profiles.Drain()
}

func listKey(category string) string {
	if category == "" {
		return "all"
	}
	return category
}
