package service

import (
	"context"
	"log/slog"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

// The settings cache holds one entry; its ttl is unbounded, so the cached
// copy survives until an explicit refresh or an app-wide reset.
const settingsKey = "current"

// SettingsBackend is the slice of the remote API the settings service
// consumes.
type SettingsBackend interface {
	FeatureSettings(ctx context.Context) (backend.FeatureSettings, error)
}

// SettingsService serves the remotely managed feature switches.
type SettingsService struct {
	backend  SettingsBackend
	cache    *cache.Coordinator
	settings *cache.ReadThrough[backend.FeatureSettings]
	logger   *slog.Logger
}

// NewSettingsService wires the settings cache policy onto the coordinator.
func NewSettingsService(b SettingsBackend, co *cache.Coordinator, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		backend:  b,
		cache:    co,
		settings: cache.NewReadThrough[backend.FeatureSettings](co, cache.CacheFeatureSettings),
		logger:   logger.With(slog.String("component", "settings_service")),
	}
}

// Settings returns the feature switches, from cache once fetched.
func (s *SettingsService) Settings(ctx context.Context) (backend.FeatureSettings, error) {
	return s.settings.Get(ctx, settingsKey, func(ctx context.Context) (backend.FeatureSettings, error) {
		return s.backend.FeatureSettings(ctx)
	})
}

// Refresh drops the cached copy and refetches.
func (s *SettingsService) Refresh(ctx context.Context) (backend.FeatureSettings, error) {
	s.cache.Delete(ctx, cache.CacheFeatureSettings, settingsKey)
	return s.Settings(ctx)
}
