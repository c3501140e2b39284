package service

import (
	"context"
	"log/slog"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

// AuthBackend is the slice of the remote API the session service consumes.
type AuthBackend interface {
	SignIn(ctx context.Context, email, password string) (backend.Session, error)
	SignOut(ctx context.Context) error
	RefreshSession(ctx context.Context, refreshToken string) (backend.Session, error)
	UserProfile(ctx context.Context, userID string) (backend.UserProfile, error)
	UpdateUserProfile(ctx context.Context, p backend.UserProfile) error
}

// SessionService owns the session boundary: sign-in, sign-out, and the
// account profile. Its sign-out contract guarantees no cached data from one
// session is visible to the next on the same device.
type SessionService struct {
	backend  AuthBackend
	cache    *cache.Coordinator
	profiles *cache.ReadThrough[backend.UserProfile]
	logger   *slog.Logger
}

// NewSessionService wires the session cache policies onto the coordinator.
func NewSessionService(b AuthBackend, co *cache.Coordinator, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		backend:  b,
		cache:    co,
		profiles: cache.NewReadThrough[backend.UserProfile](co, cache.CacheUserProfile),
		logger:   logger.With(slog.String("component", "session_service")),
	}
}

// SignIn authenticates and caches the session identity under its token for
// the high-frequency identity lookups the screens make.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (backend.Session, error) {
	session, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return backend.Session{}, err
	}
	s.cache.Set(ctx, cache.CacheSessionIdentity, session.AccessToken, session)
	return session, nil
}

// Identity resolves a session token to its identity when still cached.
func (s *SessionService) Identity(ctx context.Context, token string) (backend.Session, bool) {
	var session backend.Session
	ok := s.cache.Get(ctx, cache.CacheSessionIdentity, token, &session)
	return session, ok
}

// SignOut clears the outgoing user's caches and all session-scoped entries
// synchronously, then revokes the session with the backend. The clears come
// first: a new sign-in racing a slow backend call must not observe the
// previous user's leftover entries.
func (s *SessionService) SignOut(ctx context.Context, userID string) error {
	s.cache.ClearGroup(ctx, cache.GroupPerUser, userID)
	s.cache.ClearGroup(ctx, cache.GroupSession, "")
	s.logger.Info("session caches cleared", slog.String("user_id", userID))
	return s.backend.SignOut(ctx)
}

// Refresh exchanges a refresh token and re-caches the new identity.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (backend.Session, error) {
	session, err := s.backend.RefreshSession(ctx, refreshToken)
	if err != nil {
		return backend.Session{}, err
	}
	s.cache.Set(ctx, cache.CacheSessionIdentity, session.AccessToken, session)
	return session, nil
}

// Profile returns the account-holder record through the cache.
func (s *SessionService) Profile(ctx context.Context, userID string) (backend.UserProfile, error) {
	return s.profiles.Get(ctx, userID, func(ctx context.Context) (backend.UserProfile, error) {
		return s.backend.UserProfile(ctx, userID)
	})
}

// UpdateProfile writes the account record to the backend, then invalidates
// the cached copy.
func (s *SessionService) UpdateProfile(ctx context.Context, p backend.UserProfile) error {
	if err := s.backend.UpdateUserProfile(ctx, p); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CacheUserProfile, p.ID)
	return nil
}

// Reset performs the full application-wide cache reset.
func (s *SessionService) Reset(ctx context.Context) {
	s.cache.ClearGroup(ctx, cache.GroupApp, "")
}
