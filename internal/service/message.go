package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

// MessageBackend is the slice of the remote API the message service consumes.
type MessageBackend interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// MessageService serves the unread-message badge. It is the one place the
// cache's freshness model is deliberately overridden: the realtime change
// feed pushes insert events, and each event triggers a cache-bypassing
// refetch so the badge updates ahead of the ttl.
type MessageService struct {
	backend  MessageBackend
	realtime backend.Realtime
	cache    *cache.Coordinator
	counts   *cache.ReadThrough[int]
	logger   *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
	pending     sync.WaitGroup
}

// NewMessageService wires the unread-count policy and the realtime feed.
func NewMessageService(b MessageBackend, rt backend.Realtime, co *cache.Coordinator, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		backend:  b,
		realtime: rt,
		cache:    co,
		counts:   cache.NewReadThrough[int](co, cache.CacheUnreadCount),
		logger:   logger.With(slog.String("component", "message_service")),
	}
}

// Unread returns the user's unread message count.
func (s *MessageService) Unread(ctx context.Context, userID string) (int, error) {
	return s.counts.Get(ctx, userID, func(ctx context.Context) (int, error) {
		return s.backend.UnreadCount(ctx, userID)
	})
}

// Start subscribes to the user's message channel. Insert events refetch the
// count from the backend and overwrite the cached value regardless of its
// freshness. Stop (or the context) ends the subscription.
func (s *MessageService) Start(ctx context.Context, userID string) error {
	if s.realtime == nil {
		return nil
	}
	unsubscribe, err := s.realtime.Subscribe(ctx, "messages:"+userID, func(event backend.Event) {
		if event.Type != backend.EventInsert {
			return
		}
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.refresh(context.WithoutCancel(ctx), userID)
		}()
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

// Stop ends the realtime subscription and waits for in-flight refetches.
func (s *MessageService) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	s.pending.Wait()
}

func (s *MessageService) refresh(ctx context.Context, userID string) {
	count, err := s.backend.UnreadCount(ctx, userID)
	if err != nil {
		// The cached badge stays; the next read or event tries again.
		s.logger.Debug("unread refetch failed", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	s.cache.Set(ctx, cache.CacheUnreadCount, userID, count)
}
