package service

import (
	"context"
	"log/slog"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
)

// BookingBackend is the slice of the remote API the booking service consumes.
type BookingBackend interface {
	Bookings(ctx context.Context, userID string) ([]backend.BookingRequest, error)
	CreateBooking(ctx context.Context, b backend.BookingRequest) (backend.BookingRequest, error)
	UpdateBookingStatus(ctx context.Context, bookingID, status string) error
}

// BookingService serves a user's booking requests with a short-lived
// read-through snapshot.
type BookingService struct {
	backend  BookingBackend
	cache    *cache.Coordinator
	requests *cache.ReadThrough[[]backend.BookingRequest]
	logger   *slog.Logger
}

// NewBookingService wires the booking read policy onto the coordinator.
func NewBookingService(b BookingBackend, co *cache.Coordinator, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		backend:  b,
		cache:    co,
		requests: cache.NewReadThrough[[]backend.BookingRequest](co, cache.CacheBookingList),
		logger:   logger.With(slog.String("component", "booking_service")),
	}
}

// Requests returns the user's booking requests.
func (s *BookingService) Requests(ctx context.Context, userID string) ([]backend.BookingRequest, error) {
	return s.requests.Get(ctx, userID, func(ctx context.Context) ([]backend.BookingRequest, error) {
		return s.backend.Bookings(ctx, userID)
	})
}

// Create files a booking request and drops the requester's snapshot so the
// next read includes the server-assigned id and timestamps.
func (s *BookingService) Create(ctx context.Context, b backend.BookingRequest) (backend.BookingRequest, error) {
	created, err := s.backend.CreateBooking(ctx, b)
	if err != nil {
		return backend.BookingRequest{}, err
	}
	s.cache.Delete(ctx, cache.CacheBookingList, b.UserID)
	return created, nil
}

// SetStatus transitions a booking request, then invalidates the requester's
// snapshot.
func (s *BookingService) SetStatus(ctx context.Context, userID, bookingID, status string) error {
	if err := s.backend.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CacheBookingList, userID)
	return nil
}
