package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goafyi/goafyi/internal/backend"
)

type stubBookingBackend struct {
	mu       sync.Mutex
	bookings []backend.BookingRequest
	calls    int
}

func (s *stubBookingBackend) Bookings(context.Context, string) ([]backend.BookingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]backend.BookingRequest(nil), s.bookings...), nil
}

func (s *stubBookingBackend) CreateBooking(_ context.Context, b backend.BookingRequest) (backend.BookingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = "b1"
	b.Status = backend.BookingPending
	s.bookings = append(s.bookings, b)
	return b, nil
}

func (s *stubBookingBackend) UpdateBookingStatus(_ context.Context, bookingID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].ID == bookingID {
			s.bookings[i].Status = status
		}
	}
	return nil
}

func TestBookingRequestsCached(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubBookingBackend{bookings: []backend.BookingRequest{{ID: "b0", UserID: "u1"}}}
	svc := NewBookingService(stub, co, testLogger())
	ctx := context.Background()

	_, err := svc.Requests(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.Requests(ctx, "u1")
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Equal(t, 1, stub.calls)
}

func TestBookingCreateInvalidatesSnapshot(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubBookingBackend{}
	svc := NewBookingService(stub, co, testLogger())
	ctx := context.Background()

	before, err := svc.Requests(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, before)

	created, err := svc.Create(ctx, backend.BookingRequest{UserID: "u1", VendorID: "v1", EventDate: "2026-12-05"})
	require.NoError(t, err)
	assert.Equal(t, "b1", created.ID, "the server assigns the id")

	after, err := svc.Requests(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, after, 1, "the read after a create must re-derive from the backend")
	assert.Equal(t, backend.BookingPending, after[0].Status)
}

func TestBookingStatusChangeInvalidates(t *testing.T) {
	co := newTestCoordinator(t)
	stub := &stubBookingBackend{bookings: []backend.BookingRequest{{ID: "b1", UserID: "u1", Status: backend.BookingPending}}}
	svc := NewBookingService(stub, co, testLogger())
	ctx := context.Background()

	_, err := svc.Requests(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, "u1", "b1", backend.BookingAccepted))

	after, err := svc.Requests(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, backend.BookingAccepted, after[0].Status)
}
