package cache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the source-of-truth value for one identifier.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// ReadThrough fetches from the backend synchronously on a miss and populates
// the cache before returning. Concurrent cold misses for the same identifier
// are collapsed into one backend call.
type ReadThrough[T any] struct {
	coordinator *Coordinator
	name        string
	flight      singleflight.Group
}

// NewReadThrough binds a read-through policy to one logical cache.
func NewReadThrough[T any](coordinator *Coordinator, name string) *ReadThrough[T] {
	return &ReadThrough[T]{coordinator: coordinator, name: name}
}

// Get returns the cached value when fresh, otherwise fetches, caches, and
// returns. Fetch errors on this foreground path propagate to the caller; the
// caller has no data to show and must know.
func (p *ReadThrough[T]) Get(ctx context.Context, id string, fetch FetchFunc[T]) (T, error) {
	var cached T
	if p.coordinator.Get(ctx, p.name, id, &cached) {
		return cached, nil
	}

	value, err, _ := p.flight.Do(id, func() (any, error) {
		fetched, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		p.coordinator.Set(ctx, p.name, id, fetched)
		return fetched, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// StaleWhileRevalidate returns any present entry immediately, fresh or not,
// and refreshes it in the background so the next read sees newer data. Only a
// cold miss pays backend latency on the foreground path.
//
// Background refreshes are fire-and-forget: a racing delete or a later set may
// land before or after the refresh completes, and the last write wins by
// completion order. Set overwrites and delete tolerates absence, so either
// interleaving is safe.
type StaleWhileRevalidate[T any] struct {
	coordinator *Coordinator
	name        string
	logger      *slog.Logger
	flight      singleflight.Group
	tasks       sync.WaitGroup
}

// NewStaleWhileRevalidate binds a stale-while-revalidate policy to one logical
// cache.
func NewStaleWhileRevalidate[T any](coordinator *Coordinator, name string, logger *slog.Logger) *StaleWhileRevalidate[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaleWhileRevalidate[T]{
		coordinator: coordinator,
		name:        name,
		logger:      logger.With(slog.String("component", "swr"), slog.String("cache", name)),
	}
}

// Get returns the cached value without waiting on any backend call whenever an
// entry is present, spawning a refresh for next time. On a cold miss it falls
// through to a synchronous, de-duplicated fetch.
func (p *StaleWhileRevalidate[T]) Get(ctx context.Context, id string, fetch FetchFunc[T]) (T, error) {
	var cached T
	if hit, _ := p.coordinator.Peek(ctx, p.name, id, &cached); hit {
		p.revalidate(ctx, id, fetch)
		return cached, nil
	}

	value, err, _ := p.flight.Do(id, func() (any, error) {
		fetched, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		p.coordinator.Set(ctx, p.name, id, fetched)
		return fetched, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// revalidate refreshes one entry off the caller's critical path. The task is
// detached from the caller's cancellation but tracked, so tests can drain all
// pending refreshes instead of sleeping.
func (p *StaleWhileRevalidate[T]) revalidate(ctx context.Context, id string, fetch FetchFunc[T]) {
	bg := context.WithoutCancel(ctx)
	p.tasks.Add(1)
	go func() {
		defer p.tasks.Done()
		fetched, err := fetch(bg)
		if err != nil {
			// The caller already has a value to show.
			p.logger.Debug("background revalidation failed", slog.String("id", id), slog.Any("error", err))
			return
		}
		p.coordinator.Set(bg, p.name, id, fetched)
	}()
}

// Drain blocks until every background refresh spawned so far has finished.
func (p *StaleWhileRevalidate[T]) Drain() {
	p.tasks.Wait()
}
