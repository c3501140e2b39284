package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/goafyi/goafyi/internal/metrics"
)

// Coordinator is the single point of truth for what is cached, where, and for
// how long. Every other component reads and writes through it.
//
// The coordinator is strictly additive to reliability: tier failures, corrupt
// payloads, and unknown cache names are logged and degrade to a miss or a
// no-op. The only errors a caller of the cache layer ever sees are backend
// errors on a foreground read-through, and those are raised by the read
// policies, not here.
type Coordinator struct {
	registry *Registry
	tiers    map[Tier]Store
	logger   *slog.Logger
	metrics  *metrics.Recorder

	now func() time.Time
}

// NewCoordinator wires the registry to its storage tiers. Registry validation
// is the caller's startup responsibility; the coordinator assumes a valid
// table.
func NewCoordinator(registry *Registry, ephemeral, durable Store, logger *slog.Logger, rec *metrics.Recorder) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		registry: registry,
		tiers:    map[Tier]Store{TierEphemeral: ephemeral, TierDurable: durable},
		logger:   logger.With(slog.String("component", "cache_coordinator")),
		metrics:  rec,
		now:      time.Now,
	}
}

// Registry exposes the cache table for diagnostics.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Get retrieves a fresh value into out. A stale entry is deleted as a side
// effect of the read that discovered it, so a caller never observes a value
// past its ttl. Unknown names and tier failures report a miss.
func (c *Coordinator) Get(ctx context.Context, name, id string, out any) bool {
	hit, _ := c.read(ctx, name, id, out, false)
	return hit
}

// Peek retrieves a value even when it is past its ttl, reporting whether the
// entry was still fresh. Stale entries are left in place for the
// stale-while-revalidate policy to refresh; they are never resurrected once
// deleted. All other semantics match Get.
func (c *Coordinator) Peek(ctx context.Context, name, id string, out any) (hit, fresh bool) {
	return c.read(ctx, name, id, out, true)
}

func (c *Coordinator) read(ctx context.Context, name, id string, out any, tolerateStale bool) (bool, bool) {
	start := c.now()
	def, store, ok := c.resolve(name, metrics.CacheOpGet)
	if !ok {
		return false, false
	}
	key := def.Prefix + id

	entry, found, err := store.Lookup(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCorruptEntry) {
			// Corrupt persisted state must never block a read-through.
			c.logger.Warn("dropping corrupt cache entry", slog.String("cache", name), slog.String("key", key))
			c.dropQuietly(ctx, store, key)
		} else {
			c.logger.Warn("cache lookup failed", slog.String("cache", name), slog.Any("error", err))
		}
		c.metrics.ObserveCacheOp(name, metrics.CacheOpGet, metrics.CacheError, c.now().Sub(start))
		return false, false
	}
	if !found {
		c.metrics.ObserveCacheOp(name, metrics.CacheOpGet, metrics.CacheMiss, c.now().Sub(start))
		return false, false
	}

	fresh := entry.Fresh(c.now())
	if !fresh && !tolerateStale {
		c.dropQuietly(ctx, store, key)
		c.metrics.ObserveCacheOp(name, metrics.CacheOpGet, metrics.CacheStale, c.now().Sub(start))
		return false, false
	}

	if out != nil {
		if err := json.Unmarshal(entry.Value, out); err != nil {
			c.logger.Warn("dropping undecodable cache entry", slog.String("cache", name), slog.String("key", key), slog.Any("error", err))
			c.dropQuietly(ctx, store, key)
			c.metrics.ObserveCacheOp(name, metrics.CacheOpGet, metrics.CacheError, c.now().Sub(start))
			return false, false
		}
	}

	outcome := metrics.CacheHit
	if !fresh {
		outcome = metrics.CacheStale
	}
	c.metrics.ObserveCacheOp(name, metrics.CacheOpGet, outcome, c.now().Sub(start))
	return true, fresh
}

// Set wraps value with the configured ttl and the current timestamp and
// writes it to the configured tier, replacing any previous entry wholesale.
// A failed cache write never breaks the caller's primary operation, so all
// failures are logged and swallowed.
func (c *Coordinator) Set(ctx context.Context, name, id string, value any) {
	start := c.now()
	def, store, ok := c.resolve(name, metrics.CacheOpSet)
	if !ok {
		return
	}

	entry, err := NewEntry(value, def.TTL, c.now())
	if err != nil {
		c.logger.Warn("cache value not serializable", slog.String("cache", name), slog.Any("error", err))
		c.metrics.ObserveCacheOp(name, metrics.CacheOpSet, metrics.CacheError, c.now().Sub(start))
		return
	}
	if err := store.Store(ctx, def.Prefix+id, entry); err != nil {
		c.logger.Warn("cache write failed", slog.String("cache", name), slog.Any("error", err))
		c.metrics.ObserveCacheOp(name, metrics.CacheOpSet, metrics.CacheError, c.now().Sub(start))
		return
	}
	c.metrics.ObserveCacheOp(name, metrics.CacheOpSet, metrics.CacheOK, c.now().Sub(start))
}

// Delete removes a single entry. Deleting an absent key is a no-op.
func (c *Coordinator) Delete(ctx context.Context, name, id string) {
	start := c.now()
	def, store, ok := c.resolve(name, metrics.CacheOpDelete)
	if !ok {
		return
	}
	if err := store.Delete(ctx, def.Prefix+id); err != nil {
		c.logger.Warn("cache delete failed", slog.String("cache", name), slog.Any("error", err))
		c.metrics.ObserveCacheOp(name, metrics.CacheOpDelete, metrics.CacheError, c.now().Sub(start))
		return
	}
	c.metrics.ObserveCacheOp(name, metrics.CacheOpDelete, metrics.CacheOK, c.now().Sub(start))
}

// ClearGroup removes every entry belonging to the group's member caches.
//
// With a non-empty id the clear is scoped to that identifier: the exact key
// plus any composite keys namespaced under "id:". With an empty id the whole
// prefix family is removed. Clearing the app group additionally flushes the
// ephemeral tier outright.
func (c *Coordinator) ClearGroup(ctx context.Context, group, id string) {
	start := c.now()
	members, ok := c.registry.Group(group)
	if !ok {
		c.logger.Warn("unknown cache group", slog.String("group", group))
		return
	}
	for _, name := range members {
		def, store, ok := c.resolve(name, metrics.CacheOpClear)
		if !ok {
			continue
		}
		var err error
		if id == "" {
			err = store.DeletePrefix(ctx, def.Prefix)
		} else {
			if err = store.Delete(ctx, def.Prefix+id); err == nil {
				err = store.DeletePrefix(ctx, def.Prefix+id+":")
			}
		}
		if err != nil {
			c.logger.Warn("cache group clear failed", slog.String("group", group), slog.String("cache", name), slog.Any("error", err))
			c.metrics.ObserveCacheOp(name, metrics.CacheOpClear, metrics.CacheError, c.now().Sub(start))
			continue
		}
		c.metrics.ObserveCacheOp(name, metrics.CacheOpClear, metrics.CacheOK, c.now().Sub(start))
	}
	if group == GroupApp {
		if flusher, ok := c.tiers[TierEphemeral].(Flusher); ok {
			if err := flusher.Flush(ctx); err != nil {
				c.logger.Warn("ephemeral flush failed", slog.Any("error", err))
			}
		}
	}
	c.logger.Info("cache group cleared", slog.String("group", group), slog.Duration("elapsed", c.now().Sub(start)))
}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	Scanned map[Tier]int
	Evicted map[Tier]int
}

// Sweep walks every known prefix on both tiers and deletes entries that are
// stale or undecodable. It bounds growth of the durable tier from abandoned
// entries that are never re-read.
func (c *Coordinator) Sweep(ctx context.Context) SweepReport {
	start := c.now()
	report := SweepReport{
		Scanned: map[Tier]int{TierEphemeral: 0, TierDurable: 0},
		Evicted: map[Tier]int{TierEphemeral: 0, TierDurable: 0},
	}
	for _, def := range c.registry.Definitions() {
		store := c.tiers[def.Tier]
		keys, err := store.Keys(ctx, def.Prefix)
		if err != nil {
			c.logger.Warn("sweep enumeration failed", slog.String("cache", def.Name), slog.Any("error", err))
			continue
		}
		for _, key := range keys {
			report.Scanned[def.Tier]++
			entry, found, err := store.Lookup(ctx, key)
			if err != nil {
				if errors.Is(err, ErrCorruptEntry) {
					c.dropQuietly(ctx, store, key)
					report.Evicted[def.Tier]++
				}
				continue
			}
			if found && !entry.Fresh(c.now()) {
				c.dropQuietly(ctx, store, key)
				report.Evicted[def.Tier]++
			}
		}
	}
	for tier := range report.Scanned {
		c.metrics.ObserveSweep(string(tier), report.Scanned[tier], report.Evicted[tier])
	}
	c.metrics.SweepCompleted(c.now().Sub(start))
	c.logger.Debug("sweep completed",
		slog.Int("scanned", report.Scanned[TierEphemeral]+report.Scanned[TierDurable]),
		slog.Int("evicted", report.Evicted[TierEphemeral]+report.Evicted[TierDurable]))
	return report
}

// CacheStats counts entries for one logical cache.
type CacheStats struct {
	Name    string `json:"name"`
	Tier    Tier   `json:"tier"`
	Entries int    `json:"entries"`
	Live    int    `json:"live"`
}

// Stats reports per-cache entry counts. Diagnostics only; no correctness-
// critical path depends on it.
func (c *Coordinator) Stats(ctx context.Context) []CacheStats {
	stats := make([]CacheStats, 0, len(c.registry.defs))
	liveByTier := map[Tier]int{}
	for _, def := range c.registry.Definitions() {
		store := c.tiers[def.Tier]
		keys, err := store.Keys(ctx, def.Prefix)
		if err != nil {
			c.logger.Warn("stats enumeration failed", slog.String("cache", def.Name), slog.Any("error", err))
			continue
		}
		entry := CacheStats{Name: def.Name, Tier: def.Tier, Entries: len(keys)}
		for _, key := range keys {
			e, found, err := store.Lookup(ctx, key)
			if err != nil || !found {
				continue
			}
			if e.Fresh(c.now()) {
				entry.Live++
			}
		}
		liveByTier[def.Tier] += entry.Live
		stats = append(stats, entry)
	}
	for tier, live := range liveByTier {
		c.metrics.SetLiveEntries(string(tier), live)
	}
	return stats
}

// Close releases both tiers.
func (c *Coordinator) Close(ctx context.Context) error {
	var errs []error
	for _, store := range c.tiers {
		if store == nil {
			continue
		}
		if err := store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) resolve(name string, op metrics.CacheOp) (Definition, Store, bool) {
	def, ok := c.registry.Lookup(name)
	if !ok {
		c.logger.Warn("unknown cache name", slog.String("cache", name), slog.String("op", string(op)))
		return Definition{}, nil, false
	}
	store := c.tiers[def.Tier]
	if store == nil {
		c.logger.Warn("cache tier unavailable", slog.String("cache", name), slog.String("tier", string(def.Tier)))
		return Definition{}, nil, false
	}
	return def, store, true
}

func (c *Coordinator) dropQuietly(ctx context.Context, store Store, key string) {
	if err := store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache eviction failed", slog.String("key", key), slog.Any("error", err))
	}
}
