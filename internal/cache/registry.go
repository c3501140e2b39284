package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Tier selects which storage backend holds a logical cache.
type Tier string

const (
	// TierEphemeral is the process-lifetime in-memory map.
	TierEphemeral Tier = "ephemeral"
	// TierDurable is the persistent key-value store.
	TierDurable Tier = "durable"
)

// Logical cache names. Every read and write goes through one of these; an
// unknown name degrades to "always fetch from backend" rather than failing.
const (
	CacheSessionIdentity = "sessionIdentity"
	CacheVendorID        = "vendorID"
	CacheUserProfile     = "userProfile"
	CacheVendorProfile   = "vendorProfile"
	CacheVendorList      = "vendorList"
	CacheRatingStats     = "ratingStats"
	CacheUserRating      = "userRating"
	CacheAvatarURL       = "avatarURL"
	CacheFeatureSettings = "featureSettings"
	CacheUnreadCount     = "unreadCount"
	CacheBookingList     = "bookingList"
)

// Invalidation groups. Membership is fixed at compile time.
const (
	// GroupPerUser holds caches keyed by a user id, cleared on that user's
	// sign-out.
	GroupPerUser = "per-user"
	// GroupSession holds session-scoped caches, cleared on any sign-out.
	GroupSession = "session"
	// GroupApp covers every cache, cleared on an explicit reset or a
	// configuration change.
	GroupApp = "app"
)

// Definition fixes where one logical cache lives and for how long its entries
// stay fresh. TTL zero means entries persist until explicitly invalidated.
type Definition struct {
	Name   string
	Prefix string
	TTL    time.Duration
	Tier   Tier
}

// Registry maps logical cache names to definitions and group names to member
// caches. It is read-only after Validate.
type Registry struct {
	defs   map[string]Definition
	groups map[string][]string
}

// NewRegistry assembles a registry from explicit definitions and groups,
// primarily for tests that want an isolated table.
func NewRegistry(defs []Definition, groups map[string][]string) *Registry {
	table := make(map[string]Definition, len(defs))
	for _, def := range defs {
		table[def.Name] = def
	}
	return &Registry{defs: table, groups: groups}
}

// DefaultRegistry is the production cache table. TTL values range from thirty
// seconds for fast-changing session identity up to unbounded for settings that
// persist until explicit user action.
func DefaultRegistry() *Registry {
	return NewRegistry(
		[]Definition{
			{Name: CacheSessionIdentity, Prefix: "session:identity:", TTL: 30 * time.Second, Tier: TierEphemeral},
			{Name: CacheVendorID, Prefix: "session:vendor:", TTL: 5 * time.Minute, Tier: TierEphemeral},
			{Name: CacheUnreadCount, Prefix: "session:unread:", TTL: time.Minute, Tier: TierEphemeral},
			{Name: CacheUserProfile, Prefix: "user:profile:", TTL: time.Hour, Tier: TierDurable},
			{Name: CacheVendorProfile, Prefix: "vendor:profile:", TTL: 10 * time.Minute, Tier: TierDurable},
			{Name: CacheVendorList, Prefix: "vendor:list:", TTL: 5 * time.Minute, Tier: TierDurable},
			{Name: CacheRatingStats, Prefix: "rating:stats:", TTL: 10 * time.Minute, Tier: TierDurable},
			{Name: CacheUserRating, Prefix: "rating:user:", TTL: 30 * time.Minute, Tier: TierDurable},
			{Name: CacheAvatarURL, Prefix: "media:avatar:", TTL: 24 * time.Hour, Tier: TierDurable},
			{Name: CacheBookingList, Prefix: "booking:list:", TTL: 2 * time.Minute, Tier: TierDurable},
			{Name: CacheFeatureSettings, Prefix: "app:settings:", TTL: 0, Tier: TierDurable},
		},
		map[string][]string{
			GroupPerUser: {CacheUserProfile, CacheUserRating, CacheAvatarURL, CacheVendorID, CacheBookingList},
			GroupSession: {CacheSessionIdentity, CacheVendorID, CacheUnreadCount},
			GroupApp: {
				CacheSessionIdentity, CacheVendorID, CacheUnreadCount,
				CacheUserProfile, CacheVendorProfile, CacheVendorList,
				CacheRatingStats, CacheUserRating, CacheAvatarURL,
				CacheBookingList, CacheFeatureSettings,
			},
		},
	)
}

// Lookup resolves a logical cache name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Group returns the member cache names of a group.
func (r *Registry) Group(name string) ([]string, bool) {
	members, ok := r.groups[name]
	return members, ok
}

// Definitions returns every definition in stable order, for the sweep and for
// diagnostics.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Validate is the fail-fast startup check: every prefix must be non-empty and
// pairwise non-overlapping, so a prefix-family clear can never match another
// cache's keys, and every group member must name a known cache.
func (r *Registry) Validate() error {
	defs := r.Definitions()
	for _, def := range defs {
		if def.Prefix == "" {
			return fmt.Errorf("cache: registry %q has an empty key prefix", def.Name)
		}
		if def.Tier != TierEphemeral && def.Tier != TierDurable {
			return fmt.Errorf("cache: registry %q has unknown tier %q", def.Name, def.Tier)
		}
	}
	for i, a := range defs {
		for _, b := range defs[i+1:] {
			if strings.HasPrefix(a.Prefix, b.Prefix) || strings.HasPrefix(b.Prefix, a.Prefix) {
				return fmt.Errorf("cache: registry prefixes overlap: %q (%s) and %q (%s)", a.Prefix, a.Name, b.Prefix, b.Name)
			}
		}
	}
	for group, members := range r.groups {
		for _, member := range members {
			if _, ok := r.defs[member]; !ok {
				return fmt.Errorf("cache: group %q references unknown cache %q", group, member)
			}
		}
	}
	return nil
}
