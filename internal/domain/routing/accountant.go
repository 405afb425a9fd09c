package routing

import (
	"sync"

	"github.com/photovault/photovault/internal/infrastructure/metrics"
	"github.com/photovault/photovault/internal/infrastructure/storage"
)

// Accountant tracks bytes consumed per tier against a configured ceiling.
// It is strictly process-local state: initialized at startup (optionally
// seeded from provider snapshots), monotonically growing for confirmed
// writes, reset on restart.
//
// Reservation closes the check-then-act window between checking headroom and
// confirming a write: TryReserve holds the bytes, Commit converts them into
// used bytes after the provider accepted the write, Release returns them
// when the write failed.
type Accountant struct {
	mu    sync.Mutex
	tiers map[storage.Tier]*tierUsage
}

type tierUsage struct {
	used     int64
	reserved int64
	capacity int64
	advisory bool
}

// TierCapacity configures one tier's ceiling for the accountant.
type TierCapacity struct {
	CapacityBytes int64
	Advisory      bool
}

// NewAccountant creates an accountant for the given tier ceilings.
func NewAccountant(capacities map[storage.Tier]TierCapacity) *Accountant {
	tiers := make(map[storage.Tier]*tierUsage, len(capacities))
	for tier, c := range capacities {
		tiers[tier] = &tierUsage{capacity: c.CapacityBytes, advisory: c.Advisory}
	}
	return &Accountant{tiers: tiers}
}

// Seed overwrites a tier's used bytes, typically from a provider usage
// snapshot at startup. Reserved bytes are untouched.
func (a *Accountant) Seed(tier storage.Tier, usedBytes int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.tiers[tier]; ok {
		t.used = usedBytes
		metrics.SetTierUsage(string(tier), t.used, t.capacity)
	}
}

// TryReserve atomically claims headroom for an upcoming write. It returns
// false when the tier is unknown or the claim would exceed the ceiling.
// Advisory tiers always grant the reservation.
func (a *Accountant) TryReserve(tier storage.Tier, bytes int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tiers[tier]
	if !ok {
		return false
	}
	if !t.advisory && t.used+t.reserved+bytes > t.capacity {
		return false
	}
	t.reserved += bytes
	return true
}

// Commit converts a reservation into used bytes after a confirmed write.
func (a *Accountant) Commit(tier storage.Tier, bytes int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tiers[tier]
	if !ok {
		return
	}
	t.reserved -= bytes
	if t.reserved < 0 {
		t.reserved = 0
	}
	t.used += bytes
	metrics.SetTierUsage(string(tier), t.used, t.capacity)
}

// Release returns reserved bytes after a failed write.
func (a *Accountant) Release(tier storage.Tier, bytes int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tiers[tier]
	if !ok {
		return
	}
	t.reserved -= bytes
	if t.reserved < 0 {
		t.reserved = 0
	}
}

// Usage returns the tracked usage for one tier. Reserved bytes count as used
// so concurrent in-flight uploads see each other's claims.
func (a *Accountant) Usage(tier storage.Tier) storage.Usage {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tiers[tier]
	if !ok {
		return storage.Usage{}
	}
	return storage.Usage{UsedBytes: t.used + t.reserved, CapacityBytes: t.capacity}
}

// Advisory reports whether a tier's ceiling is advisory.
func (a *Accountant) Advisory(tier storage.Tier) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tiers[tier]
	return ok && t.advisory
}

// Snapshot returns the usage of every tracked tier.
func (a *Accountant) Snapshot() map[storage.Tier]storage.Usage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[storage.Tier]storage.Usage, len(a.tiers))
	for tier, t := range a.tiers {
		out[tier] = storage.Usage{UsedBytes: t.used + t.reserved, CapacityBytes: t.capacity}
	}
	return out
}
