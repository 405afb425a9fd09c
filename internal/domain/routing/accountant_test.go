package routing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photovault/photovault/internal/infrastructure/storage"
)

func newTestAccountant(capacity int64) *Accountant {
	return NewAccountant(map[storage.Tier]TierCapacity{
		storage.TierPrimary:   {CapacityBytes: capacity},
		storage.TierSecondary: {CapacityBytes: capacity},
		storage.TierLocal:     {CapacityBytes: capacity, Advisory: true},
	})
}

func TestReserveCommitGrowsUsage(t *testing.T) {
	acct := newTestAccountant(1000)

	require.True(t, acct.TryReserve(storage.TierPrimary, 400))
	acct.Commit(storage.TierPrimary, 400)
	require.True(t, acct.TryReserve(storage.TierPrimary, 300))
	acct.Commit(storage.TierPrimary, 300)

	assert.Equal(t, int64(700), acct.Usage(storage.TierPrimary).UsedBytes)
}

func TestReserveRefusedOverCapacity(t *testing.T) {
	acct := newTestAccountant(1000)

	require.True(t, acct.TryReserve(storage.TierPrimary, 900))
	assert.False(t, acct.TryReserve(storage.TierPrimary, 200), "second reservation would exceed ceiling")

	acct.Release(storage.TierPrimary, 900)
	assert.True(t, acct.TryReserve(storage.TierPrimary, 200), "released bytes are reusable")
}

func TestReleaseRestoresHeadroom(t *testing.T) {
	acct := newTestAccountant(1000)

	require.True(t, acct.TryReserve(storage.TierPrimary, 1000))
	acct.Release(storage.TierPrimary, 1000)

	assert.Equal(t, int64(0), acct.Usage(storage.TierPrimary).UsedBytes)
	assert.True(t, acct.TryReserve(storage.TierPrimary, 1000))
}

func TestAdvisoryTierAlwaysReserves(t *testing.T) {
	acct := newTestAccountant(1000)

	assert.True(t, acct.TryReserve(storage.TierLocal, 5000))
	acct.Commit(storage.TierLocal, 5000)
	assert.True(t, acct.TryReserve(storage.TierLocal, 5000), "advisory ceiling never refuses")
}

func TestSeedOverwritesUsed(t *testing.T) {
	acct := newTestAccountant(1000)
	acct.Seed(storage.TierPrimary, 600)

	assert.Equal(t, int64(600), acct.Usage(storage.TierPrimary).UsedBytes)
	assert.False(t, acct.TryReserve(storage.TierPrimary, 500))
	assert.True(t, acct.TryReserve(storage.TierPrimary, 400))
}

func TestUnknownTier(t *testing.T) {
	acct := NewAccountant(map[storage.Tier]TierCapacity{})
	assert.False(t, acct.TryReserve(storage.TierPrimary, 1))
	assert.Equal(t, storage.Usage{}, acct.Usage(storage.TierPrimary))
}

func TestConcurrentReservationsNeverOversubscribe(t *testing.T) {
	acct := newTestAccountant(1000)

	var wg sync.WaitGroup
	granted := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if acct.TryReserve(storage.TierPrimary, 100) {
				acct.Commit(storage.TierPrimary, 100)
				granted <- 100
			}
		}()
	}
	wg.Wait()
	close(granted)

	var total int64
	for b := range granted {
		total += b
	}
	assert.Equal(t, total, acct.Usage(storage.TierPrimary).UsedBytes)
	assert.LessOrEqual(t, total, int64(1000))
}
