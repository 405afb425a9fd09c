package archive

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStorePutGet(t *testing.T) {
	store, err := NewJobStore(4, time.Hour)
	require.NoError(t, err)

	job := NewJob("bak_1", "evt1")
	store.Put(job)

	got, found := store.Get("bak_1")
	require.True(t, found)
	assert.Same(t, job, got)

	_, found = store.Get("bak_missing")
	assert.False(t, found)
}

func TestJobStoreEvictsExpiredTerminalJobs(t *testing.T) {
	store, err := NewJobStore(4, 10*time.Millisecond)
	require.NoError(t, err)

	job := NewJob("bak_1", "evt1")
	job.Complete()
	store.Put(job)

	_, found := store.Get("bak_1")
	require.True(t, found, "fresh terminal jobs stay readable")

	time.Sleep(20 * time.Millisecond)
	_, found = store.Get("bak_1")
	assert.False(t, found)
	assert.Zero(t, store.Len())
}

func TestJobStoreKeepsRunningJobsPastRetention(t *testing.T) {
	store, err := NewJobStore(4, time.Millisecond)
	require.NoError(t, err)

	job := NewJob("bak_1", "evt1")
	job.BeginBackup(10, "container", "")
	store.Put(job)

	time.Sleep(5 * time.Millisecond)
	_, found := store.Get("bak_1")
	assert.True(t, found, "retention applies to terminal jobs only")
}

func TestJobStoreCapacityBound(t *testing.T) {
	store, err := NewJobStore(2, time.Hour)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		store.Put(NewJob(fmt.Sprintf("bak_%d", i), "evt1"))
	}
	assert.Equal(t, 2, store.Len())

	_, found := store.Get("bak_4")
	assert.True(t, found, "most recent jobs survive eviction")
	_, found = store.Get("bak_0")
	assert.False(t, found)
}

func TestJobLifecycle(t *testing.T) {
	job := NewJob("bak_1", "evt1")
	assert.Equal(t, StatusInitializing, job.Status)
	terminal, _ := job.Terminal()
	assert.False(t, terminal)

	job.BeginBackup(3, "container-id", "https://archive.test/container-id")
	snap := job.Snapshot()
	assert.Equal(t, StatusBackingUp, snap.Status)
	assert.Equal(t, 3, snap.TotalPhotos)
	assert.Equal(t, "container-id", snap.DestinationID)

	job.RecordResult("pv_a", nil)
	job.RecordResult("pv_b", assert.AnError)
	job.RecordResult("pv_c", nil)

	job.Complete()
	snap = job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 3, snap.ProcessedPhotos)
	assert.Equal(t, 2, snap.SuccessfulUploads)
	assert.Equal(t, 1, snap.FailedUploads)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "pv_b", snap.Errors[0].PhotoID)
	require.NotNil(t, snap.EndTime)

	terminal, endedAt := job.Terminal()
	assert.True(t, terminal)
	assert.False(t, endedAt.IsZero())
}

func TestJobSnapshotIsolation(t *testing.T) {
	job := NewJob("bak_1", "evt1")
	job.BeginBackup(2, "c", "")
	job.RecordResult("pv_a", assert.AnError)

	snap := job.Snapshot()
	job.RecordResult("pv_b", assert.AnError)

	assert.Len(t, snap.Errors, 1, "snapshots never observe later mutation")
	assert.Equal(t, 1, snap.ProcessedPhotos)
}
