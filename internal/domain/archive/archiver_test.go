package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/infrastructure/storage"
)

type fakeTier struct {
	mu           sync.Mutex
	tier         storage.Tier
	available    bool
	putErr       error
	containerErr error
	objects      map[string][]byte
	getCalls     int

	putDelay     time.Duration
	inflight     int
	peakInflight int
}

func newFakeTier(tier storage.Tier) *fakeTier {
	return &fakeTier{tier: tier, available: true, objects: map[string][]byte{}}
}

func (f *fakeTier) Tier() storage.Tier { return f.tier }
func (f *fakeTier) Name() string       { return string(f.tier) }
func (f *fakeTier) Available() bool    { return f.available }

func (f *fakeTier) Put(_ context.Context, key string, body io.Reader, _ int64, _ string, _ map[string]string) (*storage.PutResult, error) {
	f.mu.Lock()
	if f.putErr != nil {
		f.mu.Unlock()
		return nil, f.putErr
	}
	f.inflight++
	if f.inflight > f.peakInflight {
		f.peakInflight = f.inflight
	}
	delay := f.putDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	data, err := io.ReadAll(body)

	f.mu.Lock()
	f.inflight--
	if err == nil {
		f.objects[key] = data
	}
	f.mu.Unlock()
	return &storage.PutResult{URL: "https://archive.test/" + key, Ref: key}, err
}

func (f *fakeTier) Get(_ context.Context, ref string) (io.ReadCloser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	data, ok := f.objects[ref]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (f *fakeTier) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, ref)
	return nil
}

func (f *fakeTier) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Ref: key, SizeBytes: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeTier) UsageSnapshot(_ context.Context) (storage.Usage, error) {
	return storage.Usage{}, nil
}

func (f *fakeTier) EnsureContainer(_ context.Context, name string) (*storage.Container, error) {
	if f.containerErr != nil {
		return nil, f.containerErr
	}
	return &storage.Container{ID: name, URL: "https://archive.test/" + name}, nil
}

func (f *fakeTier) archived() map[string][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]byte, len(f.objects))
	for k, v := range f.objects {
		out[k] = v
	}
	return out
}

type fakeLister struct {
	mu             sync.Mutex
	photos         []PhotoRecord
	listErr        error
	archivedEvent  string
	archivedBackup string
}

func (l *fakeLister) ListByEvent(_ context.Context, _ string) ([]PhotoRecord, error) {
	if l.listErr != nil {
		return nil, l.listErr
	}
	return l.photos, nil
}

func (l *fakeLister) MarkEventArchived(_ context.Context, eventID, backupID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.archivedEvent = eventID
	l.archivedBackup = backupID
	return nil
}

func (l *fakeLister) marked() (string, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.archivedEvent, l.archivedBackup
}

type archiverFixture struct {
	archiver  *Archiver
	primary   *fakeTier
	secondary *fakeTier
	local     *fakeTier
	lister    *fakeLister
	jobs      *JobStore
}

func newArchiverFixture(t *testing.T) *archiverFixture {
	t.Helper()
	cfg := &config.Config{
		ArchiveBatchSize:  3,
		ArchiveBatchDelay: 0,
	}
	jobs, err := NewJobStore(16, time.Hour)
	require.NoError(t, err)

	fx := &archiverFixture{
		primary:   newFakeTier(storage.TierPrimary),
		secondary: newFakeTier(storage.TierSecondary),
		local:     newFakeTier(storage.TierLocal),
		lister:    &fakeLister{},
		jobs:      jobs,
	}
	fx.archiver = NewArchiver(cfg, map[storage.Tier]storage.Provider{
		storage.TierPrimary:   fx.primary,
		storage.TierSecondary: fx.secondary,
		storage.TierLocal:     fx.local,
	}, fx.lister, jobs, zerolog.Nop())
	return fx
}

// seedPhotos stores n photos on the primary tier and returns their records.
func (fx *archiverFixture) seedPhotos(n int) []PhotoRecord {
	photos := make([]PhotoRecord, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		ref := "events/evt1/ceremony/" + id + ".jpg"
		fx.primary.objects[ref] = []byte("photo-" + id)
		photos = append(photos, PhotoRecord{
			ID:          "pv_" + id,
			EventID:     "evt1",
			AlbumName:   "ceremony",
			StorageTier: storage.TierPrimary,
			StorageRef:  ref,
		})
	}
	return photos
}

func TestArchiveJobCompletes(t *testing.T) {
	fx := newArchiverFixture(t)
	fx.lister.photos = fx.seedPhotos(7)

	job := NewJob("bak_test1", "evt1")
	fx.archiver.run(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 7, snap.TotalPhotos)
	assert.Equal(t, 7, snap.ProcessedPhotos)
	assert.Equal(t, 7, snap.SuccessfulUploads)
	assert.Equal(t, 0, snap.FailedUploads)
	assert.True(t, strings.HasPrefix(snap.DestinationID, "event-evt1-"), "container %q", snap.DestinationID)
	require.NotNil(t, snap.EndTime)

	assert.Len(t, fx.secondary.archived(), 7)
	event, backup := fx.lister.marked()
	assert.Equal(t, "evt1", event)
	assert.Equal(t, "bak_test1", backup)
}

func TestArchiveJobRecordsPerPhotoFailures(t *testing.T) {
	fx := newArchiverFixture(t)
	photos := fx.seedPhotos(5)
	// One record points at a ref no tier holds and has no public URL, so its
	// download fails while the rest of the batch proceeds.
	photos[2].StorageRef = "events/evt1/ceremony/missing.jpg"
	fx.lister.photos = photos

	job := NewJob("bak_test2", "evt1")
	fx.archiver.run(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status, "per-photo failures never fail the job")
	assert.Equal(t, 5, snap.ProcessedPhotos)
	assert.Equal(t, 4, snap.SuccessfulUploads)
	assert.Equal(t, 1, snap.FailedUploads)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, photos[2].ID, snap.Errors[0].PhotoID)
}

func TestArchiveJobFailsWhenListingFails(t *testing.T) {
	fx := newArchiverFixture(t)
	fx.lister.listErr = errors.New("db down")

	job := NewJob("bak_test3", "evt1")
	fx.archiver.run(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Contains(t, snap.FailureReason, "db down")
}

func TestArchiveJobFailsWithNoPhotos(t *testing.T) {
	fx := newArchiverFixture(t)

	job := NewJob("bak_test4", "evt1")
	fx.archiver.run(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, ErrNoPhotosFound.Error(), snap.FailureReason)
}

func TestArchiveJobFailsWhenArchivalTierUnavailable(t *testing.T) {
	fx := newArchiverFixture(t)
	fx.lister.photos = fx.seedPhotos(2)
	fx.secondary.available = false

	job := NewJob("bak_test5", "evt1")
	fx.archiver.run(context.Background(), job)

	assert.Equal(t, StatusFailed, job.Snapshot().Status)
}

func TestArchiveJobFailsWhenContainerCreationFails(t *testing.T) {
	fx := newArchiverFixture(t)
	fx.lister.photos = fx.seedPhotos(2)
	fx.secondary.containerErr = errors.New("quota exceeded")

	job := NewJob("bak_test6", "evt1")
	fx.archiver.run(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Contains(t, snap.FailureReason, "quota exceeded")
}

func TestArchiveConcurrencyBoundedByBatchSize(t *testing.T) {
	fx := newArchiverFixture(t)
	fx.lister.photos = fx.seedPhotos(9)
	fx.secondary.putDelay = 20 * time.Millisecond

	job := NewJob("bak_test7", "evt1")
	fx.archiver.run(context.Background(), job)

	assert.Equal(t, StatusCompleted, job.Snapshot().Status)
	assert.LessOrEqual(t, fx.secondary.peakInflight, 3)
	assert.Greater(t, fx.secondary.peakInflight, 1, "batch members upload concurrently")
}

func TestFetchBestCopyPrefersPrimary(t *testing.T) {
	fx := newArchiverFixture(t)
	photos := fx.seedPhotos(1)
	// A stale local copy must lose to the primary original.
	fx.local.objects[photos[0].StorageRef] = []byte("stale-local-copy")
	fx.lister.photos = photos

	job := NewJob("bak_test8", "evt1")
	fx.archiver.run(context.Background(), job)

	require.Equal(t, StatusCompleted, job.Snapshot().Status)
	archived := fx.secondary.archived()
	require.Len(t, archived, 1)
	for _, data := range archived {
		assert.Equal(t, []byte("photo-a"), data)
	}
}

func TestFetchBestCopyNeverResolvesKeysOnArchivalTier(t *testing.T) {
	fx := newArchiverFixture(t)
	photos := fx.seedPhotos(1)
	fx.primary.available = false
	fx.local.objects[photos[0].StorageRef] = []byte("local-copy")
	fx.lister.photos = photos

	job := NewJob("bak_test9", "evt1")
	fx.archiver.run(context.Background(), job)

	require.Equal(t, StatusCompleted, job.Snapshot().Status)
	assert.Zero(t, fx.secondary.getCalls, "logical keys cannot be looked up against opaque archival refs")
}

func TestFetchBestCopyFallsBackToPublicURL(t *testing.T) {
	fx := newArchiverFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("public-copy"))
	}))
	defer srv.Close()

	fx.primary.available = false
	fx.local.available = false
	fx.lister.photos = []PhotoRecord{{
		ID:          "pv_url",
		EventID:     "evt1",
		StorageTier: storage.TierPrimary,
		StorageRef:  "events/evt1/general/gone.jpg",
		URL:         srv.URL + "/gone.jpg",
	}}

	job := NewJob("bak_test10", "evt1")
	fx.archiver.run(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 1, snap.SuccessfulUploads)
	for _, data := range fx.secondary.archived() {
		assert.Equal(t, []byte("public-copy"), data)
	}
}

func TestStartRegistersPollableJob(t *testing.T) {
	fx := newArchiverFixture(t)
	fx.lister.photos = fx.seedPhotos(2)

	job := fx.archiver.Start("evt1")
	require.NotEmpty(t, job.BackupID)
	assert.True(t, strings.HasPrefix(job.BackupID, "bak_"))

	stored, found := fx.jobs.Get(job.BackupID)
	require.True(t, found)
	assert.Same(t, job, stored)

	assert.Eventually(t, func() bool {
		terminal, _ := job.Terminal()
		return terminal
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StatusCompleted, job.Snapshot().Status)
}
