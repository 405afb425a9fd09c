package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/infrastructure/metrics"
	"github.com/photovault/photovault/internal/infrastructure/storage"
	"github.com/photovault/photovault/utils/photoid"
)

// ErrNoPhotosFound fails a job whose event has no photos to archive.
var ErrNoPhotosFound = errors.New("no photos found for event")

// PhotoRecord is the photo-listing collaborator's view of a stored photo.
type PhotoRecord struct {
	ID              string
	EventID         string
	AlbumName       string
	UploaderName    string
	URL             string
	ThumbnailURL    string
	StorageTier     storage.Tier
	StorageProvider string
	StorageRef      string
	CompressionUsed string
	FileSize        int64
}

// PhotoLister supplies an event's photo records and receives the
// archive-completion signal. Implemented by the photo repository.
type PhotoLister interface {
	ListByEvent(ctx context.Context, eventID string) ([]PhotoRecord, error)
	MarkEventArchived(ctx context.Context, eventID, backupID string) error
}

// Archiver runs end-of-event batch backups into the archival (secondary)
// tier. Jobs run asynchronously; callers poll the JobStore by backup ID.
type Archiver struct {
	cfg        *config.Config
	providers  map[storage.Tier]storage.Provider
	lister     PhotoLister
	jobs       *JobStore
	log        zerolog.Logger
	httpClient *http.Client
}

// NewArchiver assembles the archiver.
func NewArchiver(cfg *config.Config, providers map[storage.Tier]storage.Provider, lister PhotoLister, jobs *JobStore, log zerolog.Logger) *Archiver {
	return &Archiver{
		cfg:       cfg,
		providers: providers,
		lister:    lister,
		jobs:      jobs,
		log:       log.With().Str("component", "batch-archiver").Logger(),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Jobs exposes the job store for status queries.
func (a *Archiver) Jobs() *JobStore { return a.jobs }

// Start creates a job for the event and runs it in the background. The
// returned job is already registered in the store and can be polled
// immediately.
func (a *Archiver) Start(eventID string) *Job {
	job := NewJob(photoid.NewBackupID(), eventID)
	a.jobs.Put(job)

	// The job outlives the request that triggered it; it runs on its own
	// context and cannot be cancelled, matching the no-cancellation model
	// of the rest of the subsystem.
	go a.run(context.Background(), job)
	return job
}

// run drives a job from Initializing to a terminal state.
func (a *Archiver) run(ctx context.Context, job *Job) {
	log := a.log.With().Str("backup_id", job.BackupID).Str("event_id", job.EventID).Logger()
	log.Info().Msg("archive job starting")

	photos, err := a.lister.ListByEvent(ctx, job.EventID)
	if err != nil {
		job.Fail(fmt.Sprintf("list photos: %v", err))
		metrics.ArchiveJobsTotal.WithLabelValues(string(StatusFailed)).Inc()
		log.Error().Err(err).Msg("archive job failed fetching photo list")
		return
	}
	if len(photos) == 0 {
		job.Fail(ErrNoPhotosFound.Error())
		metrics.ArchiveJobsTotal.WithLabelValues(string(StatusFailed)).Inc()
		log.Warn().Msg("archive job failed: no photos found")
		return
	}

	dest, ok := a.providers[storage.TierSecondary]
	if !ok || !dest.Available() {
		job.Fail("archival tier unavailable")
		metrics.ArchiveJobsTotal.WithLabelValues(string(StatusFailed)).Inc()
		log.Error().Msg("archive job failed: archival tier unavailable")
		return
	}

	containerName := fmt.Sprintf("event-%s-%s", job.EventID, time.Now().Format("2006-01-02"))
	container, err := dest.EnsureContainer(ctx, containerName)
	if err != nil {
		job.Fail(fmt.Sprintf("create destination container: %v", err))
		metrics.ArchiveJobsTotal.WithLabelValues(string(StatusFailed)).Inc()
		log.Error().Err(err).Str("container", containerName).Msg("archive job failed creating container")
		return
	}

	job.BeginBackup(len(photos), container.ID, container.URL)
	log.Info().Int("total", len(photos)).Str("container", container.ID).Msg("backing up")

	batchSize := a.cfg.ArchiveBatchSize
	for start := 0; start < len(photos); start += batchSize {
		end := start + batchSize
		if end > len(photos) {
			end = len(photos)
		}
		a.runBatch(ctx, job, container, photos[start:end])

		if end < len(photos) && a.cfg.ArchiveBatchDelay > 0 {
			time.Sleep(a.cfg.ArchiveBatchDelay)
		}
	}

	job.Complete()
	metrics.ArchiveJobsTotal.WithLabelValues(string(StatusCompleted)).Inc()

	if err := a.lister.MarkEventArchived(ctx, job.EventID, job.BackupID); err != nil {
		log.Warn().Err(err).Msg("failed to mark event archived")
	}

	snap := job.Snapshot()
	log.Info().
		Int("succeeded", snap.SuccessfulUploads).
		Int("failed", snap.FailedUploads).
		Dur("duration", snap.EndTime.Sub(snap.StartTime)).
		Msg("archive job completed")
}

// runBatch archives one batch concurrently. Every photo settles: a failing
// photo is recorded on the job and never aborts its siblings.
func (a *Archiver) runBatch(ctx context.Context, job *Job, container *storage.Container, batch []PhotoRecord) {
	var eg errgroup.Group
	for _, photo := range batch {
		photo := photo
		eg.Go(func() error {
			err := a.archivePhoto(ctx, container, photo)
			job.RecordResult(photo.ID, err)
			if err != nil {
				metrics.ArchivePhotosTotal.WithLabelValues("error").Inc()
				a.log.Warn().Err(err).
					Str("backup_id", job.BackupID).
					Str("photo_id", photo.ID).
					Msg("photo archive failed")
			} else {
				metrics.ArchivePhotosTotal.WithLabelValues("success").Inc()
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// archivePhoto downloads the photo's best available copy and uploads it into
// the destination container, tagged with uploader and album metadata.
func (a *Archiver) archivePhoto(ctx context.Context, container *storage.Container, photo PhotoRecord) error {
	data, err := a.fetchBestCopy(ctx, photo)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	dest := a.providers[storage.TierSecondary]
	name := container.ID + "/" + storage.ArchiveName(photo.ID, photo.StorageRef)
	_, err = dest.Put(ctx, name, bytes.NewReader(data), int64(len(data)), mimetype.Detect(data).String(), map[string]string{
		"uploader":    photo.UploaderName,
		"album":       photo.AlbumName,
		"source_tier": string(photo.StorageTier),
		"photo_id":    photo.ID,
	})
	if err != nil {
		return fmt.Errorf("upload to archive: %w", err)
	}
	return nil
}

// fetchBestCopy retrieves the highest-fidelity copy of a photo: the primary
// tier's original first, then secondary, then local, and as a last resort the
// already-compressed public URL.
func (a *Archiver) fetchBestCopy(ctx context.Context, photo PhotoRecord) ([]byte, error) {
	var errs []error
	for _, tier := range storage.TierOrder {
		provider, ok := a.providers[tier]
		if !ok || !provider.Available() {
			continue
		}
		ref := photo.StorageRef
		if tier == storage.TierSecondary && photo.StorageTier != storage.TierSecondary {
			// Drive refs are opaque file IDs; a logical key from another
			// tier cannot be resolved there.
			continue
		}
		body, _, err := provider.Get(ctx, ref)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier, err))
			continue
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: read: %w", tier, err))
			continue
		}
		return data, nil
	}

	if photo.URL != "" {
		a.log.Warn().
			Str("photo_id", photo.ID).
			Msg("archiving from public URL; copy may already be lossy")
		data, err := a.fetchURL(ctx, photo.URL)
		if err == nil {
			return data, nil
		}
		errs = append(errs, fmt.Errorf("public url: %w", err))
	}

	return nil, errors.Join(errs...)
}

func (a *Archiver) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
