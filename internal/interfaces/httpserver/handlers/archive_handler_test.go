package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/domain/archive"
	"github.com/photovault/photovault/internal/infrastructure/storage"
	"github.com/photovault/photovault/internal/interfaces/httpserver/responses"
)

type stubLister struct{}

func (stubLister) ListByEvent(context.Context, string) ([]archive.PhotoRecord, error) {
	return nil, nil
}

func (stubLister) MarkEventArchived(context.Context, string, string) error { return nil }

type stubArchiveTier struct{}

func (stubArchiveTier) Tier() storage.Tier { return storage.TierSecondary }
func (stubArchiveTier) Name() string       { return "gdrive" }
func (stubArchiveTier) Available() bool    { return true }

func (stubArchiveTier) Put(context.Context, string, io.Reader, int64, string, map[string]string) (*storage.PutResult, error) {
	return &storage.PutResult{}, nil
}

func (stubArchiveTier) Get(context.Context, string) (io.ReadCloser, string, error) {
	return nil, "", storage.ErrObjectNotFound
}

func (stubArchiveTier) Delete(context.Context, string) error { return nil }

func (stubArchiveTier) List(context.Context, string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (stubArchiveTier) UsageSnapshot(context.Context) (storage.Usage, error) {
	return storage.Usage{}, nil
}

func (stubArchiveTier) EnsureContainer(_ context.Context, name string) (*storage.Container, error) {
	return &storage.Container{ID: name}, nil
}

func newArchiveTestRouter(t *testing.T) (*gin.Engine, *archive.JobStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobs, err := archive.NewJobStore(16, time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{ArchiveBatchSize: 3}
	archiver := archive.NewArchiver(cfg, map[storage.Tier]storage.Provider{
		storage.TierSecondary: stubArchiveTier{},
	}, stubLister{}, jobs, zerolog.Nop())

	handler := NewArchiveHandler(archiver, nil, zerolog.Nop())
	r := gin.New()
	r.POST("/v1/events/:eventId/archive", handler.Start)
	r.GET("/v1/archives/:backupId", handler.Status)
	return r, jobs
}

func TestArchiveStartAccepted(t *testing.T) {
	r, jobs := newArchiveTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/evt1/archive", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp responses.ArchiveJobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "evt1", resp.EventID)
	assert.NotEmpty(t, resp.BackupID)

	_, found := jobs.Get(resp.BackupID)
	assert.True(t, found, "accepted jobs are pollable immediately")
}

func TestArchiveStatusNotFound(t *testing.T) {
	r, _ := newArchiveTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/archives/bak_unknown", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp responses.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestArchiveStatusReportsJobState(t *testing.T) {
	r, jobs := newArchiveTestRouter(t)

	job := archive.NewJob("bak_seeded", "evt9")
	job.BeginBackup(4, "event-evt9-2026-08-31", "")
	job.RecordResult("pv_a", nil)
	jobs.Put(job)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/archives/bak_seeded", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.ArchiveJobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(archive.StatusBackingUp), resp.Status)
	assert.Equal(t, 4, resp.TotalPhotos)
	assert.Equal(t, 1, resp.SuccessfulUploads)
	assert.Equal(t, "event-evt9-2026-08-31", resp.DestinationID)
}
