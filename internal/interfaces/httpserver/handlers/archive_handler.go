package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/photovault/photovault/internal/domain/archive"
	repo "github.com/photovault/photovault/internal/infrastructure/repository/photo"
	"github.com/photovault/photovault/internal/interfaces/httpserver/responses"
)

// ArchiveHandler exposes end-of-event backup control and status endpoints.
type ArchiveHandler struct {
	archiver *archive.Archiver
	photos   *repo.Repository
	log      zerolog.Logger
}

func NewArchiveHandler(archiver *archive.Archiver, photos *repo.Repository, log zerolog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archiver: archiver,
		photos:   photos,
		log:      log.With().Str("component", "archive-handler").Logger(),
	}
}

// Start kicks off a backup job for an event and returns its backup ID.
func (h *ArchiveHandler) Start(c *gin.Context) {
	eventID := c.Param("eventId")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, responses.Error("event id is required"))
		return
	}

	job := h.archiver.Start(eventID)
	h.log.Info().Str("event_id", eventID).Str("backup_id", job.BackupID).Msg("archive job accepted")
	c.JSON(http.StatusAccepted, responses.NewArchiveJobResponse(job.Snapshot()))
}

// Status returns the current state of a backup job.
func (h *ArchiveHandler) Status(c *gin.Context) {
	backupID := c.Param("backupId")
	job, found := h.archiver.Jobs().Get(backupID)
	if !found {
		c.JSON(http.StatusNotFound, responses.Error("backup job not found"))
		return
	}
	c.JSON(http.StatusOK, responses.NewArchiveJobResponse(job.Snapshot()))
}
