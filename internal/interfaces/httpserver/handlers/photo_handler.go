package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/domain/archive"
	"github.com/photovault/photovault/internal/domain/routing"
	"github.com/photovault/photovault/internal/infrastructure/observability"
	"github.com/photovault/photovault/internal/infrastructure/storage"
	"github.com/photovault/photovault/internal/interfaces/httpserver/requests"
	"github.com/photovault/photovault/internal/interfaces/httpserver/responses"
)

// PhotoStore persists routed uploads and resolves stored photos. Implemented
// by the photo repository.
type PhotoStore interface {
	CreateFromUpload(ctx context.Context, meta routing.PhotoMetadata, res *routing.UploadResult) (*archive.PhotoRecord, error)
	GetByID(ctx context.Context, id string) (*archive.PhotoRecord, error)
}

// PhotoHandler exposes the upload and download endpoints used by the guest
// upload API and the DSLR uploader.
type PhotoHandler struct {
	cfg    *config.Config
	router *routing.Router
	photos PhotoStore
	log    zerolog.Logger
}

func NewPhotoHandler(cfg *config.Config, router *routing.Router, photos PhotoStore, log zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{
		cfg:    cfg,
		router: router,
		photos: photos,
		log:    log.With().Str("component", "photo-handler").Logger(),
	}
}

// Upload accepts a multipart photo and routes it into tiered storage.
func (h *PhotoHandler) Upload(c *gin.Context) {
	var req requests.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.Error(err.Error()))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.Error("file is required"))
		return
	}
	if fileHeader.Size > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, responses.Error("file exceeds upload limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.Error("failed to read file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.Error("failed to read file"))
		return
	}

	ctx, span := observability.StartSpan(c.Request.Context(), "PhotoHandler.Upload")
	defer span.End()

	meta := req.ToMetadata(fileHeader.Filename, int64(len(data)))
	result, err := h.router.Route(ctx, data, meta)
	if err != nil {
		observability.RecordError(ctx, err)
		if errors.Is(err, routing.ErrAllTiersFailed) {
			h.log.Error().Err(err).Str("uploader", meta.UploaderName).Msg("upload failed on every tier")
			c.JSON(http.StatusServiceUnavailable, responses.Error("all storage tiers failed; retry later"))
			return
		}
		c.JSON(http.StatusBadRequest, responses.Error(err.Error()))
		return
	}

	record, err := h.photos.CreateFromUpload(ctx, meta, result)
	if err != nil {
		h.log.Error().Err(err).Str("ref", result.Ref).Msg("failed to persist photo record")
		c.JSON(http.StatusInternalServerError, responses.Error("photo stored but record persistence failed"))
		return
	}

	c.JSON(http.StatusOK, responses.NewUploadResponse(record.ID, result))
}

// Download streams a photo's bytes from its current tier.
func (h *PhotoHandler) Download(c *gin.Context) {
	id := c.Param("id")
	record, err := h.photos.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.Error(err.Error()))
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, responses.Error("photo not found"))
		return
	}

	provider, ok := h.router.Provider(record.StorageTier)
	if !ok || !provider.Available() {
		c.JSON(http.StatusServiceUnavailable, responses.Error("storage tier unavailable"))
		return
	}

	body, contentType, err := provider.Get(c.Request.Context(), record.StorageRef)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, responses.Error("photo object not found"))
			return
		}
		c.JSON(http.StatusBadGateway, responses.Error(err.Error()))
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.log.Warn().Err(err).Str("photo_id", id).Msg("download stream interrupted")
	}
}

// Usage reports per-tier usage as tracked by the accountant.
func (h *PhotoHandler) Usage(c *gin.Context) {
	c.JSON(http.StatusOK, responses.NewUsageResponse(h.router.Accountant().Snapshot()))
}
