// Package photo persists upload results and serves the archiver's
// photo-listing needs.
package photo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/photovault/photovault/internal/domain/archive"
	"github.com/photovault/photovault/internal/domain/routing"
	"github.com/photovault/photovault/internal/infrastructure/database/entities"
	"github.com/photovault/photovault/internal/infrastructure/storage"
	"github.com/photovault/photovault/utils/photoid"
)

// Repository handles photo record persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateFromUpload persists a routed upload and returns the stored record.
func (r *Repository) CreateFromUpload(ctx context.Context, meta routing.PhotoMetadata, res *routing.UploadResult) (*archive.PhotoRecord, error) {
	entity := entities.Photo{
		ID:              photoid.New(),
		EventID:         meta.EventID,
		AlbumName:       meta.AlbumName,
		UploaderName:    meta.UploaderName,
		URL:             res.URL,
		ThumbnailURL:    res.ThumbnailURL,
		StorageTier:     string(res.Tier),
		StorageProvider: res.Provider,
		StorageRef:      res.Ref,
		StorageETag:     res.ETag,
		CompressionUsed: string(res.CompressionUsed),
		FileSize:        res.SizeBytes,
		IsHomepage:      meta.IsHomepage,
		IsPremium:       meta.IsPremium,
		IsFeatured:      meta.IsFeatured,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, fmt.Errorf("create photo record: %w", err)
	}
	record := mapEntity(entity)
	return &record, nil
}

// GetByID returns a photo record, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*archive.PhotoRecord, error) {
	var entity entities.Photo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get photo by id: %w", err)
	}
	record := mapEntity(entity)
	return &record, nil
}

// ListByEvent returns all photo records of an event, oldest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID string) ([]archive.PhotoRecord, error) {
	var rows []entities.Photo
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list photos by event: %w", err)
	}

	records := make([]archive.PhotoRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapEntity(row))
	}
	return records, nil
}

// MarkEventArchived stamps every photo of the event with the backup that
// archived it. The event-management layer owns the event's own is_archived
// flag.
func (r *Repository) MarkEventArchived(ctx context.Context, eventID, backupID string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&entities.Photo{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"archived_at":       now,
			"archive_backup_id": backupID,
		}).Error
	if err != nil {
		return fmt.Errorf("mark event archived: %w", err)
	}
	return nil
}

func mapEntity(entity entities.Photo) archive.PhotoRecord {
	return archive.PhotoRecord{
		ID:              entity.ID,
		EventID:         entity.EventID,
		AlbumName:       entity.AlbumName,
		UploaderName:    entity.UploaderName,
		URL:             entity.URL,
		ThumbnailURL:    entity.ThumbnailURL,
		StorageTier:     storage.Tier(entity.StorageTier),
		StorageProvider: entity.StorageProvider,
		StorageRef:      entity.StorageRef,
		CompressionUsed: entity.CompressionUsed,
		FileSize:        entity.FileSize,
	}
}
