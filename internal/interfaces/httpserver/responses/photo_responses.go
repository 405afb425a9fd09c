package responses

import (
	"github.com/photovault/photovault/internal/domain/archive"
	"github.com/photovault/photovault/internal/domain/routing"
	"github.com/photovault/photovault/internal/infrastructure/storage"
)

// UploadResponse is the normalized result handed back to upload callers.
type UploadResponse struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	ThumbnailURL    string   `json:"thumbnail_url,omitempty"`
	StorageTier     string   `json:"storage_tier"`
	StorageProvider string   `json:"storage_provider"`
	StorageRef      string   `json:"storage_ref"`
	ETag            string   `json:"etag,omitempty"`
	CompressionUsed string   `json:"compression_used"`
	FileSize        int64    `json:"file_size"`
	Warnings        []string `json:"warnings,omitempty"`
}

// NewUploadResponse builds the response for a persisted upload.
func NewUploadResponse(id string, res *routing.UploadResult) UploadResponse {
	return UploadResponse{
		ID:              id,
		URL:             res.URL,
		ThumbnailURL:    res.ThumbnailURL,
		StorageTier:     string(res.Tier),
		StorageProvider: res.Provider,
		StorageRef:      res.Ref,
		ETag:            res.ETag,
		CompressionUsed: string(res.CompressionUsed),
		FileSize:        res.SizeBytes,
		Warnings:        res.Warnings,
	}
}

// ArchiveJobResponse reports a backup job's progress.
type ArchiveJobResponse struct {
	BackupID          string               `json:"backup_id"`
	EventID           string               `json:"event_id"`
	Status            string               `json:"status"`
	TotalPhotos       int                  `json:"total_photos"`
	ProcessedPhotos   int                  `json:"processed_photos"`
	SuccessfulUploads int                  `json:"successful_uploads"`
	FailedUploads     int                  `json:"failed_uploads"`
	Errors            []archive.PhotoError `json:"errors,omitempty"`
	StartTime         string               `json:"start_time"`
	EndTime           string               `json:"end_time,omitempty"`
	DestinationID     string               `json:"destination_id,omitempty"`
	DestinationURL    string               `json:"destination_url,omitempty"`
	FailureReason     string               `json:"failure_reason,omitempty"`
}

// NewArchiveJobResponse builds the response from a job snapshot.
func NewArchiveJobResponse(job archive.Job) ArchiveJobResponse {
	resp := ArchiveJobResponse{
		BackupID:          job.BackupID,
		EventID:           job.EventID,
		Status:            string(job.Status),
		TotalPhotos:       job.TotalPhotos,
		ProcessedPhotos:   job.ProcessedPhotos,
		SuccessfulUploads: job.SuccessfulUploads,
		FailedUploads:     job.FailedUploads,
		Errors:            job.Errors,
		StartTime:         job.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		DestinationID:     job.DestinationID,
		DestinationURL:    job.DestinationURL,
		FailureReason:     job.FailureReason,
	}
	if job.EndTime != nil {
		resp.EndTime = job.EndTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// TierUsage reports one tier's tracked consumption.
type TierUsage struct {
	Tier          string `json:"tier"`
	UsedBytes     int64  `json:"used_bytes"`
	CapacityBytes int64  `json:"capacity_bytes"`
}

// UsageResponse reports every tier's usage.
type UsageResponse struct {
	Tiers []TierUsage `json:"tiers"`
}

// NewUsageResponse builds the usage report in fixed tier order.
func NewUsageResponse(snapshot map[storage.Tier]storage.Usage) UsageResponse {
	resp := UsageResponse{}
	for _, tier := range storage.TierOrder {
		usage, ok := snapshot[tier]
		if !ok {
			continue
		}
		resp.Tiers = append(resp.Tiers, TierUsage{
			Tier:          string(tier),
			UsedBytes:     usage.UsedBytes,
			CapacityBytes: usage.CapacityBytes,
		})
	}
	return resp
}
