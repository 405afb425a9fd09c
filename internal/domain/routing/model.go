// Package routing decides which storage tier receives an incoming photo,
// applies tier-appropriate compression, cascades across tiers on failure and
// tracks capacity consumption.
package routing

import (
	"github.com/photovault/photovault/internal/domain/compression"
	"github.com/photovault/photovault/internal/infrastructure/storage"
)

// PhotoMetadata is the immutable routing input supplied by the upload
// handlers and the DSLR uploader alongside the raw buffer.
type PhotoMetadata struct {
	EventID       string
	AlbumName     string
	UploaderName  string
	Filename      string
	IsHomepage    bool
	IsPremium     bool
	IsFeatured    bool
	FileSizeBytes int64
	FileType      string
}

// TierDecision is the selector's answer: where the photo should go and how
// hard to compress it. Computed fresh per upload, never stored.
type TierDecision struct {
	Tier  storage.Tier
	Class compression.Class
}

// TierState is the selector's read-only view of one tier.
type TierState struct {
	Available     bool
	UsedBytes     int64
	CapacityBytes int64
	// Advisory marks a tier whose ceiling is reported but never enforced.
	Advisory bool
}

// UploadResult is the normalized outcome of a successful route call. The
// caller persists it; this package never writes photo records itself.
type UploadResult struct {
	URL             string
	Ref             string
	SizeBytes       int64
	Tier            storage.Tier
	Provider        string
	ThumbnailURL    string
	CompressionUsed compression.Class
	ETag            string
	// Warnings carries degraded-but-successful conditions, e.g. a failed
	// thumbnail generation.
	Warnings []string
}
