package requests

import (
	"github.com/photovault/photovault/internal/domain/routing"
)

// UploadRequest carries the multipart form fields accompanying an upload.
type UploadRequest struct {
	EventID      string `form:"event_id"`
	AlbumName    string `form:"album_name"`
	UploaderName string `form:"uploader_name"`
	IsHomepage   bool   `form:"is_homepage"`
	IsPremium    bool   `form:"is_premium"`
	IsFeatured   bool   `form:"is_featured"`
}

// ToMetadata converts the request into routing metadata.
func (r *UploadRequest) ToMetadata(filename string, sizeBytes int64) routing.PhotoMetadata {
	album := r.AlbumName
	if album == "" {
		album = "general"
	}
	return routing.PhotoMetadata{
		EventID:       r.EventID,
		AlbumName:     album,
		UploaderName:  r.UploaderName,
		Filename:      filename,
		IsHomepage:    r.IsHomepage,
		IsPremium:     r.IsPremium,
		IsFeatured:    r.IsFeatured,
		FileSizeBytes: sizeBytes,
	}
}
