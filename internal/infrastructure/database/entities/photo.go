package entities

import "time"

// Photo represents the persisted upload result for one stored photo.
type Photo struct {
	ID              string `gorm:"type:varchar(40);primaryKey"`
	EventID         string `gorm:"type:varchar(40);index"`
	AlbumName       string `gorm:"type:varchar(128)"`
	UploaderName    string `gorm:"type:varchar(128)"`
	URL             string `gorm:"type:varchar(512);not null"`
	ThumbnailURL    string `gorm:"type:varchar(512)"`
	StorageTier     string `gorm:"type:varchar(16);not null"`
	StorageProvider string `gorm:"type:varchar(32);not null"`
	StorageRef      string `gorm:"type:varchar(512);not null"`
	StorageETag     string `gorm:"type:varchar(128)"`
	CompressionUsed string `gorm:"type:varchar(16)"`
	FileSize        int64  `gorm:"not null"`
	IsHomepage      bool   `gorm:"not null;default:false"`
	IsPremium       bool   `gorm:"not null;default:false"`
	IsFeatured      bool   `gorm:"not null;default:false"`
	ArchivedAt      *time.Time
	ArchiveBackupID string    `gorm:"type:varchar(40)"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Photo) TableName() string {
	return "photos"
}
