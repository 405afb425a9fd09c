package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// CompressionProfile is a quality / bounding-box pair applied before a write.
type CompressionProfile struct {
	Quality      int
	MaxDimension int
}

// Config holds the environment driven configuration for the storage service.
type Config struct {
	// Service Configuration
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"photovault"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"photovault"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort         int           `env:"PHOTOVAULT_PORT" envDefault:"8480"`
	LogLevel         string        `env:"PHOTOVAULT_LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"PHOTOVAULT_LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Telemetry
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders  string `env:"OTEL_EXPORTER_OTLP_HEADERS"`

	// Database
	DatabaseDSN    string        `env:"DB_POSTGRESQL_DSN,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Primary tier: S3-compatible object store
	S3Endpoint       string `env:"STORAGE_S3_ENDPOINT"`
	S3PublicEndpoint string `env:"STORAGE_S3_PUBLIC_ENDPOINT"`
	S3Region         string `env:"STORAGE_S3_REGION" envDefault:"us-east-1"`
	S3Bucket         string `env:"STORAGE_S3_BUCKET"`
	S3AccessKeyID    string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool   `env:"STORAGE_S3_USE_PATH_STYLE" envDefault:"true"`
	S3CapacityGB     int64  `env:"STORAGE_S3_CAPACITY_GB" envDefault:"8"`

	// Secondary tier: Google Drive
	DriveClientID     string `env:"STORAGE_DRIVE_CLIENT_ID"`
	DriveClientSecret string `env:"STORAGE_DRIVE_CLIENT_SECRET"`
	DriveRefreshToken string `env:"STORAGE_DRIVE_REFRESH_TOKEN"`
	DriveRootFolderID string `env:"STORAGE_DRIVE_ROOT_FOLDER_ID"`
	DriveArchiveRoot  string `env:"STORAGE_DRIVE_ARCHIVE_ROOT" envDefault:"event-archives"`
	DriveCapacityGB   int64  `env:"STORAGE_DRIVE_CAPACITY_GB" envDefault:"15"`

	// Local tier: filesystem fallback. The capacity ceiling is advisory; local
	// writes are never refused for lack of headroom.
	LocalStoragePath    string `env:"STORAGE_LOCAL_PATH"`
	LocalStorageBaseURL string `env:"STORAGE_LOCAL_BASE_URL"`
	LocalCapacityGB     int64  `env:"STORAGE_LOCAL_CAPACITY_GB" envDefault:"50"`

	// Compression profile table
	PremiumQuality      int `env:"COMPRESSION_PREMIUM_QUALITY" envDefault:"92"`
	PremiumMaxDimension int `env:"COMPRESSION_PREMIUM_MAX_DIM" envDefault:"4096"`
	StandardQuality     int `env:"COMPRESSION_STANDARD_QUALITY" envDefault:"80"`
	StandardMaxDim      int `env:"COMPRESSION_STANDARD_MAX_DIM" envDefault:"2048"`
	ThumbnailQuality    int `env:"COMPRESSION_THUMBNAIL_QUALITY" envDefault:"70"`
	ThumbnailMaxDim     int `env:"COMPRESSION_THUMBNAIL_MAX_DIM" envDefault:"400"`

	// Upload limits
	MaxUploadBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"52428800"`

	// Batch archival
	ArchiveBatchSize    int           `env:"ARCHIVE_BATCH_SIZE" envDefault:"3"`
	ArchiveBatchDelay   time.Duration `env:"ARCHIVE_BATCH_DELAY" envDefault:"2s"`
	ArchiveJobRetention time.Duration `env:"ARCHIVE_JOB_RETENTION" envDefault:"168h"`
	ArchiveJobCacheSize int           `env:"ARCHIVE_JOB_CACHE_SIZE" envDefault:"256"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.S3PublicEndpoint = strings.TrimSpace(cfg.S3PublicEndpoint)
	cfg.DriveClientID = strings.TrimSpace(cfg.DriveClientID)
	cfg.DriveClientSecret = strings.TrimSpace(cfg.DriveClientSecret)
	cfg.DriveRefreshToken = strings.TrimSpace(cfg.DriveRefreshToken)
	cfg.LocalStoragePath = strings.TrimSpace(cfg.LocalStoragePath)

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 * 1024 * 1024
	}
	if cfg.ArchiveBatchSize <= 0 {
		cfg.ArchiveBatchSize = 3
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// S3Configured reports whether the primary tier has credentials.
func (c *Config) S3Configured() bool {
	return c.S3Bucket != "" && c.S3AccessKeyID != "" && c.S3SecretKey != ""
}

// DriveConfigured reports whether the secondary tier has credentials.
func (c *Config) DriveConfigured() bool {
	return c.DriveClientID != "" && c.DriveClientSecret != "" && c.DriveRefreshToken != ""
}

// S3CapacityBytes returns the primary tier ceiling in bytes.
func (c *Config) S3CapacityBytes() int64 {
	return c.S3CapacityGB * (1 << 30)
}

// DriveCapacityBytes returns the secondary tier ceiling in bytes.
func (c *Config) DriveCapacityBytes() int64 {
	return c.DriveCapacityGB * (1 << 30)
}

// LocalCapacityBytes returns the advisory local tier ceiling in bytes.
func (c *Config) LocalCapacityBytes() int64 {
	return c.LocalCapacityGB * (1 << 30)
}

// PremiumProfile returns the archival-fidelity compression profile.
func (c *Config) PremiumProfile() CompressionProfile {
	return CompressionProfile{Quality: c.PremiumQuality, MaxDimension: c.PremiumMaxDimension}
}

// StandardProfile returns the default compression profile.
func (c *Config) StandardProfile() CompressionProfile {
	return CompressionProfile{Quality: c.StandardQuality, MaxDimension: c.StandardMaxDim}
}

// ThumbnailProfile returns the thumbnail compression profile.
func (c *Config) ThumbnailProfile() CompressionProfile {
	return CompressionProfile{Quality: c.ThumbnailQuality, MaxDimension: c.ThumbnailMaxDim}
}
