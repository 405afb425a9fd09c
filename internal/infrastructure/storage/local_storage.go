package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/photovault/photovault/internal/config"
)

// LocalStorage backs the last-resort tier with the local filesystem. Its
// capacity ceiling is advisory; writes are never refused for lack of headroom.
type LocalStorage struct {
	basePath string
	baseURL  string
	capacity int64
	log      zerolog.Logger
	disabled bool
}

// NewLocalStorage creates the local tier provider.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	if cfg.LocalStoragePath == "" {
		logger.Warn().Msg("STORAGE_LOCAL_PATH is not set; local tier disabled")
		return &LocalStorage{log: logger, disabled: true}, nil
	}

	if err := os.MkdirAll(cfg.LocalStoragePath, 0755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}

	storage := &LocalStorage{
		basePath: cfg.LocalStoragePath,
		baseURL:  strings.TrimSpace(cfg.LocalStorageBaseURL),
		capacity: cfg.LocalCapacityBytes(),
		log:      logger,
	}

	logger.Info().
		Str("path", storage.basePath).
		Str("base_url", storage.baseURL).
		Msg("local storage initialized")

	return storage, nil
}

func (l *LocalStorage) Tier() Tier      { return TierLocal }
func (l *LocalStorage) Name() string    { return "local" }
func (l *LocalStorage) Available() bool { return !l.disabled }

func (l *LocalStorage) ensureEnabled() error {
	if l.disabled {
		return fmt.Errorf("%w: local storage path not configured", ErrProviderUnavailable)
	}
	return nil
}

// resolve maps a logical key into the backup directory, refusing keys that
// escape it.
func (l *LocalStorage) resolve(key string) (string, error) {
	full := filepath.Join(l.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(full, filepath.Clean(l.basePath)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return full, nil
}

// Put stores a file under the logical key.
func (l *LocalStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) (*PutResult, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, err
	}

	fullPath, err := l.resolve(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderWriteFailed, err)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrProviderWriteFailed, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%w: create file: %v", ErrProviderWriteFailed, err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("%w: write file: %v", ErrProviderWriteFailed, err)
	}

	l.log.Debug().
		Str("key", key).
		Int64("bytes", written).
		Msg("file written to local storage")

	return &PutResult{URL: l.objectURL(key), Ref: key}, nil
}

// Get reads a file by key.
func (l *LocalStorage) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, "", err
	}

	fullPath, err := l.resolve(ref)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
		}
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	return file, contentTypeFromPath(fullPath), nil
}

// Delete removes a file by key.
func (l *LocalStorage) Delete(ctx context.Context, ref string) error {
	if err := l.ensureEnabled(); err != nil {
		return err
	}
	fullPath, err := l.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// List walks the directory under a logical prefix.
func (l *LocalStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, err
	}

	root := filepath.Join(l.basePath, filepath.FromSlash(prefix))
	var objects []ObjectInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Ref:       filepath.ToSlash(rel),
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk local storage: %w", err)
	}
	return objects, nil
}

// UsageSnapshot walks the backup directory tree and sums file sizes.
func (l *LocalStorage) UsageSnapshot(ctx context.Context) (Usage, error) {
	usage := Usage{CapacityBytes: l.capacity}
	if l.disabled {
		return usage, fmt.Errorf("%w: local storage path not configured", ErrProviderUnavailable)
	}

	objects, err := l.List(ctx, "")
	if err != nil {
		return usage, err
	}
	for _, obj := range objects {
		usage.UsedBytes += obj.SizeBytes
	}
	return usage, nil
}

// EnsureContainer creates the named directory; an existing directory is
// success.
func (l *LocalStorage) EnsureContainer(ctx context.Context, name string) (*Container, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, err
	}
	dir := strings.Trim(name, "/")
	fullPath, err := l.resolve(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	return &Container{ID: dir, URL: l.objectURL(dir)}, nil
}

func (l *LocalStorage) objectURL(key string) string {
	if l.baseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(l.baseURL, "/"), filepath.ToSlash(key))
	}
	return fmt.Sprintf("file://%s", filepath.Join(l.basePath, filepath.FromSlash(key)))
}

// contentTypeFromPath determines content type from file extension.
func contentTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
