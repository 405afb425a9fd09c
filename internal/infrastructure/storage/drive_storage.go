package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/infrastructure/metrics"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveStorage backs the secondary tier with Google Drive. Unlike the S3 and
// local tiers it does not expose logical keys: Put mirrors the key's grouping
// as a folder hierarchy and returns an opaque file ID, which is the only
// reference downstream code may use.
type DriveStorage struct {
	svc         *drive.Service
	rootID      string
	archiveRoot string
	capacity    int64
	log         zerolog.Logger
	disabled    bool

	mu      sync.Mutex
	folders map[string]string // folder path -> folder ID
}

// NewDriveStorage creates the secondary tier provider. Missing credentials
// leave the provider disabled, same as the S3 tier.
func NewDriveStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*DriveStorage, error) {
	logger := log.With().Str("component", "drive-storage").Logger()
	storage := &DriveStorage{
		rootID:      cfg.DriveRootFolderID,
		archiveRoot: cfg.DriveArchiveRoot,
		capacity:    cfg.DriveCapacityBytes(),
		log:         logger,
		folders:     make(map[string]string),
	}

	if !cfg.DriveConfigured() {
		logger.Warn().Msg("STORAGE_DRIVE_* credentials are not set; secondary tier disabled")
		storage.disabled = true
		return storage, nil
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.DriveClientID,
		ClientSecret: cfg.DriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.DriveRefreshToken}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	storage.svc = svc
	return storage, nil
}

func (d *DriveStorage) Tier() Tier      { return TierSecondary }
func (d *DriveStorage) Name() string    { return "gdrive" }
func (d *DriveStorage) Available() bool { return !d.disabled }

func (d *DriveStorage) ensureEnabled() error {
	if d.disabled {
		return fmt.Errorf("%w: drive credentials not configured", ErrProviderUnavailable)
	}
	return nil
}

// Put uploads content into a folder hierarchy mirroring the logical key's
// grouping. The returned Ref is the Drive file ID.
func (d *DriveStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) (*PutResult, error) {
	if err := d.ensureEnabled(); err != nil {
		return nil, err
	}

	folderID, err := d.ensureFolderPath(ctx, path.Dir(key))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve folder for %s: %v", ErrProviderWriteFailed, key, err)
	}

	file := &drive.File{
		Name:    path.Base(key),
		Parents: []string{folderID},
	}
	if len(meta) > 0 {
		file.AppProperties = meta
	}

	start := time.Now()
	created, err := d.svc.Files.Create(file).
		Media(body).
		Fields("id, md5Checksum, webViewLink, webContentLink").
		Context(ctx).
		Do()
	if err != nil {
		metrics.RecordProviderOp(d.Name(), "put", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: drive upload %s: %v", ErrProviderWriteFailed, key, err)
	}
	metrics.RecordProviderOp(d.Name(), "put", "success", time.Since(start).Seconds())

	url := created.WebContentLink
	if url == "" {
		url = fmt.Sprintf("https://drive.google.com/uc?id=%s", created.Id)
	}
	return &PutResult{
		URL:  url,
		Ref:  created.Id,
		ETag: created.Md5Checksum,
	}, nil
}

// Get downloads a file by its Drive file ID.
func (d *DriveStorage) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	if err := d.ensureEnabled(); err != nil {
		return nil, "", err
	}

	start := time.Now()
	resp, err := d.svc.Files.Get(ref).Context(ctx).Download()
	if err != nil {
		metrics.RecordProviderOp(d.Name(), "get", "error", time.Since(start).Seconds())
		return nil, "", fmt.Errorf("drive download %s: %w", ref, err)
	}
	metrics.RecordProviderOp(d.Name(), "get", "success", time.Since(start).Seconds())
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Delete removes a file by ID.
func (d *DriveStorage) Delete(ctx context.Context, ref string) error {
	if err := d.ensureEnabled(); err != nil {
		return err
	}
	if err := d.svc.Files.Delete(ref).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive delete %s: %w", ref, err)
	}
	return nil
}

// List enumerates files directly under the folder mirroring the prefix.
func (d *DriveStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := d.ensureEnabled(); err != nil {
		return nil, err
	}

	folderID, err := d.findFolderPath(ctx, strings.Trim(prefix, "/"))
	if err != nil {
		return nil, err
	}
	if folderID == "" {
		return nil, nil
	}

	var objects []ObjectInfo
	pageToken := ""
	for {
		call := d.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false", folderID, folderMimeType)).
			Fields("nextPageToken, files(id, size)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("drive list %s: %w", prefix, err)
		}
		for _, f := range page.Files {
			objects = append(objects, ObjectInfo{Ref: f.Id, SizeBytes: f.Size})
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return objects, nil
}

// UsageSnapshot queries the account storage quota endpoint.
func (d *DriveStorage) UsageSnapshot(ctx context.Context) (Usage, error) {
	usage := Usage{CapacityBytes: d.capacity}
	if d.disabled {
		return usage, fmt.Errorf("%w: drive credentials not configured", ErrProviderUnavailable)
	}

	about, err := d.svc.About.Get().Fields("storageQuota").Context(ctx).Do()
	if err != nil {
		return usage, fmt.Errorf("drive quota: %w", err)
	}
	usage.UsedBytes = about.StorageQuota.Usage
	if about.StorageQuota.Limit > 0 && about.StorageQuota.Limit < usage.CapacityBytes {
		usage.CapacityBytes = about.StorageQuota.Limit
	}
	return usage, nil
}

// EnsureContainer creates a folder under the archive root; an existing folder
// with the same name is reused.
func (d *DriveStorage) EnsureContainer(ctx context.Context, name string) (*Container, error) {
	if err := d.ensureEnabled(); err != nil {
		return nil, err
	}

	rootID, err := d.ensureFolder(ctx, d.parentID(), d.archiveRoot)
	if err != nil {
		return nil, fmt.Errorf("ensure archive root: %w", err)
	}
	folderID, err := d.ensureFolder(ctx, rootID, name)
	if err != nil {
		return nil, fmt.Errorf("ensure container %s: %w", name, err)
	}

	// Prime the path cache so subsequent puts keyed by the container ID land
	// inside this folder instead of resolving a same-named path from the root.
	d.mu.Lock()
	d.folders[folderID] = folderID
	d.folders[d.archiveRoot+"/"+name] = folderID
	d.mu.Unlock()

	return &Container{
		ID:  folderID,
		URL: fmt.Sprintf("https://drive.google.com/drive/folders/%s", folderID),
	}, nil
}

func (d *DriveStorage) parentID() string {
	if d.rootID != "" {
		return d.rootID
	}
	return "root"
}

// ensureFolderPath resolves a slash-separated path like events/{id}/{album}
// into a folder ID, creating folders as needed. Resolved IDs are cached.
func (d *DriveStorage) ensureFolderPath(ctx context.Context, dir string) (string, error) {
	dir = strings.Trim(dir, "/.")
	if dir == "" {
		return d.parentID(), nil
	}

	d.mu.Lock()
	if id, ok := d.folders[dir]; ok {
		d.mu.Unlock()
		return id, nil
	}
	d.mu.Unlock()

	parent := d.parentID()
	for _, segment := range strings.Split(dir, "/") {
		id, err := d.ensureFolder(ctx, parent, segment)
		if err != nil {
			return "", err
		}
		parent = id
	}

	d.mu.Lock()
	d.folders[dir] = parent
	d.mu.Unlock()
	return parent, nil
}

// findFolderPath resolves a folder path without creating anything. Returns
// an empty ID when the path does not exist.
func (d *DriveStorage) findFolderPath(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		return d.parentID(), nil
	}
	parent := d.parentID()
	for _, segment := range strings.Split(dir, "/") {
		id, err := d.findFolder(ctx, parent, segment)
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", nil
		}
		parent = id
	}
	return parent, nil
}

func (d *DriveStorage) findFolder(ctx context.Context, parentID, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), folderMimeType, parentID)
	list, err := d.svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive folder lookup %s: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func (d *DriveStorage) ensureFolder(ctx context.Context, parentID, name string) (string, error) {
	id, err := d.findFolder(ctx, parentID, name)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	created, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		// Another writer may have created the folder between lookup and
		// create; a second lookup settles it.
		if existing, lookupErr := d.findFolder(ctx, parentID, name); lookupErr == nil && existing != "" {
			return existing, nil
		}
		return "", fmt.Errorf("drive create folder %s: %w", name, err)
	}
	return created.Id, nil
}
