// Package storage defines the Provider interface for the three storage tiers
// and provides the S3, Google Drive and local filesystem implementations.
// Tiering policy (which tier a photo lands in) lives in the routing domain;
// providers only handle raw object I/O.
package storage

import (
	"context"
	"errors"
	"io"
)

// Tier identifies one of the three storage backends, ranked by priority.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierLocal     Tier = "local"
)

// TierOrder is the fixed cascade order used by the router.
var TierOrder = []Tier{TierPrimary, TierSecondary, TierLocal}

var (
	// ErrProviderUnavailable marks a provider with missing or invalid
	// credentials; the router treats it like a tier with no headroom.
	ErrProviderUnavailable = errors.New("storage provider unavailable")

	// ErrProviderWriteFailed marks a failed put; it triggers a cascade to the
	// next tier.
	ErrProviderWriteFailed = errors.New("storage provider write failed")

	// ErrObjectNotFound is returned by Get for unknown references.
	ErrObjectNotFound = errors.New("object not found")
)

// PutResult describes a confirmed write.
type PutResult struct {
	// URL is the externally reachable address of the object.
	URL string
	// Ref is the provider reference: a logical path for S3/local, an opaque
	// file ID for Drive.
	Ref string
	// ETag is the provider entity tag, when the provider reports one.
	ETag string
}

// Usage is a point-in-time snapshot of bytes consumed against a ceiling.
type Usage struct {
	UsedBytes     int64
	CapacityBytes int64
}

// ObjectInfo describes a stored object returned by List.
type ObjectInfo struct {
	Ref       string
	SizeBytes int64
}

// Container is a destination grouping created for batch archival: a key
// prefix on S3/local, a folder on Drive.
type Container struct {
	ID  string
	URL string
}

// Provider is the uniform capability surface of a storage tier.
type Provider interface {
	// Tier returns the tier this provider backs.
	Tier() Tier

	// Name returns the provider identifier ("s3", "gdrive", "local").
	Name() string

	// Available reports whether the provider was configured with valid
	// credentials at startup.
	Available() bool

	// Put uploads content under the given logical key. Drive ignores the key
	// path and mirrors the grouping as a folder hierarchy instead, returning
	// an opaque file ID as the Ref.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) (*PutResult, error)

	// Get retrieves an object by the Ref returned from Put.
	Get(ctx context.Context, ref string) (io.ReadCloser, string, error)

	// Delete removes an object by Ref.
	Delete(ctx context.Context, ref string) error

	// List enumerates objects under a logical prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// UsageSnapshot reports bytes consumed on this tier. S3 enumerates and
	// sums object sizes, Drive queries the account quota endpoint, local
	// walks the backup directory.
	UsageSnapshot(ctx context.Context) (Usage, error)

	// EnsureContainer creates the named destination grouping if it does not
	// already exist. Creation failing because the container exists is success.
	EnsureContainer(ctx context.Context, name string) (*Container, error)
}
