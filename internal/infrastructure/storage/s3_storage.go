package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/infrastructure/metrics"
)

// S3Storage backs the primary tier with S3-compatible object storage.
type S3Storage struct {
	bucket         string
	client         *s3.Client
	publicEndpoint string
	endpoint       string
	capacity       int64
	log            zerolog.Logger
	disabled       bool
}

// NewS3Storage creates the primary tier provider. Missing credentials leave
// the provider in a disabled state rather than failing service startup; the
// router treats a disabled tier like one with no headroom.
func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket:         cfg.S3Bucket,
		publicEndpoint: cfg.S3PublicEndpoint,
		endpoint:       cfg.S3Endpoint,
		capacity:       cfg.S3CapacityBytes(),
		log:            logger,
	}

	if !cfg.S3Configured() {
		logger.Warn().Msg("STORAGE_S3_BUCKET or credentials are not set; primary tier disabled")
		storage.disabled = true
		return storage, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	storage.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	return storage, nil
}

func (s *S3Storage) Tier() Tier      { return TierPrimary }
func (s *S3Storage) Name() string    { return "s3" }
func (s *S3Storage) Available() bool { return !s.disabled }

func (s *S3Storage) ensureEnabled() error {
	if s.disabled {
		return fmt.Errorf("%w: s3 credentials not configured", ErrProviderUnavailable)
	}
	return nil
}

// Put uploads content under the logical key and returns its public URL.
func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) (*PutResult, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}

	start := time.Now()
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}
	if len(meta) > 0 {
		input.Metadata = meta
	}
	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		metrics.RecordProviderOp(s.Name(), "put", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: s3 put %s: %v", ErrProviderWriteFailed, key, err)
	}
	metrics.RecordProviderOp(s.Name(), "put", "success", time.Since(start).Seconds())

	etag := ""
	if out.ETag != nil {
		etag = strings.Trim(*out.ETag, `"`)
	}
	return &PutResult{
		URL:  s.objectURL(key),
		Ref:  key,
		ETag: etag,
	}, nil
}

// Get downloads an object by key.
func (s *S3Storage) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, "", err
	}

	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		metrics.RecordProviderOp(s.Name(), "get", "error", time.Since(start).Seconds())
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
		}
		return nil, "", fmt.Errorf("s3 get %s: %w", ref, err)
	}
	metrics.RecordProviderOp(s.Name(), "get", "success", time.Since(start).Seconds())

	mime := ""
	if out.ContentType != nil {
		mime = *out.ContentType
	}
	return out.Body, mime, nil
}

// Delete removes an object by key.
func (s *S3Storage) Delete(ctx context.Context, ref string) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", ref, err)
	}
	return nil
}

// List enumerates objects under a prefix.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}

	var objects []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{}
			if obj.Key != nil {
				info.Ref = *obj.Key
			}
			if obj.Size != nil {
				info.SizeBytes = *obj.Size
			}
			objects = append(objects, info)
		}
	}
	return objects, nil
}

// UsageSnapshot enumerates the bucket and sums object sizes against the
// configured ceiling.
func (s *S3Storage) UsageSnapshot(ctx context.Context) (Usage, error) {
	usage := Usage{CapacityBytes: s.capacity}
	if s.disabled {
		return usage, fmt.Errorf("%w: s3 credentials not configured", ErrProviderUnavailable)
	}

	objects, err := s.List(ctx, "")
	if err != nil {
		return usage, err
	}
	for _, obj := range objects {
		usage.UsedBytes += obj.SizeBytes
	}
	return usage, nil
}

// EnsureContainer is a no-op for object storage; a container is just a key
// prefix.
func (s *S3Storage) EnsureContainer(ctx context.Context, name string) (*Container, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	prefix := strings.Trim(name, "/")
	return &Container{ID: prefix, URL: s.objectURL(prefix + "/")}, nil
}

func (s *S3Storage) objectURL(key string) string {
	base := s.publicEndpoint
	if base == "" {
		base = s.endpoint
	}
	if base == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), s.bucket, key)
}
