package routing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/domain/compression"
	"github.com/photovault/photovault/internal/infrastructure/metrics"
	"github.com/photovault/photovault/internal/infrastructure/observability"
	"github.com/photovault/photovault/internal/infrastructure/storage"
)

// ErrAllTiersFailed is returned when every tier refused or failed the write.
// The underlying per-tier errors are attached to the chain.
var ErrAllTiersFailed = errors.New("all storage tiers failed")

// Router is the single entry point external callers use to store a photo.
// It selects a tier, compresses, writes through the tier's provider, cascades
// to the next tier on failure and keeps the usage accountant current.
//
// Route calls are safe for concurrent use; the accountant serializes the
// capacity bookkeeping.
type Router struct {
	cfg       *config.Config
	providers map[storage.Tier]storage.Provider
	engine    *compression.Engine
	acct      *Accountant
	log       zerolog.Logger
}

// NewRouter assembles the router from its collaborators.
func NewRouter(cfg *config.Config, providers map[storage.Tier]storage.Provider, engine *compression.Engine, acct *Accountant, log zerolog.Logger) *Router {
	return &Router{
		cfg:       cfg,
		providers: providers,
		engine:    engine,
		acct:      acct,
		log:       log.With().Str("component", "storage-router").Logger(),
	}
}

// Accountant exposes the usage accountant for status reporting.
func (r *Router) Accountant() *Accountant { return r.acct }

// Provider returns the adapter backing a tier, if one is wired.
func (r *Router) Provider(tier storage.Tier) (storage.Provider, bool) {
	p, ok := r.providers[tier]
	return p, ok
}

// Route stores the buffer on the best available tier and returns the
// normalized result. The result's Tier always names the tier that actually
// accepted the bytes, which after a cascade differs from the first choice.
func (r *Router) Route(ctx context.Context, data []byte, meta PhotoMetadata) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, errors.New("empty upload buffer")
	}
	if int64(len(data)) > r.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("upload of %d bytes exceeds limit of %d", len(data), r.cfg.MaxUploadBytes)
	}
	if meta.FileSizeBytes <= 0 {
		meta.FileSizeBytes = int64(len(data))
	}

	decision := SelectTier(meta, r.tierStates())

	order := r.attemptOrder(decision.Tier)
	var attemptErrs []error
	for i, tier := range order {
		class := decision.Class
		if i > 0 {
			// Cascade attempts always use the standard profile.
			class = compression.ClassStandard
			metrics.RecordFallback(string(order[i-1]), string(tier))
		}

		result, err := r.attempt(ctx, data, meta, tier, class)
		if err != nil {
			attemptErrs = append(attemptErrs, fmt.Errorf("%s: %w", tier, err))
			r.log.Warn().Err(err).
				Str("attempted_tier", string(tier)).
				Str("selected_tier", string(decision.Tier)).
				Msg("tier write failed, cascading")
			metrics.RecordUpload(string(tier), "error", 0)
			continue
		}

		metrics.RecordUpload(string(tier), "success", result.SizeBytes)
		if tier != decision.Tier {
			r.log.Info().
				Str("selected_tier", string(decision.Tier)).
				Str("resulting_tier", string(tier)).
				Msg("upload landed on fallback tier")
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrAllTiersFailed, errors.Join(attemptErrs...))
}

// attempt compresses at the class profile, reserves headroom for the
// compressed size and writes through the tier's provider.
func (r *Router) attempt(ctx context.Context, data []byte, meta PhotoMetadata, tier storage.Tier, class compression.Class) (*UploadResult, error) {
	provider, ok := r.providers[tier]
	if !ok {
		return nil, fmt.Errorf("%w: no provider wired for tier", storage.ErrProviderUnavailable)
	}
	if !provider.Available() {
		return nil, fmt.Errorf("%w: %s", storage.ErrProviderUnavailable, provider.Name())
	}

	ctx, span := observability.StartSpan(ctx, "storage.put",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.tier", string(tier)),
			attribute.String("storage.provider", provider.Name()),
			attribute.String("compression.class", string(class)),
		),
	)
	defer span.End()

	compressed, _ := r.engine.Compress(data, class)
	size := int64(len(compressed))

	if !r.acct.TryReserve(tier, size) {
		return nil, fmt.Errorf("%w: tier has no headroom for %d bytes", storage.ErrProviderUnavailable, size)
	}

	mtype := mimetype.Detect(compressed)
	key := r.buildKey(meta, mtype.Extension())

	putRes, err := provider.Put(ctx, key, bytes.NewReader(compressed), size, mtype.String(), map[string]string{
		"uploader": meta.UploaderName,
		"album":    meta.AlbumName,
	})
	if err != nil {
		r.acct.Release(tier, size)
		observability.RecordError(ctx, err)
		return nil, err
	}
	r.acct.Commit(tier, size)
	observability.AddSpanAttributes(ctx, attribute.Int64("storage.bytes", size))

	result := &UploadResult{
		URL:             putRes.URL,
		Ref:             putRes.Ref,
		SizeBytes:       size,
		Tier:            tier,
		Provider:        provider.Name(),
		CompressionUsed: class,
		ETag:            putRes.ETag,
	}

	// Thumbnail generation is best effort: a failure is logged and recorded
	// as a warning on the result, never raised to the caller.
	if thumbURL, warn := r.generateThumbnail(ctx, data, key, mtype.String()); warn != "" {
		result.Warnings = append(result.Warnings, warn)
	} else {
		result.ThumbnailURL = thumbURL
	}

	return result, nil
}

// generateThumbnail writes the thumbnail rendition to the primary tier when
// it is available, and skips silently when it is not.
func (r *Router) generateThumbnail(ctx context.Context, data []byte, key, contentType string) (string, string) {
	primary, ok := r.providers[storage.TierPrimary]
	if !ok || !primary.Available() {
		return "", ""
	}

	thumb, transcoded := r.engine.Compress(data, compression.ClassThumbnail)
	if !transcoded {
		metrics.ThumbnailsTotal.WithLabelValues("skipped").Inc()
		return "", "thumbnail skipped: source buffer could not be transcoded"
	}

	thumbKey := storage.ThumbKey(key)
	size := int64(len(thumb))
	if !r.acct.TryReserve(storage.TierPrimary, size) {
		metrics.ThumbnailsTotal.WithLabelValues("skipped").Inc()
		return "", "thumbnail skipped: primary tier has no headroom"
	}

	putRes, err := primary.Put(ctx, thumbKey, bytes.NewReader(thumb), size, "image/jpeg", nil)
	if err != nil {
		r.acct.Release(storage.TierPrimary, size)
		r.log.Warn().Err(err).Str("key", thumbKey).Msg("thumbnail upload failed")
		metrics.ThumbnailsTotal.WithLabelValues("error").Inc()
		return "", fmt.Sprintf("thumbnail upload failed: %v", err)
	}
	r.acct.Commit(storage.TierPrimary, size)
	metrics.ThumbnailsTotal.WithLabelValues("success").Inc()
	return putRes.URL, ""
}

// buildKey derives the logical key, swapping the original extension for the
// compressed buffer's actual format.
func (r *Router) buildKey(meta PhotoMetadata, ext string) string {
	name := meta.Filename
	if name == "" {
		name = "photo"
	}
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	name += ext

	if meta.IsHomepage || meta.EventID == "" {
		return storage.HomepageKey(name)
	}
	return storage.EventKey(meta.EventID, meta.AlbumName, name)
}

// tierStates builds the selector's read-only view from the accountant and
// provider availability.
func (r *Router) tierStates() map[storage.Tier]TierState {
	states := make(map[storage.Tier]TierState, len(r.providers))
	for tier, provider := range r.providers {
		usage := r.acct.Usage(tier)
		states[tier] = TierState{
			Available:     provider.Available(),
			UsedBytes:     usage.UsedBytes,
			CapacityBytes: usage.CapacityBytes,
			Advisory:      r.acct.Advisory(tier),
		}
	}
	return states
}

// attemptOrder returns the fixed cascade order starting from the selected
// tier, with the earlier tiers appended after it.
func (r *Router) attemptOrder(first storage.Tier) []storage.Tier {
	order := make([]storage.Tier, 0, len(storage.TierOrder))
	order = append(order, first)
	for _, tier := range storage.TierOrder {
		if tier != first {
			order = append(order, tier)
		}
	}
	return order
}
