// Package compression re-encodes image buffers to class-keyed quality and
// dimension profiles before a storage write.
package compression

import (
	"bytes"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/photovault/photovault/internal/config"
)

// Class names a quality/dimension profile applied before a write.
type Class string

const (
	// ClassPremium keeps archival fidelity for homepage and featured photos.
	ClassPremium Class = "premium"
	// ClassStandard is the default profile, also used for every cascade
	// fallback attempt.
	ClassStandard Class = "standard"
	// ClassThumbnail is the small fixed-dimension profile for gallery thumbs.
	ClassThumbnail Class = "thumbnail"
)

// Engine re-encodes image buffers to JPEG at a class profile. Resizing
// preserves aspect ratio and never upscales. Buffers that cannot be decoded
// pass through unchanged: an upload must never fail because optimization did.
type Engine struct {
	profiles map[Class]config.CompressionProfile
	log      zerolog.Logger
}

// NewEngine builds the engine from the configured profile table.
func NewEngine(cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		profiles: map[Class]config.CompressionProfile{
			ClassPremium:   cfg.PremiumProfile(),
			ClassStandard:  cfg.StandardProfile(),
			ClassThumbnail: cfg.ThumbnailProfile(),
		},
		log: log.With().Str("component", "compression").Logger(),
	}
}

// Compress re-encodes data per the class profile. The second return reports
// whether the buffer was actually transcoded; false means passthrough.
func (e *Engine) Compress(data []byte, class Class) ([]byte, bool) {
	profile, ok := e.profiles[class]
	if !ok {
		profile = e.profiles[ClassStandard]
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		e.log.Debug().Err(err).Str("class", string(class)).Msg("decode failed, passing buffer through")
		return data, false
	}

	bounds := img.Bounds()
	if bounds.Dx() > profile.MaxDimension || bounds.Dy() > profile.MaxDimension {
		img = imaging.Fit(img, profile.MaxDimension, profile.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: profile.Quality}); err != nil {
		e.log.Debug().Err(err).Str("class", string(class)).Msg("encode failed, passing buffer through")
		return data, false
	}

	// Re-encoding a small, already optimized image can grow it. Thumbnails
	// must be the thumbnail rendition regardless; other classes keep the
	// smaller buffer.
	if class != ClassThumbnail && buf.Len() >= len(data) {
		return data, false
	}
	return buf.Bytes(), true
}

// Profile exposes the configured profile for a class.
func (e *Engine) Profile(class Class) config.CompressionProfile {
	if p, ok := e.profiles[class]; ok {
		return p
	}
	return e.profiles[ClassStandard]
}
