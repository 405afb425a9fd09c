package compression

import (
	"bytes"
	"image"
	"image/jpeg"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photovault/photovault/internal/config"
)

func newTestEngine() *Engine {
	cfg := &config.Config{
		PremiumQuality:      92,
		PremiumMaxDimension: 4096,
		StandardQuality:     80,
		StandardMaxDim:      2048,
		ThumbnailQuality:    70,
		ThumbnailMaxDim:     400,
	}
	return NewEngine(cfg, zerolog.Nop())
}

// noisyJPEG encodes random pixels so the buffer has no compressible structure
// and quality changes show up in the output size.
func noisyJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestCompressResizesOversizeImage(t *testing.T) {
	e := newTestEngine()
	src := noisyJPEG(t, 3000, 1500)

	out, transcoded := e.Compress(src, ClassStandard)
	require.True(t, transcoded)

	w, h := decodeDims(t, out)
	assert.LessOrEqual(t, w, 2048)
	assert.LessOrEqual(t, h, 2048)
	// Aspect ratio survives the fit.
	assert.Equal(t, 2048, w)
	assert.Equal(t, 1024, h)
	assert.Less(t, len(out), len(src))
}

func TestCompressNeverUpscales(t *testing.T) {
	e := newTestEngine()
	src := noisyJPEG(t, 120, 80)

	out, transcoded := e.Compress(src, ClassThumbnail)
	require.True(t, transcoded)

	w, h := decodeDims(t, out)
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)
}

func TestCompressThumbnailFitsProfileDimensions(t *testing.T) {
	e := newTestEngine()
	src := noisyJPEG(t, 1600, 1200)

	out, transcoded := e.Compress(src, ClassThumbnail)
	require.True(t, transcoded)

	w, h := decodeDims(t, out)
	assert.LessOrEqual(t, w, 400)
	assert.LessOrEqual(t, h, 400)
}

func TestCompressPassesThroughUndecodableBuffer(t *testing.T) {
	e := newTestEngine()
	src := []byte("this is not an image")

	out, transcoded := e.Compress(src, ClassStandard)
	assert.False(t, transcoded)
	assert.Equal(t, src, out)
}

func TestCompressPremiumKeepsLargerDimensions(t *testing.T) {
	e := newTestEngine()
	src := noisyJPEG(t, 3000, 1500)

	out, transcoded := e.Compress(src, ClassPremium)
	require.True(t, transcoded)

	w, _ := decodeDims(t, out)
	assert.Equal(t, 3000, w, "premium profile leaves images under 4096px untouched")
}

func TestCompressUnknownClassFallsBackToStandard(t *testing.T) {
	e := newTestEngine()
	src := noisyJPEG(t, 3000, 1500)

	out, transcoded := e.Compress(src, Class("mystery"))
	require.True(t, transcoded)

	w, _ := decodeDims(t, out)
	assert.Equal(t, 2048, w)
}

func TestProfileLookup(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, 400, e.Profile(ClassThumbnail).MaxDimension)
	assert.Equal(t, e.Profile(ClassStandard), e.Profile(Class("mystery")))
}
