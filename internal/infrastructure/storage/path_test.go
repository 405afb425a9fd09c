package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventKeyLayout(t *testing.T) {
	key := EventKey("evt42", "ceremony", "My Photo.JPG")

	require.True(t, strings.HasPrefix(key, "events/evt42/ceremony/"))
	assert.True(t, strings.HasSuffix(key, "_My-Photo.jpg"), "sanitized name and lowered extension expected, got %s", key)

	parts := strings.Split(strings.TrimPrefix(key, "events/evt42/ceremony/"), "_")
	require.GreaterOrEqual(t, len(parts), 3, "timestamp, random token and name expected in %s", key)
}

func TestEventKeySanitizesSegments(t *testing.T) {
	key := EventKey("evt/42", "über album!", "shot.png")

	// Slashes inside segments collapse; only the three layout separators
	// remain.
	assert.Len(t, strings.Split(key, "/"), 4)
	assert.NotContains(t, key, "!")
	assert.NotContains(t, key, " ")
	assert.True(t, strings.HasPrefix(key, "events/evt42/"))
}

func TestHomepageKeyLayout(t *testing.T) {
	key := HomepageKey("hero.jpeg")
	assert.True(t, strings.HasPrefix(key, "homepage/"))
	assert.True(t, strings.HasSuffix(key, ".jpeg"))
}

func TestKeyCollisionResistance(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key := EventKey("evt1", "album", "same-name.jpg")
		_, dup := seen[key]
		require.False(t, dup, "duplicate key generated: %s", key)
		seen[key] = struct{}{}
	}
}

func TestThumbKey(t *testing.T) {
	assert.Equal(t, "_thumbs/events/e/a/x.jpg", ThumbKey("events/e/a/x.jpg"))
	assert.Equal(t, "_thumbs/homepage/x.jpg", ThumbKey("/homepage/x.jpg"))
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "pv_abc.png", ArchiveName("pv_abc", "events/e/a/123_tok_x.png"))
	assert.Equal(t, "pv_abc.jpg", ArchiveName("pv_abc", "driveFileIdWithoutExt"))
}

func TestUniqueNameDefaultsExtension(t *testing.T) {
	key := HomepageKey("noext")
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}
