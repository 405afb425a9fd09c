package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/photovault/photovault/utils/photoid"
)

// Logical key layout, enforced identically on the S3 and local tiers so a key
// is portable between them:
//
//	events/{eventId}/{albumName}/{timestamp}_{random}_{sanitizedName}.{ext}
//	homepage/{timestamp}_{random}_{sanitizedName}.{ext}
//
// Drive mirrors the same grouping as a folder hierarchy and hands back opaque
// file IDs instead of keys.

const thumbPrefix = "_thumbs/"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// EventKey builds the logical key for an event photo.
func EventKey(eventID, albumName, filename string) string {
	return fmt.Sprintf("events/%s/%s/%s",
		sanitizeSegment(eventID), sanitizeSegment(albumName), uniqueName(filename))
}

// HomepageKey builds the logical key for a homepage photo.
func HomepageKey(filename string) string {
	return "homepage/" + uniqueName(filename)
}

// ThumbKey returns the thumbnail key for a given original key.
func ThumbKey(key string) string {
	return thumbPrefix + strings.TrimPrefix(key, "/")
}

// ArchiveName builds the object name used inside an archive container.
func ArchiveName(photoID, originalRef string) string {
	ext := path.Ext(originalRef)
	if ext == "" {
		ext = ".jpg"
	}
	return sanitizeSegment(photoID) + ext
}

// uniqueName prefixes the sanitized filename with a millisecond timestamp and
// a random token so that two uploads of the same name in the same millisecond
// still get distinct keys.
func uniqueName(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%d_%s_%s.%s",
		time.Now().UnixMilli(), photoid.Suffix(), sanitizeSegment(base), ext)
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		return "unnamed"
	}
	return s
}
