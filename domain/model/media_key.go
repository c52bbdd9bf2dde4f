package model

import (
	"fmt"
	"strings"
)

const cacheKeyPrefix = "ratings"

// MediaKey identifies one cache partition. Season and episode suffixes are
// not part of the key.
type MediaKey struct {
	MediaType   MediaType
	CanonicalID string
}

// NewMediaKey strips any ":season:episode" suffix from externalID.
func NewMediaKey(mediaType MediaType, externalID string) MediaKey {
	return MediaKey{
		MediaType:   mediaType,
		CanonicalID: BaseExternalID(externalID),
	}
}

// BaseExternalID returns the parent identifier of "tt123:1:2" style ids.
func BaseExternalID(externalID string) string {
	id := strings.TrimSpace(externalID)
	if i := strings.Index(id, ":"); i >= 0 {
		id = id[:i]
	}
	return id
}

// CacheKey renders the record-set key, e.g. "ratings:movie:tt0111161".
func (k MediaKey) CacheKey() string {
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, k.MediaType, k.CanonicalID)
}

func (k MediaKey) String() string {
	return k.CacheKey()
}

// Valid reports whether the key can address a cache entry. Only movie and
// series keys are valid.
func (k MediaKey) Valid() bool {
	return k.MediaType.Supported() && k.CanonicalID != ""
}
