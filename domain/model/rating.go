package model

import (
	"sort"
	"strings"
	"time"
)

// MediaType is the kind of title a rating lookup targets.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// ParseMediaType returns the media type for s and whether it is supported.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeMovie:
		return MediaTypeMovie, true
	case MediaTypeSeries:
		return MediaTypeSeries, true
	default:
		return "", false
	}
}

// Supported reports whether t is one of the media types ratings are kept for.
func (t MediaType) Supported() bool {
	return t == MediaTypeMovie || t == MediaTypeSeries
}

// RatingRecord is one normalized quality signal from one source.
type RatingRecord struct {
	Source string `json:"source"`
	Value  string `json:"value"`
	URL    string `json:"url,omitempty"`
	// Type is a display label ("Critics", "Age Rating", ...); it is not cached.
	Type string `json:"type,omitempty"`
}

// SortBySource orders records by source name in place.
func SortBySource(records []RatingRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Source < records[j].Source })
}

// Normalize trims the record and reports whether it is usable.
func (r RatingRecord) Normalize() (RatingRecord, bool) {
	r.Source = strings.TrimSpace(r.Source)
	r.Value = strings.TrimSpace(r.Value)
	r.URL = strings.TrimSpace(r.URL)
	if r.Source == "" || r.Value == "" {
		return RatingRecord{}, false
	}
	return r, true
}

// TitleMetadata is what the identifier resolver knows about a title.
type TitleMetadata struct {
	InternalID  string     `json:"internal_id"`
	Title       string     `json:"title"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// Year returns the release year as a string, or "" when unknown.
func (m *TitleMetadata) Year() string {
	if m == nil || m.ReleaseDate == nil {
		return ""
	}
	return m.ReleaseDate.Format("2006")
}

// HasTitle reports whether a usable title is present.
func (m *TitleMetadata) HasTitle() bool {
	return m != nil && strings.TrimSpace(m.Title) != ""
}
