package repository

import (
	"context"

	"ratings-aggregator/domain/model"
)

// IRatingProvider fetches ratings from one upstream source.
//
// Providers should handle their own recoverable failures (HTTP 404, missing
// markup) by returning (nil, nil). A returned error, a panic or a timeout is
// treated by the orchestrator as "no contribution".
type IRatingProvider interface {
	Name() string
	// NeedsMetadata reports whether the provider can only work with a
	// resolved title.
	NeedsMetadata() bool
	GetRatings(ctx context.Context, mediaType model.MediaType, externalID string, meta *model.TitleMetadata, internalID string) ([]model.RatingRecord, error)
}
