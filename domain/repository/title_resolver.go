package repository

import (
	"context"

	"ratings-aggregator/domain/model"
)

// ITitleResolver maps an external id to the internal id and title metadata.
// A nil result with a nil error means the title is unknown.
type ITitleResolver interface {
	Resolve(ctx context.Context, externalID string, mediaType model.MediaType) (*model.TitleMetadata, error)
}
