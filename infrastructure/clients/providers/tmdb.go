package providers

import (
	"context"
	"fmt"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/clients/tmdb"
	"ratings-aggregator/infrastructure/logger"
)

const TMDbName = "TMDb"

// TMDbAPI is the subset of *tmdb.Client the provider uses.
type TMDbAPI interface {
	Details(ctx context.Context, mediaType model.MediaType, tmdbID string) (*tmdb.Details, error)
	PageURL(mediaType model.MediaType, tmdbID string) string
}

// TMDb reads vote_average from the TMDb API. It needs the resolved id.
type TMDb struct {
	api TMDbAPI
}

func NewTMDb(api TMDbAPI) *TMDb {
	return &TMDb{api: api}
}

func (p *TMDb) Name() string        { return TMDbName }
func (p *TMDb) NeedsMetadata() bool { return true }

func (p *TMDb) GetRatings(ctx context.Context, mediaType model.MediaType, externalID string, _ *model.TitleMetadata, internalID string) ([]model.RatingRecord, error) {
	if internalID == "" {
		logger.GetLogger().WithField("provider", TMDbName).WithField("id", externalID).Warn("Skipping: missing TMDb id")
		return nil, nil
	}
	d, err := p.api.Details(ctx, mediaType, internalID)
	if err != nil || d == nil {
		return nil, err
	}
	if d.VoteAverage <= 0 || d.VoteCount <= 0 {
		logger.GetLogger().
			WithField("provider", TMDbName).
			WithField("tmdb_id", internalID).
			WithField("vote_count", d.VoteCount).
			Debug("No meaningful rating")
		return nil, nil
	}
	return []model.RatingRecord{{
		Source: TMDbName,
		Value:  fmt.Sprintf("%.1f/10", d.VoteAverage),
		URL:    p.api.PageURL(mediaType, internalID),
	}}, nil
}
