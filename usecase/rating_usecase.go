package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/domain/policy"
	"ratings-aggregator/domain/repository"
	"ratings-aggregator/infrastructure/logger"
	"ratings-aggregator/infrastructure/metrics"
)

// IRatingUsecase is the aggregation entry point. found is false both for
// titles nothing is known about and for any internal failure.
type IRatingUsecase interface {
	GetRatings(ctx context.Context, mediaType model.MediaType, externalID string) (records []model.RatingRecord, found bool)
	CacheReady() bool
}

type ratingUsecase struct {
	cache        repository.IRatingCache
	resolver     repository.ITitleResolver
	orchestrator IRatingOrchestrator
	ttl          *policy.TTLPolicy
	metrics      metrics.Recorder
	flight       singleflight.Group
}

type flightResult struct {
	records []model.RatingRecord
	found   bool
}

func NewRatingUsecase(cache repository.IRatingCache, resolver repository.ITitleResolver, orchestrator IRatingOrchestrator, ttl *policy.TTLPolicy, rec metrics.Recorder) IRatingUsecase {
	if ttl == nil {
		ttl = policy.NewTTLPolicy()
	}
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &ratingUsecase{
		cache:        cache,
		resolver:     resolver,
		orchestrator: orchestrator,
		ttl:          ttl,
		metrics:      rec,
	}
}

func (u *ratingUsecase) CacheReady() bool {
	return u.cache.IsReady()
}

func (u *ratingUsecase) GetRatings(ctx context.Context, mediaType model.MediaType, externalID string) (records []model.RatingRecord, found bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().
				WithField("error", fmt.Sprint(r)).
				WithField("type", mediaType).
				WithField("id", externalID).
				Error("Recovered from panic while aggregating ratings")
			records, found = nil, false
		}
	}()

	key := model.NewMediaKey(mediaType, externalID)
	if !key.Valid() {
		logger.GetLogger().WithField("type", mediaType).WithField("id", externalID).Warn("Invalid media key")
		return nil, false
	}

	// Concurrent misses for one key share a single lookup. The shared work
	// is detached from the first caller's cancellation.
	v, _, shared := u.flight.Do(key.CacheKey(), func() (res interface{}, err error) {
		// singleflight re-panics unrecoverably when callers are waiting.
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().WithField("error", fmt.Sprint(r)).WithField("key", key.CacheKey()).Error("Recovered from panic in lookup")
				res = flightResult{}
			}
		}()
		recs, ok := u.lookup(context.WithoutCancel(ctx), key)
		return flightResult{records: recs, found: ok}, nil
	})
	if shared {
		logger.GetLogger().WithField("key", key.CacheKey()).Debug("Joined in-flight lookup")
	}
	res := v.(flightResult)
	return res.records, res.found
}

func (u *ratingUsecase) lookup(ctx context.Context, key model.MediaKey) ([]model.RatingRecord, bool) {
	cached := u.cache.Get(ctx, key)
	u.metrics.RecordCacheLookup(ctx, cached.Outcome.String())
	switch cached.Outcome {
	case model.CacheHit:
		logger.GetLogger().WithField("key", key.CacheKey()).Info("Cache hit")
		return cached.Records, true
	case model.CacheNegativeHit:
		logger.GetLogger().WithField("key", key.CacheKey()).Info("Negative cache hit")
		return nil, false
	}
	logger.GetLogger().WithField("key", key.CacheKey()).Info("Cache miss, aggregating from providers")

	start := time.Now()
	meta := u.resolve(ctx, key)
	internalID := ""
	var releaseDate *time.Time
	if meta != nil {
		internalID = meta.InternalID
		releaseDate = meta.ReleaseDate
	}

	records := u.orchestrator.Collect(ctx, key.MediaType, key.CanonicalID, meta, internalID)
	u.metrics.RecordAggregation(ctx, len(records) > 0, time.Since(start))

	if len(records) == 0 {
		logger.GetLogger().WithField("key", key.CacheKey()).Warn("No ratings found after checking all providers")
		if !u.cache.SetNegative(ctx, key, u.ttl.NegativeTTL) {
			logger.GetLogger().WithField("key", key.CacheKey()).Debug("Negative marker not cached")
		}
		return nil, false
	}

	// Same order a later cache hit returns.
	model.SortBySource(records)
	ttl := u.ttl.CalculateTTL(releaseDate, len(records))
	if u.cache.SetRecords(ctx, key, records, ttl) {
		logger.GetLogger().
			WithField("key", key.CacheKey()).
			WithField("records", len(records)).
			WithField("ttl", ttl.String()).
			Info("Cached ratings")
	}
	return records, true
}

// resolve is best effort: errors and unknown titles both yield nil.
func (u *ratingUsecase) resolve(ctx context.Context, key model.MediaKey) *model.TitleMetadata {
	if u.resolver == nil {
		return nil
	}
	meta, err := u.resolver.Resolve(ctx, key.CanonicalID, key.MediaType)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("id", key.CanonicalID).Warn("Title resolution failed")
		return nil
	}
	if meta == nil {
		logger.GetLogger().WithField("id", key.CanonicalID).Warn("Title not resolved, providers needing metadata will be skipped")
	}
	return meta
}
