package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/domain/repository"
	"ratings-aggregator/infrastructure/logger"
	"ratings-aggregator/infrastructure/metrics"
)

const DefaultProviderTimeout = 12 * time.Second

type IRatingOrchestrator interface {
	// Collect fans out to every provider and merges their records by
	// provider priority. It never fails; the result may be empty.
	Collect(ctx context.Context, mediaType model.MediaType, canonicalID string, meta *model.TitleMetadata, internalID string) []model.RatingRecord
}

type ratingOrchestrator struct {
	providers []repository.IRatingProvider
	timeout   time.Duration
	metrics   metrics.Recorder
}

// NewRatingOrchestrator takes providers in priority order. A non-positive
// timeout means DefaultProviderTimeout.
func NewRatingOrchestrator(providers []repository.IRatingProvider, timeout time.Duration, rec metrics.Recorder) IRatingOrchestrator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &ratingOrchestrator{providers: providers, timeout: timeout, metrics: rec}
}

type providerResult struct {
	records []model.RatingRecord
	err     error
}

var errProviderPanic = errors.New("provider panicked")

func (o *ratingOrchestrator) Collect(ctx context.Context, mediaType model.MediaType, canonicalID string, meta *model.TitleMetadata, internalID string) []model.RatingRecord {
	slots := make([][]model.RatingRecord, len(o.providers))

	var g errgroup.Group
	for i, p := range o.providers {
		if p.NeedsMetadata() && meta == nil {
			logger.GetLogger().WithField("provider", p.Name()).WithField("id", canonicalID).Debug("Skipping provider: no title metadata")
			o.metrics.RecordProviderCall(ctx, p.Name(), metrics.OutcomeSkipped, 0, 0)
			continue
		}
		i, p := i, p
		g.Go(func() error {
			slots[i] =o.invoke(ctx, p, mediaType, canonicalID, meta, internalID)
			return nil
		})
	}
	// Join only: invoke absorbs every provider failure, so Wait never errors.
	_ = g.Wait()

	return merge(slots)
}

// invoke runs one provider under its own deadline. Errors, panics and
// timeouts all yield nil.
func (o *ratingOrchestrator) invoke(ctx context.Context, p repository.IRatingProvider, mediaType model.MediaType, canonicalID string, meta *model.TitleMetadata, internalID string) []model.RatingRecord {
	name := p.Name()
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan providerResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- providerResult{err: fmt.Errorf("%w: %v", errProviderPanic, r)}
			}
		}()
		records, err := p.GetRatings(callCtx, mediaType, canonicalID, meta, internalID)
		done <- providerResult{records: records, err: err}
	}()

	var res providerResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = providerResult{err: callCtx.Err()}
	}
	elapsed := time.Since(start)

	switch {
	case errors.Is(res.err, errProviderPanic):
		logger.GetLogger().WithField("provider", name).WithField("id", canonicalID).WithField("error", res.err).Error("Provider panicked")
		o.metrics.RecordProviderCall(ctx, name, metrics.OutcomePanic, 0, elapsed)
		return nil
	case errors.Is(res.err, context.DeadlineExceeded):
		logger.GetLogger().WithField("provider", name).WithField("id", canonicalID).WithField("timeout", o.timeout.String()).Warn("Provider timed out")
		o.metrics.RecordProviderCall(ctx, name, metrics.OutcomeTimeout, 0, elapsed)
		return nil
	case res.err != nil:
		logger.GetLogger().WithField("provider", name).WithField("id", canonicalID).WithField("error", res.err).Error("Provider failed")
		o.metrics.RecordProviderCall(ctx, name, metrics.OutcomeError, 0, elapsed)
		return nil
	}

	records := normalize(res.records)
	if len(records) == 0 {
		logger.GetLogger().WithField("provider", name).WithField("id", canonicalID).Debug("Provider returned no ratings")
		o.metrics.RecordProviderCall(ctx, name, metrics.OutcomeEmpty, 0, elapsed)
		return nil
	}
	logger.GetLogger().WithField("provider", name).WithField("id", canonicalID).WithField("records", len(records)).Debug("Provider returned ratings")
	o.metrics.RecordProviderCall(ctx, name, metrics.OutcomeOK, len(records), elapsed)
	return records
}

func normalize(records []model.RatingRecord) []model.RatingRecord {
	out := make([]model.RatingRecord, 0, len(records))
	for _, r := range records {
		if n, ok := r.Normalize(); ok {
			out = append(out, n)
		}
	}
	return out
}

// merge walks slots in priority order and keeps the first record per source.
func merge(slots [][]model.RatingRecord) []model.RatingRecord {
	seen := make(map[string]struct{})
	var merged []model.RatingRecord
	for _, records := range slots {
		for _, r := range records {
			if _, dup := seen[r.Source]; dup {
				continue
			}
			seen[r.Source] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}
