package repository

import (
	"context"
	"time"

	"ratings-aggregator/domain/model"
)

// IRatingCache is the TTL-keyed store in front of the providers.
// Implementations never return errors: an unavailable store behaves as an
// always-miss cache whose writes report false.
type IRatingCache interface {
	// Get returns Hit, NegativeHit or Miss for key.
	Get(ctx context.Context, key model.MediaKey) model.CacheResult
	// SetRecords replaces the entry for key with records. It is a no-op
	// returning false when records is empty.
	SetRecords(ctx context.Context, key model.MediaKey, records []model.RatingRecord, ttl time.Duration) bool
	// SetNegative replaces the entry for key with a "nothing found" marker.
	SetNegative(ctx context.Context, key model.MediaKey, ttl time.Duration) bool
	// IsReady is the readiness probe.
	IsReady() bool
}
