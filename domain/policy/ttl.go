// Package policy holds the cache lifetime rules for aggregated ratings.
package policy

import "time"

const day = 24 * time.Hour

// AgeBucket maps content up to MaxAge old to a TTL.
type AgeBucket struct {
	MaxAge time.Duration
	TTL    time.Duration
}

// DefaultBuckets are ordered by MaxAge; TTL grows with age.
var DefaultBuckets = []AgeBucket{
	{MaxAge: 7 * day, TTL: 6 * time.Hour},
	{MaxAge: 30 * day, TTL: day},
	{MaxAge: 90 * day, TTL: 3 * day},
	{MaxAge: 365 * day, TTL: 7 * day},
	{MaxAge: 5 * 365 * day, TTL: 30 * day},
}

const (
	DefaultTTL             = 3 * day
	DefaultMaxTTL          = 365 * day
	DefaultNegativeTTL     = 6 * time.Hour
	DefaultLowConfidence   = 6 * time.Hour
	DefaultLowConfidenceAt = 1
)

// TTLPolicy computes how long an aggregated result stays cached.
type TTLPolicy struct {
	// DefaultTTL applies when the release date is unknown.
	DefaultTTL time.Duration
	// Buckets must be sorted by MaxAge with non-decreasing TTL.
	Buckets []AgeBucket
	// MaxTTL applies to content older than the last bucket.
	MaxTTL time.Duration
	// LowConfidenceThreshold is the record count at or below which the
	// result is capped at LowConfidenceTTL.
	LowConfidenceThreshold int
	LowConfidenceTTL       time.Duration
	// NegativeTTL is used for "nothing found" markers.
	NegativeTTL time.Duration

	Now func() time.Time
}

// NewTTLPolicy returns the policy with default buckets.
func NewTTLPolicy() *TTLPolicy {
	buckets := make([]AgeBucket, len(DefaultBuckets))
	copy(buckets, DefaultBuckets)
	return &TTLPolicy{
		DefaultTTL:             DefaultTTL,
		Buckets:                buckets,
		MaxTTL:                 DefaultMaxTTL,
		LowConfidenceThreshold: DefaultLowConfidenceAt,
		LowConfidenceTTL:       DefaultLowConfidence,
		NegativeTTL:            DefaultNegativeTTL,
		Now:                    time.Now,
	}
}

// WithDefaultTTL overrides the unknown-date TTL when d is positive.
func (p *TTLPolicy) WithDefaultTTL(d time.Duration) *TTLPolicy {
	if d > 0 {
		p.DefaultTTL = d
	}
	return p
}

// WithNegativeTTL overrides the negative marker TTL when d is positive.
func (p *TTLPolicy) WithNegativeTTL(d time.Duration) *TTLPolicy {
	if d > 0 {
		p.NegativeTTL = d
	}
	return p
}

// WithLowConfidenceTTL overrides the low-confidence ceiling when d is positive.
func (p *TTLPolicy) WithLowConfidenceTTL(d time.Duration) *TTLPolicy {
	if d > 0 {
		p.LowConfidenceTTL = d
	}
	return p
}

// CalculateTTL returns the cache lifetime for a result with recordCount
// records of content released at releaseDate (nil when unknown).
func (p *TTLPolicy) CalculateTTL(releaseDate *time.Time, recordCount int) time.Duration {
	ttl := p.DefaultTTL
	if releaseDate != nil {
		ttl = p.ttlForAge(p.now().Sub(*releaseDate))
	}
	if recordCount <= p.LowConfidenceThreshold && ttl > p.LowConfidenceTTL {
		ttl = p.LowConfidenceTTL
	}
	return ttl
}

func (p *TTLPolicy) ttlForAge(age time.Duration) time.Duration {
	if age < 0 {
		age = 0
	}
	for _, b := range p.Buckets {
		if age <= b.MaxAge {
			return b.TTL
		}
	}
	return p.MaxTTL
}

func (p *TTLPolicy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
