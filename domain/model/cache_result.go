package model

// CacheOutcome tags what a cache lookup found.
type CacheOutcome int

const (
	CacheMiss CacheOutcome = iota
	CacheHit
	CacheNegativeHit
)

func (o CacheOutcome) String() string {
	switch o {
	case CacheHit:
		return "hit"
	case CacheNegativeHit:
		return "negative_hit"
	default:
		return "miss"
	}
}

// CacheResult is the tagged result of a cache read. Records is only set for
// CacheHit.
type CacheResult struct {
	Outcome CacheOutcome
	Records []RatingRecord
}

func Hit(records []RatingRecord) CacheResult {
	return CacheResult{Outcome: CacheHit, Records: records}
}

func NegativeHit() CacheResult {
	return CacheResult{Outcome: CacheNegativeHit}
}

func Miss() CacheResult {
	return CacheResult{Outcome: CacheMiss}
}
