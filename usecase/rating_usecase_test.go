package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/domain/policy"
	"ratings-aggregator/domain/repository"
	"ratings-aggregator/usecase"
)

// memoryCache is an in-process IRatingCache that remembers the last TTLs.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]model.CacheResult
	lastTTL     time.Duration
	negativeTTL time.Duration
	writes      int
	unavailable bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]model.CacheResult{}}
}

func (c *memoryCache) Get(_ context.Context, key model.MediaKey) model.CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unavailable {
		return model.Miss()
	}
	if r, ok := c.entries[key.CacheKey()]; ok {
		return r
	}
	return model.Miss()
}

func (c *memoryCache) SetRecords(_ context.Context, key model.MediaKey, records []model.RatingRecord, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unavailable || len(records) == 0 {
		return false
	}
	c.entries[key.CacheKey()] = model.Hit(records)
	c.lastTTL = ttl
	c.writes++
	return true
}

func (c *memoryCache) SetNegative(_ context.Context, key model.MediaKey, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unavailable {
		return false
	}
	c.entries[key.CacheKey()] = model.NegativeHit()
	c.negativeTTL = ttl
	c.writes++
	return true
}

func (c *memoryCache) IsReady() bool { return !c.unavailable }

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, externalID string, mediaType model.MediaType) (*model.TitleMetadata, error) {
	args := m.Called(ctx, externalID, mediaType)
	meta, _ := args.Get(0).(*model.TitleMetadata)
	return meta, args.Error(1)
}

func shawshank() *model.TitleMetadata {
	d := time.Date(1994, time.September, 23, 0, 0, 0, 0, time.UTC)
	return &model.TitleMetadata{InternalID: "278", Title: "The Shawshank Redemption", ReleaseDate: &d}
}

func newUsecase(cache repository.IRatingCache, resolver repository.ITitleResolver, timeout time.Duration, providers ...repository.IRatingProvider) usecase.IRatingUsecase {
	orch := usecase.NewRatingOrchestrator(providers, timeout, nil)
	return usecase.NewRatingUsecase(cache, resolver, orch, policy.NewTTLPolicy(), nil)
}

func totalCalls(providers ...*stubProvider) int32 {
	var n int32
	for _, p := range providers {
		n += p.calls.Load()
	}
	return n
}

func TestGetRatings_Shawshank(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Return(shawshank(), nil)

	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.3/10")}}
	tmdb := &stubProvider{name: "TMDb", needsMetadata: true, records: []model.RatingRecord{rec("TMDb", "8.7/10")}}
	slow := &stubProvider{name: "Slow", delay: time.Second, records: []model.RatingRecord{rec("Slow", "1/10")}}

	uc := newUsecase(cache, resolver, 50*time.Millisecond, imdb, tmdb, slow)
	records, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")

	require.True(t, found)
	assert.Equal(t, []model.RatingRecord{rec("IMDb", "9.3/10"), rec("TMDb", "8.7/10")}, records)
	assert.Equal(t, 1, cache.writes)
	assert.Equal(t, policy.DefaultMaxTTL, cache.lastTTL)
	resolver.AssertExpectations(t)
}

func TestGetRatings_PositiveHitSkipsProviders(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Return(shawshank(), nil).Once()
	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.3/10")}}

	uc := newUsecase(cache, resolver, time.Second, imdb)
	first, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")
	require.True(t, found)

	for i := 0; i < 3; i++ {
		again, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")
		require.True(t, found)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, int32(1), imdb.calls.Load())
	resolver.AssertExpectations(t)
}

func TestGetRatings_NegativeCaching(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt9999999", model.MediaTypeMovie).Return(nil, nil).Once()

	failing := &stubProvider{name: "failing", err: errors.New("503")}
	empty := &stubProvider{name: "empty"}

	uc := newUsecase(cache, resolver, time.Second, failing, empty)

	records, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt9999999")
	assert.False(t, found)
	assert.Empty(t, records)
	assert.Equal(t, policy.DefaultNegativeTTL, cache.negativeTTL)
	assert.Equal(t, int32(2), totalCalls(failing, empty))

	records, found = uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt9999999")
	assert.False(t, found)
	assert.Empty(t, records)
	assert.Equal(t, int32(2), totalCalls(failing, empty))
	resolver.AssertExpectations(t)
}

func TestGetRatings_EpisodeIDsShareTheTitleEntry(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0903747", model.MediaTypeSeries).Return(nil, nil).Once()
	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.5/10")}}

	uc := newUsecase(cache, resolver, time.Second, imdb)
	_, found := uc.GetRatings(context.Background(), model.MediaTypeSeries, "tt0903747:1:1")
	require.True(t, found)
	_, found = uc.GetRatings(context.Background(), model.MediaTypeSeries, "tt0903747:5:16")
	require.True(t, found)

	assert.Equal(t, int32(1), imdb.calls.Load())
	assert.Contains(t, cache.entries, "ratings:series:tt0903747")
}

func TestGetRatings_ResolverFailureIsBestEffort(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Return(nil, errors.New("tmdb down"))

	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.3/10")}}
	scraper := &stubProvider{name: "Metacritic", needsMetadata: true, records: []model.RatingRecord{rec("MC", "82/100")}}

	uc := newUsecase(cache, resolver, time.Second, imdb, scraper)
	records, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")

	require.True(t, found)
	assert.Equal(t, []model.RatingRecord{rec("IMDb", "9.3/10")}, records)
	assert.Equal(t, int32(0), scraper.calls.Load())
	// unknown release date with a single record: low-confidence ceiling
	assert.Equal(t, policy.DefaultLowConfidence, cache.lastTTL)
}

func TestGetRatings_UnavailableCacheStillServes(t *testing.T) {
	cache := newMemoryCache()
	cache.unavailable = true
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Return(shawshank(), nil)
	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.3/10")}}

	uc := newUsecase(cache, resolver, time.Second, imdb)
	for i := 0; i < 2; i++ {
		records, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")
		require.True(t, found)
		assert.Len(t, records, 1)
	}
	assert.Equal(t, int32(2), imdb.calls.Load())
	assert.Equal(t, 0, cache.writes)
	assert.False(t, uc.CacheReady())
}

func TestGetRatings_PanicBecomesNotFound(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Run(func(mock.Arguments) {
		panic("resolver bug")
	})

	uc := newUsecase(cache, resolver, time.Second)
	records, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")
	assert.False(t, found)
	assert.Nil(t, records)
}

func TestGetRatings_InvalidID(t *testing.T) {
	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.3/10")}}
	uc := newUsecase(newMemoryCache(), &MockResolver{}, time.Second, imdb)

	_, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "  ")
	assert.False(t, found)
	assert.Equal(t, int32(0), imdb.calls.Load())
}

func TestGetRatings_UnsupportedMediaType(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.3/10")}}
	uc := newUsecase(cache, resolver, time.Second, imdb)

	records, found := uc.GetRatings(context.Background(), model.MediaType("channel"), "tt0111161")

	assert.False(t, found)
	assert.Nil(t, records)
	assert.Equal(t, int32(0), imdb.calls.Load())
	assert.Equal(t, 0, cache.writes)
	assert.Empty(t, cache.entries)
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRatings_MissAndHitShareOrder(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Return(shawshank(), nil)
	rt := &stubProvider{name: "Rotten Tomatoes", records: []model.RatingRecord{rec("RT", "91%")}}
	imdb := &stubProvider{name: "IMDb", records: []model.RatingRecord{rec("IMDb", "9.3/10")}}
	uc := newUsecase(cache, resolver, time.Second, rt, imdb)

	miss, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")
	require.True(t, found)
	hit, found := uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")
	require.True(t, found)

	want := []model.RatingRecord{rec("IMDb", "9.3/10"), rec("RT", "91%")}
	assert.Equal(t, want, miss)
	assert.Equal(t, want, hit)
	assert.Equal(t, int32(1), totalCalls(rt, imdb))
}

func TestGetRatings_ConcurrentMissesShareOneFanOut(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Return(shawshank(), nil)
	slow := &stubProvider{name: "IMDb", delay: 100 * time.Millisecond, records: []model.RatingRecord{rec("IMDb", "9.3/10")}}

	uc := newUsecase(cache, resolver, time.Second, slow)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = uc.GetRatings(context.Background(), model.MediaTypeMovie, "tt0111161")
		}(i)
	}
	wg.Wait()

	for _, found := range results {
		assert.True(t, found)
	}
	assert.Equal(t, int32(1), slow.calls.Load())
	assert.Equal(t, 1, cache.writes)
}

func TestGetRatings_CancelledCallerDoesNotAbortLookup(t *testing.T) {
	cache := newMemoryCache()
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, "tt0111161", model.MediaTypeMovie).Return(shawshank(), nil)
	imdb := &stubProvider{name: "IMDb", delay: 20 * time.Millisecond, records: []model.RatingRecord{rec("IMDb", "9.3/10")}}

	uc := newUsecase(cache, resolver, time.Second, imdb)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found := uc.GetRatings(ctx, model.MediaTypeMovie, "tt0111161")
	assert.True(t, found)
}
