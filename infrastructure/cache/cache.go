package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/configuration"
	"ratings-aggregator/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// ErrCacheUnavailable is logged when the store cannot be reached. It never
// leaves this package through the IRatingCache methods.
var ErrCacheUnavailable = errors.New("cache unavailable")

const (
	negativeSuffix = ":none"
	negativeValue  = "none"
	defaultRecheck = 5 * time.Second
	pingTimeout    = 2 * time.Second
)

// NewOptions builds client options from configuration. REDIS_URL wins over
// host/port; the retry fields bound the client's own reconnection backoff.
func NewOptions(cfg configuration.RedisClient) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.Database,
		}
	}
	opts.MaxRetries = cfg.MaxRetries
	opts.MinRetryBackoff = time.Duration(cfg.MinRetryBackoffMs) * time.Millisecond
	opts.MaxRetryBackoff = time.Duration(cfg.MaxRetryBackoffMs) * time.Millisecond
	if cfg.DialTimeoutMs > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeoutMs) * time.Millisecond
	}
	return opts, nil
}

// RatingCache stores rating sets in Redis.
//
// A positive entry is a hash at the record-set key with one field per source.
// A negative entry is a string at the record-set key plus ":none". Every write
// deletes the sibling key in the same transaction, so Get never sees both.
type RatingCache struct {
	opts *redis.Options

	// RecheckInterval is how long an unready cache waits before pinging again.
	RecheckInterval time.Duration

	mu        sync.Mutex
	client    *redis.Client
	ready     atomic.Bool
	lastCheck atomic.Int64
}

func NewRatingCache(opts *redis.Options) *RatingCache {
	return &RatingCache{opts: opts, RecheckInterval: defaultRecheck}
}

// Init creates the client and pings it. A failed ping leaves the cache in the
// degraded state; callers may keep running without caching.
func (c *RatingCache) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.client == nil {
		c.client = redis.NewClient(c.opts)
	}
	client := c.client
	c.mu.Unlock()

	c.lastCheck.Store(time.Now().UnixNano())
	if err := client.Ping(ctx).Err(); err != nil {
		c.ready.Store(false)
		return fmt.Errorf("%w: ping %s: %v", ErrCacheUnavailable, c.opts.Addr, err)
	}
	c.ready.Store(true)
	logger.GetLogger().WithField("addr", c.opts.Addr).Info("Redis client is ready")
	return nil
}

// Close releases the connection. The cache is unready afterwards.
func (c *RatingCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready.Store(false)
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	if err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	logger.GetLogger().Info("Redis client disconnected")
	return nil
}

func (c *RatingCache) IsReady() bool {
	return c.ready.Load()
}

func (c *RatingCache) Get(ctx context.Context, key model.MediaKey) model.CacheResult {
	client := c.usable(ctx)
	if client == nil {
		logger.GetLogger().WithField("key", key.CacheKey()).Debug("Cache not ready, skipping get")
		return model.Miss()
	}

	var (
		recordsCmd *redis.MapStringStringCmd
		markerCmd  *redis.IntCmd
	)
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		recordsCmd = pipe.HGetAll(ctx, key.CacheKey())
		markerCmd = pipe.Exists(ctx, negativeKey(key))
		return nil
	})
	if err != nil {
		c.markUnavailable("get", key, err)
		return model.Miss()
	}

	if fields := recordsCmd.Val(); len(fields) > 0 {
		return model.Hit(recordsFromHash(fields))
	}
	if markerCmd.Val() > 0 {
		return model.NegativeHit()
	}
	return model.Miss()
}

func (c *RatingCache) SetRecords(ctx context.Context, key model.MediaKey, records []model.RatingRecord, ttl time.Duration) bool {
	if len(records) == 0 {
		logger.GetLogger().WithField("key", key.CacheKey()).Warn("No ratings to cache, skipping")
		return false
	}
	if ttl <= 0 {
		logger.GetLogger().WithField("key", key.CacheKey()).WithField("ttl", ttl).Warn("Refusing to cache ratings without expiry")
		return false
	}
	client := c.usable(ctx)
	if client == nil {
		logger.GetLogger().WithField("key", key.CacheKey()).Warn("Cache not ready, cannot store ratings")
		return false
	}

	fields := make(map[string]interface{}, len(records))
	for _, r := range records {
		fields[r.Source] = r.Value
	}
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key.CacheKey(), negativeKey(key))
		pipe.HSet(ctx, key.CacheKey(), fields)
		pipe.Expire(ctx, key.CacheKey(), ttl)
		return nil
	})
	if err != nil {
		c.markUnavailable("set_records", key, err)
		return false
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"key":    key.CacheKey(),
		"fields": len(fields),
		"ttl":    ttl.String(),
	}).Debug("Cached ratings")
	return true
}

func (c *RatingCache) SetNegative(ctx context.Context, key model.MediaKey, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	client := c.usable(ctx)
	if client == nil {
		logger.GetLogger().WithField("key", key.CacheKey()).Warn("Cache not ready, cannot store negative marker")
		return false
	}
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key.CacheKey())
		pipe.Set(ctx, negativeKey(key), negativeValue, ttl)
		return nil
	})
	if err != nil {
		c.markUnavailable("set_negative", key, err)
		return false
	}
	logger.GetLogger().WithField("key", key.CacheKey()).WithField("ttl", ttl.String()).Debug("Cached negative marker")
	return true
}

// usable returns the client when the cache is ready. An unready cache pings
// again at most once per RecheckInterval.
func (c *RatingCache) usable(ctx context.Context) *redis.Client {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	if c.ready.Load() {
		return client
	}

	last := time.Unix(0, c.lastCheck.Load())
	if time.Since(last) < c.RecheckInterval {
		return nil
	}
	c.lastCheck.Store(time.Now().UnixNano())

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil
	}
	c.ready.Store(true)
	logger.GetLogger().Info("Redis client is ready again")
	return client
}

func (c *RatingCache) markUnavailable(op string, key model.MediaKey, err error) {
	if c.ready.Swap(false) {
		c.lastCheck.Store(time.Now().UnixNano())
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"op":    op,
		"key":   key.CacheKey(),
		"error": fmt.Errorf("%w: %v", ErrCacheUnavailable, err).Error(),
	}).Error("Redis operation failed")
}

func negativeKey(key model.MediaKey) string {
	return key.CacheKey() + negativeSuffix
}

func recordsFromHash(fields map[string]string) []model.RatingRecord {
	records := make([]model.RatingRecord, 0, len(fields))
	for source, value := range fields {
		records = append(records, model.RatingRecord{Source: source, Value: value})
	}
	model.SortBySource(records)
	return records
}
