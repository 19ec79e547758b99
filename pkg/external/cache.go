package external

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
)

// CachingExtractor wraps a symptom extractor with a two-tier cache: an
// in-memory LRU for the hot path and an optional Redis tier shared across
// instances. Identical complaint texts are frequent in a chat flow (retries,
// page reloads), and extraction is the slowest step of a turn.
type CachingExtractor struct {
	inner      domain.SymptomExtractor
	memory     *lru.Cache[string, cachedExtraction]
	redis      *redis.Client
	defaultTTL time.Duration
	logger     *logrus.Logger
}

// cachedExtraction is the cache entry shape, shared by both tiers.
type cachedExtraction struct {
	Vector   domain.SymptomVector `json:"vector"`
	Found    bool                 `json:"found"`
	CachedAt time.Time            `json:"cached_at"`
}

// NewCachingExtractor wraps an extractor with the configured cache tiers.
// A missing Redis URL leaves the distributed tier off; the memory tier is
// always on.
func NewCachingExtractor(inner domain.SymptomExtractor, config domain.CacheConfig, logger *logrus.Logger) (*CachingExtractor, error) {
	size := config.MemorySize
	if size <= 0 {
		size = 1024
	}
	memory, err := lru.New[string, cachedExtraction](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	ttl := config.DefaultTTL
	if ttl == 0 {
		ttl = time.Hour
	}

	c := &CachingExtractor{
		inner:      inner,
		memory:     memory,
		defaultTTL: ttl,
		logger:     logger,
	}

	if config.RedisURL != "" {
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts.PoolSize = config.PoolSize
		opts.PoolTimeout = config.PoolTimeout
		opts.MaxRetries = config.MaxRetries

		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.redis = client
	}

	return c, nil
}

// ExtractSymptoms checks both cache tiers before delegating to the wrapped
// extractor. Cache failures never fail the extraction.
func (c *CachingExtractor) ExtractSymptoms(ctx context.Context, text string) (domain.SymptomVector, bool, error) {
	key := extractionKey(text)

	if entry, ok := c.memory.Get(key); ok {
		return entry.Vector, entry.Found, nil
	}

	if c.redis != nil {
		if entry, ok := c.redisGet(ctx, key); ok {
			c.memory.Add(key, entry)
			return entry.Vector, entry.Found, nil
		}
	}

	vector, found, err := c.inner.ExtractSymptoms(ctx, text)
	if err != nil {
		return nil, false, err
	}

	entry := cachedExtraction{Vector: vector, Found: found, CachedAt: time.Now()}
	c.memory.Add(key, entry)
	if c.redis != nil {
		c.redisSet(ctx, key, entry)
	}

	return vector, found, nil
}

func (c *CachingExtractor) redisGet(ctx context.Context, key string) (cachedExtraction, bool) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return cachedExtraction{}, false
	}
	if err != nil {
		c.logger.WithError(err).Debug("Redis cache read failed")
		return cachedExtraction{}, false
	}

	var entry cachedExtraction
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		// Drop the corrupted entry.
		c.redis.Del(ctx, key)
		return cachedExtraction{}, false
	}
	return entry, true
}

func (c *CachingExtractor) redisSet(ctx context.Context, key string, entry cachedExtraction) {
	payload, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).Debug("Failed to marshal cache entry")
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.defaultTTL).Err(); err != nil {
		c.logger.WithError(err).Debug("Redis cache write failed")
	}
}

// Close releases the Redis connection if the distributed tier is enabled.
func (c *CachingExtractor) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// extractionKey hashes the complaint text into a stable cache key.
func extractionKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("extraction:%x", hash[:16])
}
