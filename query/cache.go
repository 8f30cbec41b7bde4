package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spektr-org/rentalcharts/engine"
	"go.uber.org/zap"
)

// ErrCacheMiss means the key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// CacheKeyPrefix prefixes every cached row set.
const CacheKeyPrefix = "rentalcharts:rows:"

// KVStore is the key-value store behind CachedSource (Redis in production,
// replaceable in tests).
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisKVStore is a KVStore over go-redis.
type RedisKVStore struct {
	client *redis.Client
}

func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// ============================================================================
// CACHED SOURCE
// ============================================================================
// Decorates a Source. Row sets are stored as JSON keyed by a hash of the
// request (id excluded). Cache failures never fail a fetch: they are logged
// and the inner source answers.
// ============================================================================

// CachedSource serves repeated requests from a KVStore.
type CachedSource struct {
	inner  Source
	store  KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSource wraps inner with a cache of the given TTL.
func NewCachedSource(inner Source, store KVStore, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{inner: inner, store: store, ttl: ttl, logger: logger}
}

// Fetch returns cached rows for req or fetches and stores them.
func (c *CachedSource) Fetch(ctx context.Context, req Request) ([]engine.Row, error) {
	key, err := CacheKey(req)
	if err != nil {
		return c.inner.Fetch(ctx, req)
	}

	cached, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var rows []engine.Row
		if err := json.Unmarshal([]byte(cached), &rows); err == nil {
			c.logger.Debug("row cache hit", zap.String("request_id", req.ID), zap.String("key", key))
			return rows, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	case errors.Is(err, ErrCacheMiss):
	default:
		c.logger.Warn("row cache read failed", zap.String("key", key), zap.Error(err))
	}

	rows, err := c.inner.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		c.logger.Warn("failed to encode rows for cache", zap.Error(err))
		return rows, nil
	}
	if err := c.store.Set(ctx, key, string(payload), c.ttl); err != nil {
		c.logger.Warn("row cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rows, nil
}

// CacheKey derives the cache key of a request. Requests differing only in
// their id share a key.
func CacheKey(req Request) (string, error) {
	req.ID = ""
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return CacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}
