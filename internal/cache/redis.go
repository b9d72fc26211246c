package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/docentlabs/docent/internal/fingerprint"
)

const redisKeyPrefix = "docent:cache:"

// Redis is a Store backed by a Redis server. Entries are written without
// TTL; fingerprints fully determine their values.
type Redis struct {
	client *redis.Client
}

// RedisConfig holds connection settings for the Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis creates a Redis store and verifies connectivity.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &Redis{client: client}, nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get returns the cached value for fp.
func (r *Redis) Get(ctx context.Context, fp fingerprint.Fingerprint) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+fp.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

// Set stores val under fp with no expiry.
func (r *Redis) Set(ctx context.Context, fp fingerprint.Fingerprint, val []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+fp.String(), val, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Stats scans the cache keyspace and sums payload sizes.
func (r *Redis) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		size, err := r.client.StrLen(ctx, iter.Val()).Result()
		if err != nil {
			return Stats{}, fmt.Errorf("redis strlen failed: %w", err)
		}
		stats.Entries++
		stats.SizeBytes += size
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("redis scan failed: %w", err)
	}
	return stats, nil
}

// Clear removes every cache entry.
func (r *Redis) Clear(ctx context.Context) (int, error) {
	var removed int
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) > 0 {
		n, err := r.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, fmt.Errorf("redis del failed: %w", err)
		}
		removed = int(n)
	}
	return removed, nil
}

var _ Manager = (*Redis)(nil)
