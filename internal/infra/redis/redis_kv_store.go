package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"job-board/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "job-board:"

type redisKVStore struct {
	rdb    redis.Cmdable
	tracer trace.Tracer
}

// NewRedisKVStore creates a key-value store backed by Redis strings.
func NewRedisKVStore(rdb redis.Cmdable) domain.KeyValueStore {
	return &redisKVStore{rdb: rdb, tracer: otel.Tracer("job-board-redis-kv")}
}

func (s *redisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "repo.redis.Get", trace.WithAttributes(attribute.String("redis.key", keyPrefix+key)))
	defer span.End()

	val, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis get failed")
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *redisKVStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "repo.redis.Set", trace.WithAttributes(attribute.String("redis.key", keyPrefix+key)))
	defer span.End()

	if err := s.rdb.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis set failed")
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisKVStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "repo.redis.Delete")
	defer span.End()

	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// List scans the keyspace under prefix. Keys are sorted before the values
// are fetched so callers see key order like the other backends.
func (s *redisKVStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	ctx, span := s.tracer.Start(ctx, "repo.redis.List")
	defer span.End()

	var keys []string
	iter := s.rdb.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return [][]byte{}, nil
	}
	sort.Strings(keys)

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("redis mget %s: %w", prefix, err)
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		// Keys deleted between SCAN and MGET come back nil.
		if str, ok := v.(string); ok {
			out = append(out, []byte(str))
		}
	}
	span.SetAttributes(attribute.Int("redis.key_count", len(out)))
	return out, nil
}

func (s *redisKVStore) Close() error { return nil }
