// internal/infra/etcd/etcd_kv_store.go
package etcd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"

	"job-board/internal/domain"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	KeyPrefix = "/job-board/"
)

type etcdKVStore struct {
	client clientv3.KV
	logger *slog.Logger
	tracer trace.Tracer
}

// NewEtcdKVStore creates a key-value store backed by etcd. Keys live under
// KeyPrefix. A *clientv3.Client satisfies client.
func NewEtcdKVStore(client clientv3.KV, logger *slog.Logger) domain.KeyValueStore {
	return &etcdKVStore{
		client: client,
		logger: logger.With("component", "etcd-kv"),
		tracer: otel.Tracer("job-board-etcd-kv"),
	}
}

func (s *etcdKVStore) key(k string) string {
	return path.Join(KeyPrefix, k)
}

// Set stores value under key.
func (s *etcdKVStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "repo.etcd.Set")
	defer span.End()

	full := s.key(key)
	span.SetAttributes(attribute.String("etcd.key", full))

	if _, err := s.client.Put(ctx, full, string(value)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put key to etcd")
		return fmt.Errorf("failed to set %s in etcd: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *etcdKVStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "repo.etcd.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("etcd.key", s.key(key)))

	if _, err := s.client.Delete(ctx, s.key(key)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete key from etcd")
		return fmt.Errorf("failed to delete %s from etcd: %w", key, err)
	}
	return nil
}

// Get retrieves the value of key.
func (s *etcdKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "repo.etcd.Get")
	defer span.End()
	span.SetAttributes(attribute.String("etcd.key", s.key(key)))

	resp, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get key from etcd")
		return nil, fmt.Errorf("failed to get %s from etcd: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, domain.ErrKeyNotFound
	}
	return resp.Kvs[0].Value, nil
}

// List retrieves every value under prefix, sorted by key. Sorting happens
// here so the order does not depend on the server's range options.
func (s *etcdKVStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	ctx, span := s.tracer.Start(ctx, "repo.etcd.List")
	defer span.End()

	// path.Join drops a trailing slash that callers use to bound the prefix.
	full := KeyPrefix + prefix
	resp, err := s.client.Get(ctx, full, clientv3.WithPrefix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list keys from etcd")
		return nil, fmt.Errorf("failed to list %s from etcd: %w", prefix, err)
	}
	span.SetAttributes(attribute.Int("etcd.kv_count", len(resp.Kvs)))

	kvs := resp.Kvs
	sort.Slice(kvs, func(i, j int) bool { return bytes.Compare(kvs[i].Key, kvs[j].Key) < 0 })

	values := make([][]byte, 0, len(kvs))
	for _, kv := range kvs {
		values = append(values, kv.Value)
	}
	return values, nil
}

// Close is a no-op; the client is owned by the caller.
func (s *etcdKVStore) Close() error { return nil }
