package etcd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"job-board/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// fakeKV keeps keys in a map and answers prefix reads in map order, so
// nothing about the returned order can be relied on.
type fakeKV struct {
	clientv3.KV

	mu      sync.Mutex
	data    map[string]string
	failGet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func (f *fakeKV) Get(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := clientv3.OpGet(key, opts...).IsOptsWithPrefix()
	resp := &clientv3.GetResponse{}
	for k, v := range f.data {
		if k == key || (prefix && strings.HasPrefix(k, key)) {
			resp.Kvs = append(resp.Kvs, &mvccpb.KeyValue{Key: []byte(k), Value: []byte(v)})
		}
	}
	resp.Count = int64(len(resp.Kvs))
	return resp, nil
}

func (f *fakeKV) Delete(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return &clientv3.DeleteResponse{}, nil
}

func newTestStore(kv clientv3.KV) domain.KeyValueStore {
	return NewEtcdKVStore(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEtcdKVStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := newTestStore(kv)

	require.NoError(t, store.Set(ctx, "sessions/a/preferences", []byte(`{"page":2}`)))
	assert.Contains(t, kv.data, KeyPrefix+"sessions/a/preferences")

	got, err := store.Get(ctx, "sessions/a/preferences")
	require.NoError(t, err)
	assert.Equal(t, `{"page":2}`, string(got))

	require.NoError(t, store.Delete(ctx, "sessions/a/preferences"))
	_, err = store.Get(ctx, "sessions/a/preferences")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, "sessions/a/preferences"))
}

func TestEtcdKVStore_ListSortsByKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newFakeKV())

	for _, k := range []string{"applications/c", "applications/a", "applications/e", "applications/b", "applications/d"} {
		require.NoError(t, store.Set(ctx, k, []byte(strings.TrimPrefix(k, "applications/"))))
	}
	require.NoError(t, store.Set(ctx, "applicationsx", []byte("outside")))
	require.NoError(t, store.Set(ctx, "sessions/a", []byte("other")))

	values, err := store.List(ctx, "applications/")
	require.NoError(t, err)

	got := make([]string, 0, len(values))
	for _, v := range values {
		got = append(got, string(v))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestEtcdKVStore_ListEmpty(t *testing.T) {
	values, err := newTestStore(newFakeKV()).List(context.Background(), "applications/")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestEtcdKVStore_WrapsClientErrors(t *testing.T) {
	kv := newFakeKV()
	kv.failGet = errors.New("etcdserver: request timed out")
	store := newTestStore(kv)

	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.failGet)
	assert.NotErrorIs(t, err, domain.ErrKeyNotFound)

	_, err = store.List(context.Background(), "k")
	assert.ErrorIs(t, err, kv.failGet)
}
