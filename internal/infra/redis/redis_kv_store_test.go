package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"job-board/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers the string commands the store issues from a map. SCAN
// returns matches in map order within a single page.
type fakeRedis struct {
	redis.Cmdable

	mu      sync.Mutex
	data    map[string]string
	failGet error
	// dropOnMGet removes a key just before MGET, as a concurrent DEL would.
	dropOnMGet string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return redis.NewStatusResult("", errors.New("unsupported value type"))
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeRedis) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dropOnMGet != "" {
		delete(f.data, f.dropOnMGet)
	}
	vals := make([]interface{}, len(keys))
	for i, k := range keys {
		if v, ok := f.data[k]; ok {
			vals[i] = v
		}
	}
	return redis.NewSliceResult(vals, nil)
}

func TestRedisKVStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	store := NewRedisKVStore(rdb)

	require.NoError(t, store.Set(ctx, "sessions/a/preferences", []byte(`{"page":2}`)))
	assert.Contains(t, rdb.data, keyPrefix+"sessions/a/preferences")

	got, err := store.Get(ctx, "sessions/a/preferences")
	require.NoError(t, err)
	assert.Equal(t, `{"page":2}`, string(got))

	require.NoError(t, store.Delete(ctx, "sessions/a/preferences"))
	_, err = store.Get(ctx, "sessions/a/preferences")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	assert.NoError(t, store.Delete(ctx, "sessions/a/preferences"))
}

func TestRedisKVStore_ListSortsByKey(t *testing.T) {
	ctx := context.Background()
	store := NewRedisKVStore(newFakeRedis())

	for _, k := range []string{"applications/c", "applications/a", "applications/e", "applications/b", "applications/d"} {
		require.NoError(t, store.Set(ctx, k, []byte(strings.TrimPrefix(k, "applications/"))))
	}
	require.NoError(t, store.Set(ctx, "sessions/a", []byte("other")))

	values, err := store.List(ctx, "applications/")
	require.NoError(t, err)

	got := make([]string, 0, len(values))
	for _, v := range values {
		got = append(got, string(v))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestRedisKVStore_ListSkipsKeysDeletedMidway(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	store := NewRedisKVStore(rdb)

	require.NoError(t, store.Set(ctx, "applications/a", []byte("a")))
	require.NoError(t, store.Set(ctx, "applications/b", []byte("b")))
	rdb.dropOnMGet = keyPrefix + "applications/a"

	values, err := store.List(ctx, "applications/")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "b", string(values[0]))
}

func TestRedisKVStore_ListEmpty(t *testing.T) {
	values, err := NewRedisKVStore(newFakeRedis()).List(context.Background(), "applications/")
	require.NoError(t, err)
	assert.NotNil(t, values)
	assert.Empty(t, values)
}

func TestRedisKVStore_WrapsClientErrors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failGet = errors.New("connection refused")

	_, err := NewRedisKVStore(rdb).Get(context.Background(), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, rdb.failGet)
	assert.NotErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.ParseURL")
}
