package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-forge/internal/logging"
)

// memoryJar はテスト用の CookieJar です。
type memoryJar struct {
	id      string
	bound   int
	cleared int
	bindErr error
}

func (j *memoryJar) SessionID() (string, bool) { return j.id, j.id != "" }

func (j *memoryJar) Bind(id string) error {
	if j.bindErr != nil {
		return j.bindErr
	}
	j.id = id
	j.bound++
	return nil
}

func (j *memoryJar) Clear() error {
	j.id = ""
	j.cleared++
	return nil
}

// takenCache は常に「キーが既に存在する」と答えるキャッシュです。
type takenCache struct {
	mu       sync.Mutex
	attempts int
}

func (c *takenCache) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	return false, nil
}

func (c *takenCache) Get(context.Context, string) (string, error) { return "", ErrCacheMiss }

func (c *takenCache) Delete(context.Context, string) (int64, error) { return 0, nil }

// brokenCache は常に通信エラーを返すキャッシュです。
type brokenCache struct{}

var errConnRefused = errors.New("dial tcp: connection refused")

func (brokenCache) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, errConnRefused
}

func (brokenCache) Get(context.Context, string) (string, error) { return "", errConnRefused }

func (brokenCache) Delete(context.Context, string) (int64, error) { return 0, errConnRefused }

func newRedisStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(NewRedisCache(rdb), logging.Discard()), mr
}

func TestIssueThenResolve(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	jar := &memoryJar{}

	id, err := store.Issue(ctx, "A1", jar)
	require.NoError(t, err)
	assert.True(t, IsValidID(id), "unexpected id %q", id)
	assert.Equal(t, id, jar.id)

	value, err := mr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "A1", value)
	assert.Equal(t, DefaultTTL, mr.TTL(id))
	assert.Equal(t, 1296000, TTLSeconds())

	accountID, ok, err := store.Resolve(ctx, jar)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A1", accountID)
}

func TestResolveWithoutCookie(t *testing.T) {
	store, _ := newRedisStore(t)

	accountID, ok, err := store.Resolve(context.Background(), &memoryJar{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, accountID)
}

func TestResolveAfterExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	jar := &memoryJar{}

	id, err := store.Issue(ctx, "A1", jar)
	require.NoError(t, err)

	mr.Del(id)

	_, ok, err := store.Resolve(ctx, jar)
	require.NoError(t, err)
	assert.False(t, ok)

	other := &memoryJar{}
	_, err = store.Issue(ctx, "A2", other)
	require.NoError(t, err)
	mr.FastForward(DefaultTTL + time.Second)

	_, ok, err = store.Resolve(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReissueReplacesCookie(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	jar := &memoryJar{}

	first, err := store.Issue(ctx, "A1", jar)
	require.NoError(t, err)
	second, err := store.Issue(ctx, "A1", jar)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, jar.id)
	assert.Equal(t, 2, jar.bound)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	t.Run("no prior session", func(t *testing.T) {
		n, err := store.Revoke(ctx, &memoryJar{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("after issue", func(t *testing.T) {
		jar := &memoryJar{}
		id, err := store.Issue(ctx, "A1", jar)
		require.NoError(t, err)

		n, err := store.Revoke(ctx, jar)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, 1, jar.cleared)
		assert.False(t, mr.Exists(id))

		_, ok, err := store.Resolve(ctx, jar)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cookie outlived cache entry", func(t *testing.T) {
		jar := &memoryJar{id: "session:zzzzzzzz"}
		n, err := store.Revoke(ctx, jar)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		assert.Equal(t, 1, jar.cleared)
	})
}

func TestIssuedIDsAreDistinct(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		id, err := store.Issue(ctx, "A1", &memoryJar{})
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}

func TestIssueExhaustsRetryBudget(t *testing.T) {
	cache := &takenCache{}
	store := NewStore(cache, logging.Discard())
	jar := &memoryJar{}
	before := testutil.ToFloat64(idCollisions)

	_, err := store.Issue(context.Background(), "A1", jar)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionBuild)
	assert.Equal(t, DefaultMaxAttempts, cache.attempts)
	assert.Equal(t, 0, jar.bound)
	assert.Equal(t, float64(DefaultMaxAttempts), testutil.ToFloat64(idCollisions)-before)
}

func TestIssueRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	// 同じシードの生成器なので最初の候補は collision と一致する
	var seed [32]byte
	store.newRand = func() (*rand.Rand, error) { return rand.New(rand.NewChaCha8(seed)), nil }
	collision := generateID(rand.New(rand.NewChaCha8(seed)))
	require.NoError(t, mr.Set(collision, "someone-else"))

	jar := &memoryJar{}
	id, err := store.Issue(ctx, "A1", jar)
	require.NoError(t, err)
	assert.NotEqual(t, collision, id)

	value, err := mr.Get(collision)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", value)
}

func TestCacheFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(brokenCache{}, logging.Discard())

	_, err := store.Issue(ctx, "A1", &memoryJar{})
	assert.ErrorIs(t, err, ErrCache)
	assert.ErrorIs(t, err, errConnRefused)

	_, _, err = store.Resolve(ctx, &memoryJar{id: "session:abcdefgh"})
	assert.ErrorIs(t, err, ErrCache)

	_, err = store.Revoke(ctx, &memoryJar{id: "session:abcdefgh"})
	assert.ErrorIs(t, err, ErrCache)
}

func TestIssueDeletesEntryWhenCookieFails(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, err := store.Issue(ctx, "A1", &memoryJar{bindErr: errors.New("securecookie: the value is too long")})
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestIssueRejectsEmptyAccount(t *testing.T) {
	store, _ := newRedisStore(t)
	_, err := store.Issue(context.Background(), "", &memoryJar{})
	assert.Error(t, err)
}
