package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"CrayonFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore 是SessionStore的内存实现
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*model.SessionToken
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*model.SessionToken)}
}

func (f *fakeStore) Insert(_ context.Context, st *model.SessionToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *st
	f.sessions[st.Token] = &cp
	return nil
}

func (f *fakeStore) DeleteByUser(_ context.Context, userID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed []string
	for tok, st := range f.sessions {
		if st.UserID == userID {
			removed = append(removed, tok)
			delete(f.sessions, tok)
		}
	}
	return removed, nil
}

func (f *fakeStore) Find(_ context.Context, token string, now time.Time) (*model.SessionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.sessions[token]
	if !ok || !st.ExpiresAt.After(now) {
		return nil, ErrTokenNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStore) Touch(_ context.Context, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.sessions[token]; ok {
		st.ExpiresAt = expiresAt
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for tok, st := range f.sessions {
		if !st.ExpiresAt.After(now) {
			delete(f.sessions, tok)
			n++
		}
	}
	return n, nil
}

// fakeCache 是SessionCache的内存实现
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*model.SessionToken
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*model.SessionToken)}
}

func (f *fakeCache) Get(_ context.Context, token string) (*model.SessionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.entries[token]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f *fakeCache) Set(_ context.Context, st *model.SessionToken, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *st
	f.entries[st.Token] = &cp
	return nil
}

func (f *fakeCache) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, token)
	return nil
}

func newTestService(cache SessionCache, store SessionStore, now time.Time) *Service {
	svc := NewService(cache, store, DefaultTTL)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateAndResolve(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := newFakeCache()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(cache, store, now)

	tok, err := svc.Create(ctx, 42, map[string]interface{}{"username": "admin"})
	require.NoError(t, err)
	require.Len(t, tok, 64)

	userID, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	// Bearer前缀也要能解析
	userID, err = svc.Resolve(ctx, "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestResolveUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeCache(), newFakeStore(), time.Now())

	_, err := svc.Resolve(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(nil, store, time.Now())

	seen := make(map[string]bool)
	for i := int64(1); i <= 50; i++ {
		tok, err := svc.Create(ctx, i, nil)
		require.NoError(t, err)
		require.False(t, seen[tok], "duplicate token issued")
		seen[tok] = true
	}
}

func TestSingleActiveSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := newFakeCache()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(cache, store, now)

	first, err := svc.Create(ctx, 7, nil)
	require.NoError(t, err)

	second, err := svc.Create(ctx, 7, nil)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// 重新登录后旧token必须失效，包括缓存里的副本
	_, err = svc.Resolve(ctx, first)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	userID, err := svc.Resolve(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestSlidingExpiry(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(nil, store, now)

	tok, err := svc.Create(ctx, 1, nil)
	require.NoError(t, err)

	// 第6天访问一次，过期时间顺延
	svc.now = func() time.Time { return now.Add(6 * 24 * time.Hour) }
	_, err = svc.Resolve(ctx, tok)
	require.NoError(t, err)

	// 第12天仍然有效（第6天的访问把过期推到了第13天）
	svc.now = func() time.Time { return now.Add(12 * 24 * time.Hour) }
	_, err = svc.Resolve(ctx, tok)
	require.NoError(t, err)

	// 此后不再访问，第20天过期
	svc.now = func() time.Time { return now.Add(20 * 24 * time.Hour) }
	_, err = svc.Resolve(ctx, tok)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestResolveFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := newFakeCache()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(cache, store, now)

	tok, err := svc.Create(ctx, 9, nil)
	require.NoError(t, err)

	// 模拟缓存失效（例如Redis重启），持久层仍是事实来源
	require.NoError(t, cache.Delete(ctx, tok))

	userID, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), userID)
}

func TestNilCacheDegradation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(nil, store, time.Now())

	tok, err := svc.Create(ctx, 3, nil)
	require.NoError(t, err)

	userID, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(3), userID)

	require.NoError(t, svc.Delete(ctx, tok))
	_, err = svc.Resolve(ctx, tok)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeCache(), newFakeStore(), time.Now())

	require.NoError(t, svc.Delete(ctx, "nonexistent"))
	require.NoError(t, svc.Delete(ctx, ""))
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := newFakeCache()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(cache, store, now)

	old, err := svc.Create(ctx, 5, nil)
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, old)
	require.NoError(t, err)
	require.NotEqual(t, old, fresh)

	_, err = svc.Resolve(ctx, old)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	userID, err := svc.Resolve(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, int64(5), userID)
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(nil, store, now)

	_, err := svc.Create(ctx, 1, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, nil)
	require.NoError(t, err)

	// 8天后两条都过期
	svc.now = func() time.Time { return now.Add(8 * 24 * time.Hour) }
	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 再清一次应该没有可删的了
	n, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", StripBearer("Bearer abc"))
	assert.Equal(t, "abc", StripBearer("abc"))
	assert.Equal(t, "abc", StripBearer("  Bearer abc  "))
	assert.Equal(t, "", StripBearer(""))
}
