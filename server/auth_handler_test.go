package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"CrayonFM/core/token"
	"CrayonFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTokenStore struct {
	mu       sync.Mutex
	sessions map[string]*model.SessionToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{sessions: make(map[string]*model.SessionToken)}
}

func (m *memoryTokenStore) Insert(_ context.Context, st *model.SessionToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *st
	m.sessions[st.Token] = &cp
	return nil
}

func (m *memoryTokenStore) DeleteByUser(_ context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for tok, st := range m.sessions {
		if st.UserID == userID {
			removed = append(removed, tok)
			delete(m.sessions, tok)
		}
	}
	return removed, nil
}

func (m *memoryTokenStore) Find(_ context.Context, tok string, now time.Time) (*model.SessionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[tok]
	if !ok || !st.ExpiresAt.After(now) {
		return nil, token.ErrTokenNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *memoryTokenStore) Touch(_ context.Context, tok string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.sessions[tok]; ok {
		st.ExpiresAt = expiresAt
	}
	return nil
}

func (m *memoryTokenStore) Delete(_ context.Context, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tok)
	return nil
}

func (m *memoryTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for tok, st := range m.sessions {
		if !st.ExpiresAt.After(now) {
			delete(m.sessions, tok)
			n++
		}
	}
	return n, nil
}

func newAuthFixture(t *testing.T) (*APIHandler, *token.Service) {
	t.Helper()
	tokens := token.NewService(nil, newMemoryTokenStore(), token.DefaultTTL)
	h := NewAPIHandler(nil, nil, nil, nil, nil, tokens, nil, nil)
	return h, tokens
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthMiddlewarePassesUserID(t *testing.T) {
	h, tokens := newAuthFixture(t)

	tok, err := tokens.Create(context.Background(), 42, nil)
	require.NoError(t, err)

	var gotUserID int64
	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		respondOK(w, "success", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	h, _ := newAuthFixture(t)

	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "请先登录", resp.Msg)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	h, _ := newAuthFixture(t)

	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
	req.Header.Set("Authorization", "Bearer deadbeef")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	// 无效token的提示和未登录要区分开
	assert.Equal(t, "登录已过期，请重新登录", resp.Msg)
}

func TestAuthMiddlewareRevokedToken(t *testing.T) {
	h, tokens := newAuthFixture(t)
	ctx := context.Background()

	tok, err := tokens.Create(ctx, 7, nil)
	require.NoError(t, err)
	require.NoError(t, tokens.Delete(ctx, tok))

	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a revoked token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithoutToken(t *testing.T) {
	h, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	rec := httptest.NewRecorder()
	h.LogoutHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, 1, resp.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	h, tokens := newAuthFixture(t)
	ctx := context.Background()

	old, err := tokens.Create(ctx, 5, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+old)
	rec := httptest.NewRecorder()
	h.RefreshTokenHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	fresh, _ := data["token"].(string)
	require.NotEmpty(t, fresh)
	require.NotEqual(t, old, fresh)

	// 旧token立即失效
	_, err = tokens.Resolve(ctx, old)
	assert.ErrorIs(t, err, token.ErrTokenNotFound)
}
