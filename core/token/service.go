package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"CrayonFM/logger"
	"CrayonFM/model"

	"github.com/google/uuid"
)

// DefaultTTL is the session lifetime. Sliding: every validated access
// pushes the expiry forward by the full TTL.
const DefaultTTL = 7 * 24 * time.Hour

// ErrTokenNotFound means the token does not resolve to a live session:
// it was never issued, was revoked, or has expired.
var ErrTokenNotFound = errors.New("token not found or expired")

// SessionCache is the volatile tier (Redis). Any failure here degrades
// to store-only operation; callers never surface cache errors.
type SessionCache interface {
	Get(ctx context.Context, token string) (*model.SessionToken, error)
	Set(ctx context.Context, st *model.SessionToken, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// SessionStore is the durable tier (MySQL) and the source of truth.
type SessionStore interface {
	Insert(ctx context.Context, st *model.SessionToken) error
	// DeleteByUser removes every token owned by the user and returns the
	// removed token strings so the cache entries can be dropped too.
	DeleteByUser(ctx context.Context, userID int64) ([]string, error)
	// Find returns the session only if expires_at > now.
	Find(ctx context.Context, token string, now time.Time) (*model.SessionToken, error)
	Touch(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service 管理会话 token：签发、校验（滑动过期）、注销、过期清理。
// 双层存储：Redis 快速层 + MySQL 持久层，Redis 不可用时自动降级。
type Service struct {
	cache SessionCache
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a token service. cache may be nil, in which case
// every lookup goes straight to the durable store.
func NewService(cache SessionCache, store SessionStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		cache: cache,
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// generateToken returns an unguessable 64-char hex token. Entropy comes
// from crypto/rand; the uuid and timestamp only salt the digest.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	h := sha256.New()
	h.Write(buf)
	h.Write([]byte(uuid.NewString()))
	h.Write([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Create issues a new token for the user and revokes any prior session
// (single active session per user). extra is attached verbatim to the
// session record and never interpreted.
func (s *Service) Create(ctx context.Context, userID int64, extra map[string]interface{}) (string, error) {
	tok, err := generateToken()
	if err != nil {
		return "", err
	}

	var extraJSON string
	if len(extra) > 0 {
		b, err := json.Marshal(extra)
		if err != nil {
			return "", fmt.Errorf("failed to marshal token extra: %w", err)
		}
		extraJSON = string(b)
	}

	now := s.now()
	st := &model.SessionToken{
		Token:     tok,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Extra:     extraJSON,
	}

	// 先作废该用户的旧 token（重新登录会踢掉其他端的会话）
	old, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to revoke previous tokens: %w", err)
	}
	for _, t := range old {
		s.cacheDelete(ctx, t)
	}

	// 持久层是事实来源，写失败直接报错
	if err := s.store.Insert(ctx, st); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}

	// 缓存写失败不影响主流程
	s.cacheSet(ctx, st)

	return tok, nil
}

// Resolve maps a raw Authorization header value to the owning user id,
// refreshing the sliding expiry in both tiers. Returns ErrTokenNotFound
// for anything that does not resolve to a live session.
func (s *Service) Resolve(ctx context.Context, raw string) (int64, error) {
	tok := StripBearer(raw)
	if tok == "" {
		return 0, ErrTokenNotFound
	}

	now := s.now()

	// 优先从缓存获取（快速路径）
	if s.cache != nil {
		st, err := s.cache.Get(ctx, tok)
		if err != nil {
			logger.Debug("token cache read failed, falling back to store",
				logger.ErrorField(err))
		} else if st != nil && st.ExpiresAt.After(now) {
			// 刷新过期时间（缓存和数据库都刷新）
			st.ExpiresAt = now.Add(s.ttl)
			s.cacheSet(ctx, st)
			if err := s.store.Touch(ctx, tok, st.ExpiresAt); err != nil {
				logger.Warn("failed to refresh token expiry in store",
					logger.ErrorField(err))
			}
			return st.UserID, nil
		}
		// 缓存未命中或缓存里的记录已过期：以持久层为准
	}

	st, err := s.store.Find(ctx, tok, now)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return 0, ErrTokenNotFound
		}
		return 0, fmt.Errorf("failed to look up token: %w", err)
	}

	st.ExpiresAt = now.Add(s.ttl)
	if err := s.store.Touch(ctx, tok, st.ExpiresAt); err != nil {
		return 0, fmt.Errorf("failed to refresh token expiry: %w", err)
	}
	return st.UserID, nil
}

// Delete revokes a token in both tiers. Idempotent: deleting an absent
// token is not an error.
func (s *Service) Delete(ctx context.Context, raw string) error {
	tok := StripBearer(raw)
	if tok == "" {
		return nil
	}
	s.cacheDelete(ctx, tok)
	if err := s.store.Delete(ctx, tok); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Refresh exchanges a live token for a brand-new one owned by the same
// user. The old token stops resolving immediately.
func (s *Service) Refresh(ctx context.Context, raw string) (string, error) {
	userID, err := s.Resolve(ctx, raw)
	if err != nil {
		return "", err
	}
	if err := s.Delete(ctx, raw); err != nil {
		return "", err
	}
	return s.Create(ctx, userID, nil)
}

// SweepExpired removes every expired row from the durable store and
// returns the number of deleted sessions. Intended for periodic runs.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired tokens: %w", err)
	}
	if n > 0 {
		logger.Info("清理过期token完成", logger.Int64("count", n))
	}
	return n, nil
}

// StripBearer removes an optional "Bearer " prefix from a raw
// Authorization header value.
func StripBearer(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
}

func (s *Service) cacheSet(ctx context.Context, st *model.SessionToken) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, st, s.ttl); err != nil {
		logger.Warn("token cache write failed", logger.ErrorField(err))
	}
}

func (s *Service) cacheDelete(ctx context.Context, tok string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, tok); err != nil {
		logger.Warn("token cache delete failed", logger.ErrorField(err))
	}
}
