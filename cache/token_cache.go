package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CrayonFM/model"

	"github.com/go-redis/redis/v8"
)

// tokenKeyPrefix 与原有键空间保持一致
const tokenKeyPrefix = "user_token:"

// TokenCache is the Redis-backed volatile tier of the session layer.
// Entries carry the full session record as JSON with a TTL matching the
// session lifetime; the durable store stays authoritative.
type TokenCache struct {
	client *redis.Client
}

// NewTokenCache creates a TokenCache over an existing Redis client.
func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

// Get returns the cached session, or (nil, nil) on a clean miss.
func (c *TokenCache) Get(ctx context.Context, token string) (*model.SessionToken, error) {
	data, err := c.client.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token from cache: %w", err)
	}

	var st model.SessionToken
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached token: %w", err)
	}
	return &st, nil
}

// Set writes the session record with the given TTL.
func (c *TokenCache) Set(ctx context.Context, st *model.SessionToken, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := c.client.Set(ctx, tokenKey(st.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token in cache: %w", err)
	}
	return nil
}

// Delete removes the cached session. Missing keys are not an error.
func (c *TokenCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete token from cache: %w", err)
	}
	return nil
}
