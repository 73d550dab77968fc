package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 播放队列在Redis中保存30天，每次写入刷新
const queueTTL = 30 * 24 * time.Hour

// QueueCache 保存每个用户当前的播放队列（音乐ID列表）
type QueueCache struct {
	client *redis.Client
}

// NewQueueCache creates a QueueCache over an existing Redis client.
func NewQueueCache(client *redis.Client) *QueueCache {
	return &QueueCache{client: client}
}

// queueKey 根据用户ID生成播放队列的Redis键
func queueKey(userID int64) string {
	return fmt.Sprintf("play_queue:%d", userID)
}

// Get 获取用户的播放队列，空队列返回空切片
func (c *QueueCache) Get(ctx context.Context, userID int64) ([]int64, error) {
	data, err := c.client.Get(ctx, queueKey(userID)).Result()
	if err == redis.Nil {
		return []int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get play queue: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal play queue: %w", err)
	}
	return ids, nil
}

// Save 覆盖保存用户的播放队列
func (c *QueueCache) Save(ctx context.Context, userID int64, musicIDs []int64) error {
	data, err := json.Marshal(musicIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal play queue: %w", err)
	}
	if err := c.client.Set(ctx, queueKey(userID), data, queueTTL).Err(); err != nil {
		return fmt.Errorf("failed to save play queue: %w", err)
	}
	return nil
}

// Len 返回队列长度
func (c *QueueCache) Len(ctx context.Context, userID int64) (int, error) {
	ids, err := c.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Clear 清空用户的播放队列
func (c *QueueCache) Clear(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, queueKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear play queue: %w", err)
	}
	return nil
}
