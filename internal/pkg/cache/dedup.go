package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"matterlab/internal/pkg/config"
)

const dedupKeyPrefix = "matterlab:webhook:"

// Deduplicator 判断事件是否首次出现
type Deduplicator interface {
	// FirstSeen 首次出现返回 true；出错时返回 true 和错误，调用方应继续处理
	FirstSeen(ctx context.Context, key string) (bool, error)
	// Forget 删除记录，处理失败后允许重新投递
	Forget(ctx context.Context, key string) error
}

// RedisDeduplicator 基于 SETNX 的去重
type RedisDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduplicator 创建 Redis 去重器
func NewRedisDeduplicator(client *redis.Client, ttl time.Duration) *RedisDeduplicator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduplicator{client: client, ttl: ttl}
}

func (d *RedisDeduplicator) FirstSeen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	ok, err := d.client.SetNX(ctx, dedupKeyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		return true, fmt.Errorf("redis setnx 失败: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduplicator) Forget(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := d.client.Del(ctx, dedupKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del 失败: %w", err)
	}
	return nil
}

// NoopDeduplicator 未启用 Redis 时使用
type NoopDeduplicator struct{}

func (NoopDeduplicator) FirstSeen(context.Context, string) (bool, error) {
	return true, nil
}

func (NoopDeduplicator) Forget(context.Context, string) error {
	return nil
}

// NewDeduplicator 按配置创建去重器，返回的 close 函数用于释放连接
func NewDeduplicator(ctx context.Context, cfg *config.RedisConfig) (Deduplicator, func() error, error) {
	if !cfg.Enabled {
		return NoopDeduplicator{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("连接 redis 失败: %w", err)
	}

	return NewRedisDeduplicator(client, cfg.DedupTTL), client.Close, nil
}
