package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matterlab/internal/pkg/config"
)

func TestNoopDeduplicator(t *testing.T) {
	d, closeFn, err := NewDeduplicator(context.Background(), &config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	defer closeFn()

	first, err := d.FirstSeen(context.Background(), "uuid-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(context.Background(), "uuid-1")
	require.NoError(t, err)
	assert.True(t, again)
	assert.NoError(t, d.Forget(context.Background(), "uuid-1"))
}

func TestRedisDeduplicatorFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	d := NewRedisDeduplicator(client, time.Minute)
	first, err := d.FirstSeen(context.Background(), "uuid-1")
	assert.Error(t, err)
	assert.True(t, first)

	first, err = d.FirstSeen(context.Background(), "")
	assert.NoError(t, err)
	assert.True(t, first)

	assert.Error(t, d.Forget(context.Background(), "uuid-1"))
	assert.NoError(t, d.Forget(context.Background(), ""))
}

func TestNewDeduplicatorUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, _, err := NewDeduplicator(ctx, &config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
