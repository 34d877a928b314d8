package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisLockKey(t *testing.T) {
	l := &RedisLock{prefix: "transcription:lock:"}
	assert.Equal(t, "transcription:lock:42", l.Key(42))
}

func TestRedisLockSurfacesConnectionErrors(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	l := NewRedisLock(client)

	release, acquired, err := l.Acquire(context.Background(), 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, acquired)
	assert.Nil(t, release)

	_, err = l.IsHeld(context.Background(), 1)
	assert.Error(t, err)
}

func TestNopLock(t *testing.T) {
	release, acquired, err := NopLock{}.Acquire(context.Background(), 1, time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)
	release()

	held, err := NopLock{}.IsHeld(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, held)
}
