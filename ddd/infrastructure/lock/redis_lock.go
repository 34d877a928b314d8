package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"transcription-service/ddd/domain/gateway"
	"transcription-service/pkg/logger"
)

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock 基于 SET NX PX 的转写租约锁
type RedisLock struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLock 创建 Redis 租约锁
func NewRedisLock(client redis.UniversalClient) gateway.ProcessingLock {
	return &RedisLock{client: client, prefix: "transcription:lock:"}
}

// Key 视频对应的锁键
func (l *RedisLock) Key(videoID int64) string {
	return fmt.Sprintf("%s%d", l.prefix, videoID)
}

func (l *RedisLock) Acquire(ctx context.Context, videoID int64, ttl time.Duration) (func(), bool, error) {
	key := l.Key(videoID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// 释放不跟随请求取消
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
			logger.Warn("释放转写锁失败", map[string]interface{}{"video_id": videoID, "error": err.Error()})
		}
	}
	return release, true, nil
}

func (l *RedisLock) IsHeld(ctx context.Context, videoID int64) (bool, error) {
	n, err := l.client.Exists(ctx, l.Key(videoID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NopLock 未启用 Redis 时使用，总是获取成功
type NopLock struct{}

func (NopLock) Acquire(context.Context, int64, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

func (NopLock) IsHeld(context.Context, int64) (bool, error) { return false, nil }
