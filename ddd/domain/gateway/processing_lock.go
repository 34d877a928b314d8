package gateway

import (
	"context"
	"time"
)

// ProcessingLock 转写期间持有的租约锁
type ProcessingLock interface {
	// Acquire 尝试获取锁，acquired 为 false 表示已被他人持有
	Acquire(ctx context.Context, videoID int64, ttl time.Duration) (release func(), acquired bool, err error)

	// IsHeld 查询锁是否仍被持有
	IsHeld(ctx context.Context, videoID int64) (bool, error)
}
