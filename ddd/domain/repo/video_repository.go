package repo

import (
	"context"
	"time"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/query"
)

// VideoMutation 在行锁内对实体做修改，返回错误时放弃写入
type VideoMutation func(v *entity.Video) error

// VideoRepository 视频仓储接口
type VideoRepository interface {
	// Create 保存新视频并回填 id
	Create(ctx context.Context, video *entity.Video) (*entity.Video, error)

	// GetByID 根据ID获取视频，不存在返回 errno.ErrVideoNotFound
	GetByID(ctx context.Context, id int64) (*entity.Video, error)

	// Update 加锁读取、修改并保存，始终刷新最后修改时间
	Update(ctx context.Context, id int64, mutate VideoMutation) (*entity.Video, error)

	// Query 过滤、计数、排序并分页
	Query(ctx context.Context, q query.VideoQuery) (query.Result, error)

	// ListStaleProcessing 获取开始转写早于 startedBefore 仍未结束的视频
	ListStaleProcessing(ctx context.Context, startedBefore time.Time, limit int) ([]*entity.Video, error)
}
