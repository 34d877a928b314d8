package persistence

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/query"
	"transcription-service/ddd/domain/repo"
	"transcription-service/ddd/domain/vo"
	"transcription-service/pkg/errno"
)

// MemoryVideoRepository 进程内视频仓储，执行与 SQL 实现相同的查询语义
type MemoryVideoRepository struct {
	mu     sync.Mutex
	videos map[int64]*entity.Video
	nextID int64
	now    func() time.Time
}

var _ repo.VideoRepository = (*MemoryVideoRepository)(nil)

// NewMemoryVideoRepository 创建内存仓储，now 为 nil 时使用 time.Now
func NewMemoryVideoRepository(now func() time.Time) *MemoryVideoRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryVideoRepository{videos: make(map[int64]*entity.Video), now: now}
}

func (r *MemoryVideoRepository) Create(_ context.Context, video *entity.Video) (*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := video.Clone()
	stored.SetID(r.nextID)
	r.videos[stored.ID()] = stored
	return stored.Clone(), nil
}

func (r *MemoryVideoRepository) GetByID(_ context.Context, id int64) (*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.videos[id]
	if !ok {
		return nil, notFound(id)
	}
	return v.Clone(), nil
}

// Update 整个仓储一把锁，同一 id 的修改天然串行
func (r *MemoryVideoRepository) Update(_ context.Context, id int64, mutate repo.VideoMutation) (*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.videos[id]
	if !ok {
		return nil, notFound(id)
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.Touch(r.now())
	r.videos[id] = working
	return working.Clone(), nil
}

func (r *MemoryVideoRepository) Query(_ context.Context, q query.VideoQuery) (query.Result, error) {
	r.mu.Lock()
	all := make([]*entity.Video, 0, len(r.videos))
	for _, v := range r.videos {
		all = append(all, v.Clone())
	}
	r.mu.Unlock()

	return q.Apply(all), nil
}

func (r *MemoryVideoRepository) ListStaleProcessing(_ context.Context, startedBefore time.Time, limit int) ([]*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.Video, 0)
	for _, v := range r.videos {
		started := v.ProcessingStartedAt()
		if v.Status() == vo.VideoStatusProcessing && started != nil && started.Before(startedBefore) {
			out = append(out, v.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *entity.Video) int {
		return a.ProcessingStartedAt().Compare(*b.ProcessingStartedAt())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func notFound(id int64) error {
	return errno.NewBizError(errno.ErrVideoNotFound, fmt.Errorf("video %d not found", id))
}
