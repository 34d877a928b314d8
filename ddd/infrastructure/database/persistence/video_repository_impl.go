package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/query"
	"transcription-service/ddd/domain/repo"
	"transcription-service/ddd/infrastructure/database/convertor"
	"transcription-service/ddd/infrastructure/database/dao"
	"transcription-service/ddd/infrastructure/database/po"
	"transcription-service/pkg/errno"
)

type videoRepositoryImpl struct {
	videoDao  *dao.VideoDAO
	convertor *convertor.VideoConvertor
	now       func() time.Time
}

// NewVideoRepository 基于 gorm 的视频仓储
func NewVideoRepository(db *gorm.DB) repo.VideoRepository {
	return &videoRepositoryImpl{
		videoDao:  dao.NewVideoDAO(db),
		convertor: convertor.NewVideoConvertor(),
		now:       time.Now,
	}
}

func (r *videoRepositoryImpl) Create(ctx context.Context, video *entity.Video) (*entity.Video, error) {
	row := r.convertor.ToPO(video)
	row.ID = 0
	if err := r.videoDao.Create(ctx, row); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	created := video.Clone()
	created.SetID(row.ID)
	return created, nil
}

func (r *videoRepositoryImpl) GetByID(ctx context.Context, id int64) (*entity.Video, error) {
	row, err := r.videoDao.FindByID(ctx, id)
	if err != nil {
		return nil, translate(id, err)
	}
	return r.convertor.ToEntity(row)
}

func (r *videoRepositoryImpl) Update(ctx context.Context, id int64, mutate repo.VideoMutation) (*entity.Video, error) {
	var updated *entity.Video
	_, err := r.videoDao.UpdateLocked(ctx, id, func(row *po.VideoPO) (*po.VideoPO, error) {
		video, err := r.convertor.ToEntity(row)
		if err != nil {
			return nil, err
		}
		if err := mutate(video); err != nil {
			return nil, err
		}
		video.Touch(r.now())
		updated = video
		return r.convertor.ToPO(video), nil
	})
	if err != nil {
		return nil, translate(id, err)
	}
	return updated, nil
}

func (r *videoRepositoryImpl) Query(ctx context.Context, q query.VideoQuery) (query.Result, error) {
	rows, total, err := r.videoDao.Query(ctx, q)
	if err != nil {
		return query.Result{}, errno.NewBizError(errno.ErrDatabase, err)
	}
	items := make([]*entity.Video, 0, len(rows))
	for _, row := range rows {
		v, err := r.convertor.ToEntity(row)
		if err != nil {
			return query.Result{}, err
		}
		items = append(items, v)
	}
	return query.Result{Items: items, Total: total}, nil
}

func (r *videoRepositoryImpl) ListStaleProcessing(ctx context.Context, startedBefore time.Time, limit int) ([]*entity.Video, error) {
	rows, err := r.videoDao.FindStaleProcessing(ctx, startedBefore, limit)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	items := make([]*entity.Video, 0, len(rows))
	for _, row := range rows {
		v, err := r.convertor.ToEntity(row)
		if err != nil {
			continue
		}
		items = append(items, v)
	}
	return items, nil
}

// translate 将 gorm 错误转换为业务错误，已是业务错误的原样返回
func translate(id int64, err error) error {
	var biz *errno.BizError
	switch {
	case errors.As(err, &biz):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errno.NewBizError(errno.ErrVideoNotFound, fmt.Errorf("video %d not found", id))
	default:
		return errno.NewBizError(errno.ErrDatabase, err)
	}
}
