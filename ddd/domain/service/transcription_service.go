package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/gateway"
	"transcription-service/ddd/domain/repo"
	"transcription-service/ddd/domain/vo"
	"transcription-service/pkg/errno"
	"transcription-service/pkg/logger"
)

// TranscriptionService 转写流程领域服务
type TranscriptionService interface {
	// Transcribe 同步执行一次转写，失败时先把记录标为失败再返回错误
	Transcribe(ctx context.Context, videoID int64) (*entity.Video, error)

	// Enqueue 把视频放回队列
	Enqueue(ctx context.Context, videoID int64) (*entity.Video, error)

	// ReapStale 把长时间停留在转写中的记录标为失败，返回处理条数
	ReapStale(ctx context.Context) (int, error)
}

// TranscriptionOptions 转写服务参数
type TranscriptionOptions struct {
	Timeout    time.Duration
	StaleAfter time.Duration
	LockGrace  time.Duration
	ReapBatch  int
	Now        func() time.Time
}

type transcriptionServiceImpl struct {
	videoRepo   repo.VideoRepository
	storage     gateway.StorageGateway
	transcriber gateway.Transcriber
	lock        gateway.ProcessingLock
	events      gateway.EventPublisher
	opts        TranscriptionOptions
}

var errNotStale = errors.New("video is no longer stale")

// NewTranscriptionService 创建转写领域服务，lock 与 events 可以为 nil
func NewTranscriptionService(
	videoRepo repo.VideoRepository,
	storage gateway.StorageGateway,
	transcriber gateway.Transcriber,
	lock gateway.ProcessingLock,
	events gateway.EventPublisher,
	opts TranscriptionOptions,
) TranscriptionService {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 2 * opts.Timeout
	}
	if opts.LockGrace <= 0 {
		opts.LockGrace = 30 * time.Second
	}
	if opts.ReapBatch <= 0 {
		opts.ReapBatch = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &transcriptionServiceImpl{
		videoRepo:   videoRepo,
		storage:     storage,
		transcriber: transcriber,
		lock:        lock,
		events:      events,
		opts:        opts,
	}
}

// Transcribe 执行一次完整的转写
func (s *transcriptionServiceImpl) Transcribe(ctx context.Context, videoID int64) (*entity.Video, error) {
	release, err := s.acquire(ctx, videoID)
	if err != nil {
		return nil, err
	}
	defer release()

	// 转写中状态必须在调用转写服务前提交
	video, err := s.videoRepo.Update(ctx, videoID, func(v *entity.Video) error {
		return v.StartTranscription(s.opts.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, gateway.VideoEventTranscriptionStarted, video)

	// 之后的终态写入不受请求取消影响
	persistCtx := context.WithoutCancel(ctx)

	mediaURL, err := s.storage.PresignedURL(ctx, video.StorageURL())
	if err != nil {
		return s.fail(persistCtx, videoID, "storage error: "+err.Error(), errno.NewBizError(errno.ErrStorage, err))
	}

	details, err := s.callTranscriber(ctx, mediaURL)
	if err != nil {
		if errors.Is(err, errno.ErrTranscriptionTimeout) {
			return s.fail(persistCtx, videoID, timeoutReason(s.opts.Timeout), err)
		}
		return s.fail(persistCtx, videoID, err.Error(), errno.NewBizError(errno.ErrTranscription, err))
	}

	video, err = s.videoRepo.Update(persistCtx, videoID, func(v *entity.Video) error {
		return v.CompleteTranscription(*details, s.opts.Now())
	})
	if err != nil {
		logger.Error("保存转写结果失败", map[string]interface{}{"video_id": videoID, "error": err.Error()})
		return nil, err
	}
	s.publish(persistCtx, gateway.VideoEventTranscriptionComplete, video)
	logger.Info("转写完成", map[string]interface{}{
		"video_id": videoID,
		"attempts": video.ProcessingAttempts(),
	})
	return video, nil
}

// callTranscriber 在超时内调用转写服务，panic 也会被转换成错误
func (s *transcriptionServiceImpl) callTranscriber(ctx context.Context, mediaURL string) (details *vo.TranscriptionDetails, err error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			details = nil
			err = fmt.Errorf("transcriber panicked: %v", r)
		}
	}()

	details, err = s.transcriber.Transcribe(callCtx, mediaURL)
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, errno.NewBizError(errno.ErrTranscriptionTimeout, errors.New(timeoutReason(s.opts.Timeout)))
	}
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, errors.New("transcriber returned an empty result")
	}
	return details, nil
}

func timeoutReason(d time.Duration) string {
	return fmt.Sprintf("transcription timed out after %s", d)
}

// fail 把记录标为失败，返回 cause；写入失败时返回存储错误
func (s *transcriptionServiceImpl) fail(ctx context.Context, videoID int64, reason string, cause error) (*entity.Video, error) {
	video, err := s.videoRepo.Update(ctx, videoID, func(v *entity.Video) error {
		return v.FailTranscription(reason, s.opts.Now())
	})
	if err != nil {
		logger.Error("记录转写失败状态失败", map[string]interface{}{
			"video_id": videoID,
			"reason":   reason,
			"error":    err.Error(),
		})
		return nil, err
	}
	s.publish(ctx, gateway.VideoEventTranscriptionFailed, video)
	logger.Warn("转写失败", map[string]interface{}{"video_id": videoID, "reason": reason})
	return video, cause
}

// Enqueue 放回队列
func (s *transcriptionServiceImpl) Enqueue(ctx context.Context, videoID int64) (*entity.Video, error) {
	video, err := s.videoRepo.Update(ctx, videoID, func(v *entity.Video) error {
		return v.Enqueue(s.opts.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, gateway.VideoEventQueued, video)
	return video, nil
}

// ReapStale 回收超时的转写记录，租约仍被持有的跳过
func (s *transcriptionServiceImpl) ReapStale(ctx context.Context) (int, error) {
	cutoff := s.opts.Now().Add(-s.opts.StaleAfter)
	stale, err := s.videoRepo.ListStaleProcessing(ctx, cutoff, s.opts.ReapBatch)
	if err != nil {
		return 0, err
	}

	reason := fmt.Sprintf("transcription timed out: processing abandoned for more than %s", s.opts.StaleAfter)
	reaped := 0
	for _, candidate := range stale {
		if s.lock != nil {
			held, err := s.lock.IsHeld(ctx, candidate.ID())
			if err != nil {
				logger.Warn("查询转写锁失败", map[string]interface{}{"video_id": candidate.ID(), "error": err.Error()})
				continue
			}
			if held {
				continue
			}
		}

		video, err := s.videoRepo.Update(ctx, candidate.ID(), func(v *entity.Video) error {
			started := v.ProcessingStartedAt()
			if v.Status() != vo.VideoStatusProcessing || started == nil || started.After(cutoff) {
				return errNotStale
			}
			return v.FailTranscription(reason, s.opts.Now())
		})
		if errors.Is(err, errNotStale) {
			continue
		}
		if err != nil {
			return reaped, err
		}
		reaped++
		s.publish(ctx, gateway.VideoEventTranscriptionFailed, video)
	}
	if reaped > 0 {
		logger.Warn("回收超时转写记录", map[string]interface{}{"count": reaped})
	}
	return reaped, nil
}

// acquire 获取租约锁；锁服务不可用时只依赖数据库行锁
func (s *transcriptionServiceImpl) acquire(ctx context.Context, videoID int64) (func(), error) {
	noop := func() {}
	if s.lock == nil {
		return noop, nil
	}
	release, acquired, err := s.lock.Acquire(ctx, videoID, s.opts.Timeout+s.opts.LockGrace)
	if err != nil {
		logger.Warn("获取转写锁失败，降级为行锁", map[string]interface{}{"video_id": videoID, "error": err.Error()})
		return noop, nil
	}
	if !acquired {
		return nil, errno.NewBizError(errno.ErrAlreadyProcessing, fmt.Errorf("video %d is already processing", videoID))
	}
	if release == nil {
		release = noop
	}
	return release, nil
}

func (s *transcriptionServiceImpl) publish(ctx context.Context, typ gateway.VideoEventType, v *entity.Video) {
	if s.events == nil || v == nil {
		return
	}
	event := gateway.VideoEvent{
		Type:       typ,
		VideoID:    v.ID(),
		Status:     v.Status(),
		Attempts:   v.ProcessingAttempts(),
		OccurredAt: v.LastModified(),
	}
	if msg := v.ErrorMessage(); msg != nil {
		event.ErrorMessage = *msg
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn("发布视频事件失败", map[string]interface{}{
			"video_id": v.ID(),
			"type":     string(typ),
			"error":    err.Error(),
		})
	}
}

// PublishUploaded 上传完成后发布事件，供应用层调用
func PublishUploaded(ctx context.Context, events gateway.EventPublisher, v *entity.Video) {
	if events == nil || v == nil {
		return
	}
	if err := events.Publish(ctx, gateway.VideoEvent{
		Type:       gateway.VideoEventUploaded,
		VideoID:    v.ID(),
		Status:     v.Status(),
		OccurredAt: v.UploadTime(),
	}); err != nil {
		logger.Warn("发布视频事件失败", map[string]interface{}{"video_id": v.ID(), "error": err.Error()})
	}
}
