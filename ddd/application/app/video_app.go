package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"transcription-service/ddd/application/cqe"
	"transcription-service/ddd/application/dto"
	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/gateway"
	"transcription-service/ddd/domain/repo"
	"transcription-service/ddd/domain/service"
	"transcription-service/pkg/errno"
	"transcription-service/pkg/logger"
)

// 嗅探文件头的字节数，与 mimetype 默认读取上限一致
const sniffLength = 3072

type VideoApp interface {
	// UploadVideo 校验并上传视频，创建记录
	UploadVideo(ctx context.Context, req *cqe.UploadVideoReq) (*dto.UploadVideoDTO, error)
	// TranscribeVideo 同步转写
	TranscribeVideo(ctx context.Context, videoID int64) (*dto.TranscriptionResultDTO, error)
	// EnqueueVideo 放入队列
	EnqueueVideo(ctx context.Context, videoID int64) (*dto.VideoDTO, error)
	// GetVideo 获取视频详情
	GetVideo(ctx context.Context, videoID int64) (*dto.VideoDTO, error)
	// ListVideos 按条件分页查询
	ListVideos(ctx context.Context, req *cqe.ListVideosReq) (*dto.VideoListDTO, error)
	// UpdateMediaMetadata 回写媒体元数据
	UpdateMediaMetadata(ctx context.Context, videoID int64, req *cqe.UpdateMediaMetadataReq) (*dto.VideoDTO, error)
	// UpdateAnalysis 回写内容分析结果
	UpdateAnalysis(ctx context.Context, videoID int64, req *cqe.UpdateAnalysisReq) (*dto.VideoDTO, error)
}

// VideoAppOptions 上传相关参数
type VideoAppOptions struct {
	MaxFileSize int64
	KeyPrefix   string
	Now         func() time.Time
}

type videoAppImpl struct {
	videoRepo     repo.VideoRepository
	storage       gateway.StorageGateway
	transcription service.TranscriptionService
	events        gateway.EventPublisher
	opts          VideoAppOptions
}

func NewVideoAppWith(
	videoRepo repo.VideoRepository,
	storage gateway.StorageGateway,
	transcription service.TranscriptionService,
	events gateway.EventPublisher,
	opts VideoAppOptions,
) VideoApp {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "videos"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &videoAppImpl{
		videoRepo:     videoRepo,
		storage:       storage,
		transcription: transcription,
		events:        events,
		opts:          opts,
	}
}

func (a *videoAppImpl) UploadVideo(ctx context.Context, req *cqe.UploadVideoReq) (*dto.UploadVideoDTO, error) {
	if err := req.Validate(a.opts.MaxFileSize); err != nil {
		return nil, err
	}

	// 检查文件头，声明的类型不可信
	head := make([]byte, sniffLength)
	n, err := io.ReadFull(req.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errno.NewBizError(errno.ErrValidation, fmt.Errorf("read upload: %w", err))
	}
	head = head[:n]
	if n == 0 {
		return nil, errno.NewBizError(errno.ErrFileSizeIllegal, fmt.Errorf("empty file"))
	}
	detected := mimetype.Detect(head)
	if !acceptableSniff(detected) {
		return nil, errno.NewBizError(errno.ErrNotVideo, fmt.Errorf("detected content type %q", detected.String()))
	}

	now := a.opts.Now().UTC()
	key := a.objectKey(req.Filename, now)
	body := io.MultiReader(bytes.NewReader(head), req.Reader)

	locator, err := a.storage.Put(ctx, key, body, req.Size, req.ContentType)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrStorage, err)
	}

	video := entity.NewVideo(req.Filename, locator, req.ContentType, req.CreatedBy, now)
	saved, err := a.videoRepo.Create(ctx, video)
	if err != nil {
		logger.Error("保存视频记录失败", map[string]interface{}{
			"storage_url": locator,
			"error":       err.Error(),
		})
		return nil, err
	}

	logger.Info("视频上传成功", map[string]interface{}{
		"video_id":    saved.ID(),
		"filename":    saved.Filename(),
		"storage_url": locator,
		"size":        req.Size,
	})
	service.PublishUploaded(ctx, a.events, saved)
	return dto.NewUploadVideoDTO(saved), nil
}

// acceptableSniff 文件头能识别时必须是 video/*，无法识别时放行
func acceptableSniff(m *mimetype.MIME) bool {
	for cur := m; cur != nil; cur = cur.Parent() {
		if strings.HasPrefix(cur.String(), "video/") {
			return true
		}
	}
	return m.Is("application/octet-stream")
}

func (a *videoAppImpl) objectKey(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, " /?#%") {
		ext = ""
	}
	return fmt.Sprintf("%s/%s/%s%s", strings.Trim(a.opts.KeyPrefix, "/"), now.Format("2006/01/02"), uuid.NewString(), ext)
}

func (a *videoAppImpl) TranscribeVideo(ctx context.Context, videoID int64) (*dto.TranscriptionResultDTO, error) {
	if videoID <= 0 {
		return nil, errno.ErrVideoIDRequired
	}
	video, err := a.transcription.Transcribe(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return dto.NewTranscriptionResultDTO(video), nil
}

func (a *videoAppImpl) EnqueueVideo(ctx context.Context, videoID int64) (*dto.VideoDTO, error) {
	if videoID <= 0 {
		return nil, errno.ErrVideoIDRequired
	}
	video, err := a.transcription.Enqueue(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return dto.NewVideoDTO(video), nil
}

func (a *videoAppImpl) GetVideo(ctx context.Context, videoID int64) (*dto.VideoDTO, error) {
	if videoID <= 0 {
		return nil, errno.ErrVideoIDRequired
	}
	video, err := a.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return dto.NewVideoDTO(video), nil
}

func (a *videoAppImpl) ListVideos(ctx context.Context, req *cqe.ListVideosReq) (*dto.VideoListDTO, error) {
	q, err := req.ToQuery()
	if err != nil {
		return nil, err
	}
	res, err := a.videoRepo.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return dto.NewVideoListDTO(res, q), nil
}

func (a *videoAppImpl) UpdateMediaMetadata(ctx context.Context, videoID int64, req *cqe.UpdateMediaMetadataReq) (*dto.VideoDTO, error) {
	if videoID <= 0 {
		return nil, errno.ErrVideoIDRequired
	}
	if req.MediaMetadata == nil {
		return nil, errno.NewBizError(errno.ErrMissingParam, fmt.Errorf("media_metadata is required"))
	}
	if err := req.MediaMetadata.Validate(); err != nil {
		return nil, errno.NewBizError(errno.ErrValidation, err)
	}
	video, err := a.videoRepo.Update(ctx, videoID, func(v *entity.Video) error {
		return v.SetMediaMetadata(req.MediaMetadata, a.opts.Now())
	})
	if err != nil {
		return nil, err
	}
	return dto.NewVideoDTO(video), nil
}

func (a *videoAppImpl) UpdateAnalysis(ctx context.Context, videoID int64, req *cqe.UpdateAnalysisReq) (*dto.VideoDTO, error) {
	if videoID <= 0 {
		return nil, errno.ErrVideoIDRequired
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.AnalysisResults != nil {
		if err := req.AnalysisResults.Validate(); err != nil {
			return nil, errno.NewBizError(errno.ErrValidation, err)
		}
	}
	video, err := a.videoRepo.Update(ctx, videoID, func(v *entity.Video) error {
		return v.SetAnalysis(req.AnalysisResults, req.Summary, a.opts.Now())
	})
	if err != nil {
		return nil, err
	}
	return dto.NewVideoDTO(video), nil
}
