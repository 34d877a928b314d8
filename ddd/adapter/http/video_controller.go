package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"transcription-service/ddd/application/app"
	"transcription-service/ddd/application/cqe"
	"transcription-service/pkg/errno"
	"transcription-service/pkg/middleware"
	"transcription-service/pkg/restapi"
)

// multipart 头部与其他字段的余量
const multipartOverhead = 1 << 20

// VideoController 视频接口
type VideoController struct {
	videoApp    app.VideoApp
	maxFileSize int64
}

func NewVideoController(videoApp app.VideoApp, maxFileSize int64) *VideoController {
	return &VideoController{videoApp: videoApp, maxFileSize: maxFileSize}
}

// Upload 上传视频
func (c *VideoController) Upload(ctx *gin.Context) {
	if c.maxFileSize > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxFileSize+multipartOverhead)
	}
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			restapi.Failed(ctx, errno.NewBizError(errno.ErrFileSizeIllegal, err))
			return
		}
		restapi.Failed(ctx, errno.NewBizError(errno.ErrMissingParam, fmt.Errorf("file: %w", err)))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrValidation, err))
		return
	}
	defer file.Close()

	resp, err := c.videoApp.UploadVideo(ctx.Request.Context(), &cqe.UploadVideoReq{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
		CreatedBy:   ctx.GetString(middleware.UserKey),
	})
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// Transcribe 同步转写
func (c *VideoController) Transcribe(ctx *gin.Context) {
	id, ok := videoID(ctx)
	if !ok {
		return
	}
	resp, err := c.videoApp.TranscribeVideo(ctx.Request.Context(), id)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// Enqueue 放入转写队列
func (c *VideoController) Enqueue(ctx *gin.Context) {
	id, ok := videoID(ctx)
	if !ok {
		return
	}
	resp, err := c.videoApp.EnqueueVideo(ctx.Request.Context(), id)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// Get 视频详情
func (c *VideoController) Get(ctx *gin.Context) {
	id, ok := videoID(ctx)
	if !ok {
		return
	}
	resp, err := c.videoApp.GetVideo(ctx.Request.Context(), id)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// List 视频列表
func (c *VideoController) List(ctx *gin.Context) {
	var req cqe.ListVideosReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrValidation, err))
		return
	}
	resp, err := c.videoApp.ListVideos(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// UpdateMetadata 回写媒体元数据
func (c *VideoController) UpdateMetadata(ctx *gin.Context) {
	id, ok := videoID(ctx)
	if !ok {
		return
	}
	var req cqe.UpdateMediaMetadataReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrValidation, err))
		return
	}
	resp, err := c.videoApp.UpdateMediaMetadata(ctx.Request.Context(), id, &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// UpdateAnalysis 回写分析结果
func (c *VideoController) UpdateAnalysis(ctx *gin.Context) {
	id, ok := videoID(ctx)
	if !ok {
		return
	}
	var req cqe.UpdateAnalysisReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrValidation, err))
		return
	}
	resp, err := c.videoApp.UpdateAnalysis(ctx.Request.Context(), id, &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func videoID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrValidation, fmt.Errorf("invalid video id %q", ctx.Param("id"))))
		return 0, false
	}
	return id, true
}
