package cqe

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"transcription-service/ddd/domain/query"
	"transcription-service/ddd/domain/vo"
	"transcription-service/pkg/errno"
)

const maxFilenameLength = 255

// UploadVideoReq 上传视频请求，Reader 由 HTTP 层从 multipart 中取出
type UploadVideoReq struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
	CreatedBy   string
}

// Validate 校验文件名、大小与声明的 MIME 类型
func (req *UploadVideoReq) Validate(maxFileSize int64) error {
	if req.Reader == nil {
		return errno.NewBizError(errno.ErrMissingParam, fmt.Errorf("file is required"))
	}
	name := CleanFilename(req.Filename)
	if name == "" || utf8.RuneCountInString(name) > maxFilenameLength {
		return errno.NewBizError(errno.ErrFileNameIllegal, fmt.Errorf("filename %q", req.Filename))
	}
	req.Filename = name
	if req.Size <= 0 || (maxFileSize > 0 && req.Size > maxFileSize) {
		return errno.NewBizError(errno.ErrFileSizeIllegal, fmt.Errorf("size %d exceeds limit %d", req.Size, maxFileSize))
	}
	if !IsVideoMIME(req.ContentType) {
		return errno.NewBizError(errno.ErrNotVideo, fmt.Errorf("declared content type %q", req.ContentType))
	}
	return nil
}

// CleanFilename 去掉客户端带上的路径
func CleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// IsVideoMIME 判断 MIME 类型是否为 video/*
func IsVideoMIME(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "video/")
}

// ListVideosReq 列表查询参数
type ListVideosReq struct {
	Status      string `form:"status"`
	Search      string `form:"search"`
	MinDuration string `form:"min_duration"`
	MaxDuration string `form:"max_duration"`
	MinFileSize string `form:"min_file_size"`
	MaxFileSize string `form:"max_file_size"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
	OrderBy     string `form:"order_by"`
	Order       string `form:"order"`
	Page        string `form:"page"`
	PageSize    string `form:"page_size"`
}

// ToQuery 转换并校验为领域查询
func (req *ListVideosReq) ToQuery() (query.VideoQuery, error) {
	return query.Build(query.Params{
		Status:      req.Status,
		Search:      req.Search,
		MinDuration: req.MinDuration,
		MaxDuration: req.MaxDuration,
		MinFileSize: req.MinFileSize,
		MaxFileSize: req.MaxFileSize,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		OrderBy:     req.OrderBy,
		Order:       req.Order,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
}

// UpdateMediaMetadataReq 元数据提取服务回写
type UpdateMediaMetadataReq struct {
	MediaMetadata *vo.MediaMetadata `json:"media_metadata" binding:"required"`
}

// UpdateAnalysisReq 内容分析服务回写
type UpdateAnalysisReq struct {
	AnalysisResults *vo.AnalysisResults `json:"analysis_results"`
	Summary         *string             `json:"summary"`
}

func (req *UpdateAnalysisReq) Validate() error {
	if req.AnalysisResults == nil && req.Summary == nil {
		return errno.NewBizError(errno.ErrMissingParam, fmt.Errorf("analysis_results or summary is required"))
	}
	return nil
}
