package dto

import (
	"time"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/query"
	"transcription-service/ddd/domain/vo"
)

// VideoDTO 视频详情
type VideoDTO struct {
	ID                      int64                    `json:"id"`
	Filename                string                   `json:"filename,omitempty"`
	Status                  string                   `json:"status"`
	StorageURL              string                   `json:"storage_url"`
	ContentType             string                   `json:"content_type,omitempty"`
	UploadTime              time.Time                `json:"upload_time"`
	ProcessedTime           *time.Time               `json:"processed_time"`
	LastModified            time.Time                `json:"last_modified"`
	ProcessingAttempts      int                      `json:"processing_attempts"`
	ProcessingDuration      *float64                 `json:"processing_duration"`
	TranscriptionConfidence *float64                 `json:"transcription_confidence"`
	MediaMetadata           *vo.MediaMetadata        `json:"media_metadata"`
	Transcription           *string                  `json:"transcription"`
	TranscriptionDetails    *vo.TranscriptionDetails `json:"transcription_details,omitempty"`
	Summary                 *string                  `json:"summary"`
	AnalysisResults         *vo.AnalysisResults      `json:"analysis_results"`
	ErrorMessage            *string                  `json:"error_message,omitempty"`
	CreatedBy               string                   `json:"created_by,omitempty"`
}

// NewVideoDTO 实体转 DTO，错误信息只在失败状态下输出
func NewVideoDTO(v *entity.Video) *VideoDTO {
	return &VideoDTO{
		ID:                      v.ID(),
		Filename:                v.Filename(),
		Status:                  v.Status().String(),
		StorageURL:              v.StorageURL(),
		ContentType:             v.ContentType(),
		UploadTime:              v.UploadTime(),
		ProcessedTime:           v.ProcessedTime(),
		LastModified:            v.LastModified(),
		ProcessingAttempts:      v.ProcessingAttempts(),
		ProcessingDuration:      v.ProcessingDuration(),
		TranscriptionConfidence: v.TranscriptionConfidence(),
		MediaMetadata:           v.MediaMetadata(),
		Transcription:           v.Transcription(),
		TranscriptionDetails:    v.TranscriptionDetails(),
		Summary:                 v.Summary(),
		AnalysisResults:         v.AnalysisResults(),
		ErrorMessage:            v.ErrorMessage(),
		CreatedBy:               v.CreatedBy(),
	}
}

// UploadVideoDTO 上传结果
type UploadVideoDTO struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	StorageURL string `json:"storage_url"`
}

func NewUploadVideoDTO(v *entity.Video) *UploadVideoDTO {
	return &UploadVideoDTO{
		ID:         v.ID(),
		Filename:   v.Filename(),
		Status:     v.Status().String(),
		StorageURL: v.StorageURL(),
	}
}

// TranscriptionResultDTO 转写结果
type TranscriptionResultDTO struct {
	ID            int64                    `json:"id"`
	Status        string                   `json:"status"`
	Transcription *string                  `json:"transcription"`
	Details       *vo.TranscriptionDetails `json:"details"`
	ProcessedTime *time.Time               `json:"processed_time"`
}

func NewTranscriptionResultDTO(v *entity.Video) *TranscriptionResultDTO {
	return &TranscriptionResultDTO{
		ID:            v.ID(),
		Status:        v.Status().String(),
		Transcription: v.Transcription(),
		Details:       v.TranscriptionDetails(),
		ProcessedTime: v.ProcessedTime(),
	}
}

// ListMetadataDTO 分页元数据
type ListMetadataDTO struct {
	TotalCount  int64 `json:"total_count"`
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// VideoListDTO 视频列表
type VideoListDTO struct {
	Items    []*VideoDTO     `json:"items"`
	Metadata ListMetadataDTO `json:"metadata"`
}

func NewVideoListDTO(res query.Result, q query.VideoQuery) *VideoListDTO {
	items := make([]*VideoDTO, 0, len(res.Items))
	for _, v := range res.Items {
		items = append(items, NewVideoDTO(v))
	}
	info := query.NewPageInfo(res.Total, q.Page, q.PageSize)
	return &VideoListDTO{
		Items: items,
		Metadata: ListMetadataDTO{
			TotalCount:  info.TotalCount,
			Page:        info.Page,
			PageSize:    info.PageSize,
			TotalPages:  info.TotalPages,
			HasNext:     info.HasNext,
			HasPrevious: info.HasPrevious,
		},
	}
}
