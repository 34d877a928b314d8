package po

import (
	"time"

	"gorm.io/datatypes"

	"transcription-service/ddd/domain/vo"
)

// VideoPO 视频持久化对象，JSON 字段在 Postgres 上为 JSONB，MySQL 上为 JSON
type VideoPO struct {
	ID                      int64                                         `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename                *string                                       `gorm:"size:512;index" json:"filename"`
	StorageURL              string                                        `gorm:"column:storage_url;size:1024;not null" json:"storage_url"`
	ContentType             string                                        `gorm:"size:128" json:"content_type"`
	Status                  string                                        `gorm:"size:20;not null;default:uploaded;index" json:"status"`
	ProcessingAttempts      int                                           `gorm:"not null;default:0" json:"processing_attempts"`
	ProcessingDuration      *float64                                      `json:"processing_duration"`
	TranscriptionConfidence *float64                                      `json:"transcription_confidence"`
	UploadTime              time.Time                                     `gorm:"not null;index" json:"upload_time"`
	ProcessedTime           *time.Time                                    `json:"processed_time"`
	ProcessingStartedAt     *time.Time                                    `gorm:"index" json:"processing_started_at"`
	LastModified            time.Time                                     `gorm:"not null" json:"last_modified"`
	MediaMetadata           *datatypes.JSONType[vo.MediaMetadata]         `json:"media_metadata"`
	Transcription           *string                                       `gorm:"type:text" json:"transcription"`
	TranscriptionDetails    *datatypes.JSONType[vo.TranscriptionDetails] `json:"transcription_details"`
	Summary                 *string                                       `gorm:"type:text" json:"summary"`
	AnalysisResults         *datatypes.JSONType[vo.AnalysisResults]      `json:"analysis_results"`
	ErrorMessage            *string                                       `gorm:"type:text" json:"error_message"`
	CreatedBy               *string                                       `gorm:"size:128;index" json:"created_by"`
}

// TableName 指定表名
func (VideoPO) TableName() string {
	return "videos"
}

// 列名常量，查询条件与排序只能引用这些列
const (
	ColumnID                  = "id"
	ColumnFilename            = "filename"
	ColumnStatus              = "status"
	ColumnUploadTime          = "upload_time"
	ColumnProcessingStartedAt = "processing_started_at"
	ColumnMediaMetadata       = "media_metadata"
)
