package convertor

import (
	"time"

	"gorm.io/datatypes"

	"transcription-service/ddd/domain/entity"
	"transcription-service/ddd/domain/vo"
	"transcription-service/ddd/infrastructure/database/po"
)

// VideoConvertor 视频转换器
type VideoConvertor struct{}

// NewVideoConvertor 创建视频转换器
func NewVideoConvertor() *VideoConvertor {
	return &VideoConvertor{}
}

// ToPO 将Entity转换为PO
func (c *VideoConvertor) ToPO(v *entity.Video) *po.VideoPO {
	s := v.State()
	out := &po.VideoPO{
		ID:                      s.ID,
		Filename:                optionalString(s.Filename),
		StorageURL:              s.StorageURL,
		ContentType:             s.ContentType,
		Status:                  s.Status.String(),
		ProcessingAttempts:      s.ProcessingAttempts,
		ProcessingDuration:      s.ProcessingDuration,
		TranscriptionConfidence: s.TranscriptionConfidence,
		UploadTime:              s.UploadTime,
		ProcessedTime:           s.ProcessedTime,
		ProcessingStartedAt:     s.ProcessingStartedAt,
		LastModified:            s.LastModified,
		Transcription:           s.Transcription,
		Summary:                 s.Summary,
		ErrorMessage:            s.ErrorMessage,
		CreatedBy:               optionalString(s.CreatedBy),
	}
	if s.MediaMetadata != nil {
		j := datatypes.NewJSONType(*s.MediaMetadata)
		out.MediaMetadata = &j
	}
	if s.TranscriptionDetails != nil {
		j := datatypes.NewJSONType(*s.TranscriptionDetails)
		out.TranscriptionDetails = &j
	}
	if s.AnalysisResults != nil {
		j := datatypes.NewJSONType(*s.AnalysisResults)
		out.AnalysisResults = &j
	}
	return out
}

// ToEntity 将PO转换为Entity，状态非法时返回记录损坏错误
func (c *VideoConvertor) ToEntity(p *po.VideoPO) (*entity.Video, error) {
	s := entity.VideoState{
		ID:                      p.ID,
		Filename:                deref(p.Filename),
		StorageURL:              p.StorageURL,
		ContentType:             p.ContentType,
		Status:                  vo.VideoStatus(p.Status),
		ProcessingAttempts:      p.ProcessingAttempts,
		ProcessingDuration:      p.ProcessingDuration,
		TranscriptionConfidence: p.TranscriptionConfidence,
		UploadTime:              p.UploadTime.UTC(),
		ProcessedTime:           utcPtr(p.ProcessedTime),
		ProcessingStartedAt:     utcPtr(p.ProcessingStartedAt),
		LastModified:            p.LastModified.UTC(),
		Transcription:           p.Transcription,
		Summary:                 p.Summary,
		ErrorMessage:            p.ErrorMessage,
		CreatedBy:               deref(p.CreatedBy),
	}
	if p.MediaMetadata != nil {
		m := p.MediaMetadata.Data()
		s.MediaMetadata = &m
	}
	if p.TranscriptionDetails != nil {
		d := p.TranscriptionDetails.Data()
		s.TranscriptionDetails = &d
	}
	if p.AnalysisResults != nil {
		a := p.AnalysisResults.Data()
		s.AnalysisResults = &a
	}
	return entity.RestoreVideo(s)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
