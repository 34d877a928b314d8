package entity

import (
	"fmt"
	"strings"
	"time"

	"transcription-service/ddd/domain/vo"
	"transcription-service/pkg/errno"
)

// Video 视频实体，状态变更只能通过下面的方法进行
type Video struct {
	id                      int64
	filename                string
	storageURL              string
	contentType             string
	status                  vo.VideoStatus
	processingAttempts      int
	processingDuration      *float64
	transcriptionConfidence *float64
	uploadTime              time.Time
	processedTime           *time.Time
	processingStartedAt     *time.Time
	lastModified            time.Time
	mediaMetadata           *vo.MediaMetadata
	transcription           *string
	transcriptionDetails    *vo.TranscriptionDetails
	summary                 *string
	analysisResults         *vo.AnalysisResults
	errorMessage            *string
	createdBy               string
}

// VideoState 视频实体的完整快照，供持久化层重建实体使用
type VideoState struct {
	ID                      int64
	Filename                string
	StorageURL              string
	ContentType             string
	Status                  vo.VideoStatus
	ProcessingAttempts      int
	ProcessingDuration      *float64
	TranscriptionConfidence *float64
	UploadTime              time.Time
	ProcessedTime           *time.Time
	ProcessingStartedAt     *time.Time
	LastModified            time.Time
	MediaMetadata           *vo.MediaMetadata
	Transcription           *string
	TranscriptionDetails    *vo.TranscriptionDetails
	Summary                 *string
	AnalysisResults         *vo.AnalysisResults
	ErrorMessage            *string
	CreatedBy               string
}

// NewVideo 创建刚上传的视频实体，id 由存储层分配
func NewVideo(filename, storageURL, contentType, createdBy string, now time.Time) *Video {
	now = now.UTC()
	return &Video{
		filename:     filename,
		storageURL:   storageURL,
		contentType:  contentType,
		status:       vo.VideoStatusUploaded,
		uploadTime:   now,
		lastModified: now,
		createdBy:    createdBy,
	}
}

// RestoreVideo 从快照重建实体，未知状态视为记录损坏
func RestoreVideo(s VideoState) (*Video, error) {
	if !s.Status.IsValid() {
		return nil, errno.NewBizError(errno.ErrCorruptRecord,
			fmt.Errorf("video %d has unknown status %q", s.ID, s.Status))
	}
	if s.ProcessingAttempts < 0 {
		return nil, errno.NewBizError(errno.ErrCorruptRecord,
			fmt.Errorf("video %d has negative processing attempts", s.ID))
	}
	return &Video{
		id:                      s.ID,
		filename:                s.Filename,
		storageURL:              s.StorageURL,
		contentType:             s.ContentType,
		status:                  s.Status,
		processingAttempts:      s.ProcessingAttempts,
		processingDuration:      s.ProcessingDuration,
		transcriptionConfidence: s.TranscriptionConfidence,
		uploadTime:              s.UploadTime,
		processedTime:           s.ProcessedTime,
		processingStartedAt:     s.ProcessingStartedAt,
		lastModified:            s.LastModified,
		mediaMetadata:           s.MediaMetadata,
		transcription:           s.Transcription,
		transcriptionDetails:    s.TranscriptionDetails,
		summary:                 s.Summary,
		analysisResults:         s.AnalysisResults,
		errorMessage:            s.ErrorMessage,
		createdBy:               s.CreatedBy,
	}, nil
}

// State 导出快照
func (v *Video) State() VideoState {
	return VideoState{
		ID:                      v.id,
		Filename:                v.filename,
		StorageURL:              v.storageURL,
		ContentType:             v.contentType,
		Status:                  v.status,
		ProcessingAttempts:      v.processingAttempts,
		ProcessingDuration:      v.processingDuration,
		TranscriptionConfidence: v.transcriptionConfidence,
		UploadTime:              v.uploadTime,
		ProcessedTime:           v.processedTime,
		ProcessingStartedAt:     v.processingStartedAt,
		LastModified:            v.lastModified,
		MediaMetadata:           v.mediaMetadata,
		Transcription:           v.transcription,
		TranscriptionDetails:    v.transcriptionDetails,
		Summary:                 v.summary,
		AnalysisResults:         v.analysisResults,
		ErrorMessage:            v.errorMessage,
		CreatedBy:               v.createdBy,
	}
}

// Clone 深拷贝，内存存储用它隔离调用方
func (v *Video) Clone() *Video {
	c := *v
	c.processingDuration = copyPtr(v.processingDuration)
	c.transcriptionConfidence = copyPtr(v.transcriptionConfidence)
	c.processedTime = copyPtr(v.processedTime)
	c.processingStartedAt = copyPtr(v.processingStartedAt)
	c.transcription = copyPtr(v.transcription)
	c.summary = copyPtr(v.summary)
	c.errorMessage = copyPtr(v.errorMessage)
	if v.mediaMetadata != nil {
		m := *v.mediaMetadata
		m.Duration = copyPtr(m.Duration)
		m.FileSize = copyPtr(m.FileSize)
		m.FrameRate = copyPtr(m.FrameRate)
		m.Bitrate = copyPtr(m.Bitrate)
		m.Resolution = copyPtr(m.Resolution)
		c.mediaMetadata = &m
	}
	if v.transcriptionDetails != nil {
		d := *v.transcriptionDetails
		d.Segments = cloneSegments(d.Segments)
		c.transcriptionDetails = &d
	}
	if v.analysisResults != nil {
		a := *v.analysisResults
		a.Sentiment = copyPtr(a.Sentiment)
		a.Language = copyPtr(a.Language)
		a.ContentCategories = append([]vo.ContentCategory(nil), a.ContentCategories...)
		c.analysisResults = &a
	}
	return &c
}

// StartTranscription 进入转写中状态
func (v *Video) StartTranscription(now time.Time) error {
	if v.status == vo.VideoStatusProcessing {
		return errno.NewBizError(errno.ErrAlreadyProcessing, fmt.Errorf("video %d is already processing", v.id))
	}
	if !v.status.CanTransitionTo(vo.VideoStatusProcessing) {
		return errno.NewBizError(errno.ErrInvalidTransition,
			fmt.Errorf("cannot start transcription from %s", v.status))
	}
	now = now.UTC()
	v.status = vo.VideoStatusProcessing
	v.processingAttempts++
	v.errorMessage = nil
	v.processingStartedAt = &now
	v.lastModified = now
	return nil
}

// CompleteTranscription 写入转写结果并进入完成状态
func (v *Video) CompleteTranscription(details vo.TranscriptionDetails, now time.Time) error {
	if !v.status.CanTransitionTo(vo.VideoStatusCompleted) {
		return errno.NewBizError(errno.ErrInvalidTransition,
			fmt.Errorf("cannot complete transcription from %s", v.status))
	}
	now = now.UTC()
	details = details.Normalize()
	text := details.Text
	v.transcription = &text
	v.transcriptionDetails = &details
	if c, ok := details.OverallConfidence(); ok {
		v.transcriptionConfidence = &c
	} else {
		v.transcriptionConfidence = nil
	}
	v.status = vo.VideoStatusCompleted
	v.finishEpisode(now)
	return nil
}

// FailTranscription 记录失败原因并进入失败状态
func (v *Video) FailTranscription(reason string, now time.Time) error {
	if !v.status.CanTransitionTo(vo.VideoStatusFailed) {
		return errno.NewBizError(errno.ErrInvalidTransition,
			fmt.Errorf("cannot fail transcription from %s", v.status))
	}
	now = now.UTC()
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "transcription failed"
	}
	v.errorMessage = &reason
	v.status = vo.VideoStatusFailed
	v.finishEpisode(now)
	return nil
}

// Enqueue 重新排队，转写中的视频不能排队
func (v *Video) Enqueue(now time.Time) error {
	if !v.status.CanTransitionTo(vo.VideoStatusQueued) {
		return errno.NewBizError(errno.ErrInvalidTransition,
			fmt.Errorf("cannot enqueue video in status %s", v.status))
	}
	v.status = vo.VideoStatusQueued
	v.errorMessage = nil
	v.lastModified = now.UTC()
	return nil
}

// SetMediaMetadata 写入媒体元数据
func (v *Video) SetMediaMetadata(m *vo.MediaMetadata, now time.Time) error {
	if err := m.Validate(); err != nil {
		return errno.NewBizError(errno.ErrValidation, err)
	}
	v.mediaMetadata = m
	v.lastModified = now.UTC()
	return nil
}

// SetAnalysis 写入分析结果与摘要，nil 参数表示不修改
func (v *Video) SetAnalysis(a *vo.AnalysisResults, summary *string, now time.Time) error {
	if err := a.Validate(); err != nil {
		return errno.NewBizError(errno.ErrValidation, err)
	}
	if a != nil {
		v.analysisResults = a
	}
	if summary != nil {
		s := *summary
		v.summary = &s
	}
	v.lastModified = now.UTC()
	return nil
}

// Touch 刷新最后修改时间
func (v *Video) Touch(now time.Time) {
	now = now.UTC()
	if now.After(v.lastModified) {
		v.lastModified = now
	}
}

// finishEpisode 结束一次转写：处理时间只写一次，耗时按本次开始时间计算
func (v *Video) finishEpisode(now time.Time) {
	if v.processedTime == nil {
		v.processedTime = &now
	}
	if v.processingStartedAt != nil {
		d := now.Sub(*v.processingStartedAt).Seconds()
		if d < 0 {
			d = 0
		}
		v.processingDuration = &d
	}
	v.lastModified = now
}

func (v *Video) ID() int64                         { return v.id }
func (v *Video) Filename() string                  { return v.filename }
func (v *Video) StorageURL() string                { return v.storageURL }
func (v *Video) ContentType() string               { return v.contentType }
func (v *Video) Status() vo.VideoStatus            { return v.status }
func (v *Video) ProcessingAttempts() int           { return v.processingAttempts }
func (v *Video) ProcessingDuration() *float64      { return v.processingDuration }
func (v *Video) TranscriptionConfidence() *float64 { return v.transcriptionConfidence }
func (v *Video) UploadTime() time.Time             { return v.uploadTime }
func (v *Video) ProcessedTime() *time.Time         { return v.processedTime }
func (v *Video) ProcessingStartedAt() *time.Time   { return v.processingStartedAt }
func (v *Video) LastModified() time.Time           { return v.lastModified }
func (v *Video) MediaMetadata() *vo.MediaMetadata  { return v.mediaMetadata }
func (v *Video) Transcription() *string            { return v.transcription }
func (v *Video) Summary() *string                  { return v.summary }
func (v *Video) AnalysisResults() *vo.AnalysisResults {
	return v.analysisResults
}
func (v *Video) TranscriptionDetails() *vo.TranscriptionDetails {
	return v.transcriptionDetails
}
func (v *Video) CreatedBy() string { return v.createdBy }

// ErrorMessage 只有失败状态才对外可见
func (v *Video) ErrorMessage() *string {
	if v.status != vo.VideoStatusFailed {
		return nil
	}
	return v.errorMessage
}

// SetID 由存储层在插入后回填
func (v *Video) SetID(id int64) { v.id = id }

func cloneSegments(segs []vo.TranscriptionSegment) []vo.TranscriptionSegment {
	if segs == nil {
		return nil
	}
	out := make([]vo.TranscriptionSegment, len(segs))
	for i, seg := range segs {
		seg.Confidence = copyPtr(seg.Confidence)
		if seg.Words != nil {
			words := make([]vo.TranscriptionWord, len(seg.Words))
			for j, w := range seg.Words {
				w.Confidence = copyPtr(w.Confidence)
				words[j] = w
			}
			seg.Words = words
		}
		out[i] = seg
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
