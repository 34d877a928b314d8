package gateway

import (
	"context"
	"time"

	"transcription-service/ddd/domain/vo"
)

// VideoEventType 生命周期事件类型
type VideoEventType string

const (
	VideoEventUploaded              VideoEventType = "video.uploaded"
	VideoEventQueued                VideoEventType = "video.queued"
	VideoEventTranscriptionStarted  VideoEventType = "video.transcription.started"
	VideoEventTranscriptionComplete VideoEventType = "video.transcription.completed"
	VideoEventTranscriptionFailed   VideoEventType = "video.transcription.failed"
)

// VideoEvent 视频状态变更事件
type VideoEvent struct {
	Type         VideoEventType `json:"type"`
	VideoID      int64          `json:"video_id"`
	Status       vo.VideoStatus `json:"status"`
	Attempts     int            `json:"processing_attempts"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// EventPublisher 将事件通知到下游，失败只记录日志
type EventPublisher interface {
	Publish(ctx context.Context, event VideoEvent) error
}
