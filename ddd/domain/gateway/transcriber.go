package gateway

import (
	"context"

	"transcription-service/ddd/domain/vo"
)

// Transcriber 语音转写服务
type Transcriber interface {
	Transcribe(ctx context.Context, mediaURL string) (*vo.TranscriptionDetails, error)
}
