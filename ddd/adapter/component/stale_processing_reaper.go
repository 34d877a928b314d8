package component

import (
	"context"
	"time"

	"transcription-service/ddd/domain/service"
	"transcription-service/pkg/task"
)

// NewStaleProcessingReaper 周期性回收长时间停留在转写中的视频
func NewStaleProcessingReaper(svc service.TranscriptionService, every time.Duration) task.BackgroundTask {
	return task.NewPeriodicTask("staleProcessingReaper", every, func(ctx context.Context) error {
		_, err := svc.ReapStale(ctx)
		return err
	})
}
