package vo

import (
	"fmt"
	"strings"

	"transcription-service/pkg/errno"
)

// VideoStatus 视频处理状态
type VideoStatus string

const (
	// VideoStatusUploaded 已上传
	VideoStatusUploaded VideoStatus = "uploaded"
	// VideoStatusQueued 排队中
	VideoStatusQueued VideoStatus = "queued"
	// VideoStatusProcessing 转写中
	VideoStatusProcessing VideoStatus = "processing"
	// VideoStatusCompleted 已完成
	VideoStatusCompleted VideoStatus = "completed"
	// VideoStatusFailed 失败
	VideoStatusFailed VideoStatus = "failed"
)

// AllVideoStatuses 返回全部合法状态，顺序固定
func AllVideoStatuses() []VideoStatus {
	return []VideoStatus{
		VideoStatusUploaded,
		VideoStatusQueued,
		VideoStatusProcessing,
		VideoStatusCompleted,
		VideoStatusFailed,
	}
}

// ParseVideoStatus 解析状态字符串，忽略大小写与首尾空白
func ParseVideoStatus(s string) (VideoStatus, error) {
	status := VideoStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", errno.NewBizError(errno.ErrInvalidStatus, fmt.Errorf("unknown status %q", s))
	}
	return status, nil
}

// IsValid 检查状态是否有效
func (s VideoStatus) IsValid() bool {
	switch s {
	case VideoStatusUploaded, VideoStatusQueued, VideoStatusProcessing,
		VideoStatusCompleted, VideoStatusFailed:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s VideoStatus) String() string {
	return string(s)
}

// IsFinalStatus 检查是否为终态
func (s VideoStatus) IsFinalStatus() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态
func (s VideoStatus) CanTransitionTo(target VideoStatus) bool {
	if target == VideoStatusQueued {
		return s.IsValid() && s != VideoStatusProcessing
	}
	switch s {
	case VideoStatusUploaded, VideoStatusQueued, VideoStatusFailed:
		return target == VideoStatusProcessing
	case VideoStatusProcessing:
		return target == VideoStatusCompleted || target == VideoStatusFailed
	default:
		return false
	}
}
