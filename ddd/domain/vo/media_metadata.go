package vo

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Resolution 分辨率
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MediaMetadata 媒体元数据，由元数据提取服务写入。
// 数值字段兼容数字和数字字符串两种写法，无法解析时视为缺失。
type MediaMetadata struct {
	Duration   *float64    `json:"duration,omitempty"`
	FileSize   *int64      `json:"file_size,omitempty"`
	Format     string      `json:"format,omitempty"`
	Codec      string      `json:"codec,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty"`
	FrameRate  *float64    `json:"frame_rate,omitempty"`
	Bitrate    *int64      `json:"bitrate,omitempty"`
}

// UnmarshalJSON 解析时对数值字段做类型兼容
func (m *MediaMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Duration   json.RawMessage `json:"duration"`
		FileSize   json.RawMessage `json:"file_size"`
		Format     json.RawMessage `json:"format"`
		Codec      json.RawMessage `json:"codec"`
		Resolution *Resolution     `json:"resolution"`
		FrameRate  json.RawMessage `json:"frame_rate"`
		Bitrate    json.RawMessage `json:"bitrate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MediaMetadata{
		Duration:   coerceFloat(raw.Duration),
		FileSize:   coerceInt(raw.FileSize),
		Format:     coerceString(raw.Format),
		Codec:      coerceString(raw.Codec),
		Resolution: raw.Resolution,
		FrameRate:  coerceFloat(raw.FrameRate),
		Bitrate:    coerceInt(raw.Bitrate),
	}
	return nil
}

// DurationSeconds 返回时长（秒），缺失时 ok 为 false
func (m *MediaMetadata) DurationSeconds() (float64, bool) {
	if m == nil || m.Duration == nil {
		return 0, false
	}
	return *m.Duration, true
}

// FileSizeBytes 返回文件大小（字节），缺失时 ok 为 false
func (m *MediaMetadata) FileSizeBytes() (int64, bool) {
	if m == nil || m.FileSize == nil {
		return 0, false
	}
	return *m.FileSize, true
}

// Validate 校验数值字段非负
func (m *MediaMetadata) Validate() error {
	if m == nil {
		return nil
	}
	if m.Duration != nil && *m.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	if m.FileSize != nil && *m.FileSize < 0 {
		return errors.New("file_size must not be negative")
	}
	if m.FrameRate != nil && *m.FrameRate < 0 {
		return errors.New("frame_rate must not be negative")
	}
	if m.Bitrate != nil && *m.Bitrate < 0 {
		return errors.New("bitrate must not be negative")
	}
	if m.Resolution != nil && (m.Resolution.Width < 0 || m.Resolution.Height < 0) {
		return errors.New("resolution must not be negative")
	}
	return nil
}

func coerceFloat(raw json.RawMessage) *float64 {
	s, ok := scalarText(raw)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func coerceInt(raw json.RawMessage) *int64 {
	s, ok := scalarText(raw)
	if !ok {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func coerceString(raw json.RawMessage) string {
	s, ok := scalarText(raw)
	if !ok {
		return ""
	}
	return s
}

// scalarText 取出 JSON 标量的文本，字符串去掉引号，对象数组与 null 视为缺失
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '{', '[':
		return "", false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	default:
		return string(raw), true
	}
}
