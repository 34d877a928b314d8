package query

import (
	"fmt"
	"strings"

	"transcription-service/pkg/errno"
)

// SortKey 允许排序的字段
type SortKey string

const (
	SortByUploadTime              SortKey = "upload_time"
	SortByFilename                SortKey = "filename"
	SortByStatus                  SortKey = "status"
	SortByProcessingDuration      SortKey = "processing_duration"
	SortByTranscriptionConfidence SortKey = "transcription_confidence"
)

var sortKeyAliases = map[string]SortKey{
	"upload_time":              SortByUploadTime,
	"uploadtime":               SortByUploadTime,
	"filename":                 SortByFilename,
	"status":                   SortByStatus,
	"processing_duration":      SortByProcessingDuration,
	"processingduration":       SortByProcessingDuration,
	"transcription_confidence": SortByTranscriptionConfidence,
	"transcriptionconfidence":  SortByTranscriptionConfidence,
}

// sortColumns 排序字段到数据库列名的白名单
var sortColumns = map[SortKey]string{
	SortByUploadTime:              "upload_time",
	SortByFilename:                "filename",
	SortByStatus:                  "status",
	SortByProcessingDuration:      "processing_duration",
	SortByTranscriptionConfidence: "transcription_confidence",
}

// ParseSortKey 接受 snake_case 与 camelCase 写法
func ParseSortKey(s string) (SortKey, error) {
	key, ok := sortKeyAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", errno.NewBizError(errno.ErrInvalidSortField, fmt.Errorf("cannot sort by %q", s))
	}
	return key, nil
}

// Column 返回排序字段对应的列名，不在白名单中返回 false
func (k SortKey) Column() (string, bool) {
	col, ok := sortColumns[k]
	return col, ok
}
