package query

import (
	"cmp"
	"slices"
	"strings"

	"transcription-service/ddd/domain/entity"
)

// Matches 判断视频是否满足全部过滤条件，所有条件取交集。
// JSON 中缺失或无法解析的数值视为不满足对应的范围条件。
func (q VideoQuery) Matches(v *entity.Video) bool {
	if q.Status != nil && v.Status() != *q.Status {
		return false
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(v.Filename()), strings.ToLower(q.Search)) {
		return false
	}
	if q.HasDurationFilter() {
		d, ok := v.MediaMetadata().DurationSeconds()
		if !ok {
			return false
		}
		if q.MinDuration != nil && d < *q.MinDuration {
			return false
		}
		if q.MaxDuration != nil && d > *q.MaxDuration {
			return false
		}
	}
	if q.HasFileSizeFilter() {
		size, ok := v.MediaMetadata().FileSizeBytes()
		if !ok {
			return false
		}
		if q.MinFileSize != nil && size < *q.MinFileSize {
			return false
		}
		if q.MaxFileSize != nil && size > *q.MaxFileSize {
			return false
		}
	}
	if q.StartDate != nil && v.UploadTime().Before(*q.StartDate) {
		return false
	}
	if q.EndDate != nil && v.UploadTime().After(*q.EndDate) {
		return false
	}
	return true
}

// sortAccessor 比较两条都有值的记录；present 判断记录在该字段上是否有值
type sortAccessor struct {
	present func(v *entity.Video) bool
	compare func(a, b *entity.Video) int
}

var sortAccessors = map[SortKey]sortAccessor{
	SortByUploadTime: {
		present: func(*entity.Video) bool { return true },
		compare: func(a, b *entity.Video) int { return a.UploadTime().Compare(b.UploadTime()) },
	},
	SortByFilename: {
		present: func(v *entity.Video) bool { return v.Filename() != "" },
		compare: func(a, b *entity.Video) int { return strings.Compare(a.Filename(), b.Filename()) },
	},
	SortByStatus: {
		present: func(*entity.Video) bool { return true },
		compare: func(a, b *entity.Video) int { return strings.Compare(string(a.Status()), string(b.Status())) },
	},
	SortByProcessingDuration: {
		present: func(v *entity.Video) bool { return v.ProcessingDuration() != nil },
		compare: func(a, b *entity.Video) int { return cmp.Compare(*a.ProcessingDuration(), *b.ProcessingDuration()) },
	},
	SortByTranscriptionConfidence: {
		present: func(v *entity.Video) bool { return v.TranscriptionConfidence() != nil },
		compare: func(a, b *entity.Video) int {
			return cmp.Compare(*a.TranscriptionConfidence(), *b.TranscriptionConfidence())
		},
	},
}

// Compare 按查询的排序规则比较两条记录：空值始终排在最后，相同值按 id 同向排序
func (q VideoQuery) Compare(a, b *entity.Video) int {
	acc, ok := sortAccessors[q.OrderBy]
	if !ok {
		acc = sortAccessors[SortByUploadTime]
	}
	dir := 1
	if q.Descending() {
		dir = -1
	}

	ap, bp := acc.present(a), acc.present(b)
	switch {
	case ap && !bp:
		return -1
	case !ap && bp:
		return 1
	case ap && bp:
		if c := acc.compare(a, b); c != 0 {
			return c * dir
		}
	}
	return cmp.Compare(a.ID(), b.ID()) * dir
}

// Apply 对内存中的记录执行过滤、计数、排序和分页
func (q VideoQuery) Apply(videos []*entity.Video) Result {
	matched := make([]*entity.Video, 0, len(videos))
	for _, v := range videos {
		if q.Matches(v) {
			matched = append(matched, v)
		}
	}
	total := int64(len(matched))
	slices.SortStableFunc(matched, q.Compare)

	start := q.Offset()
	if start < 0 || start >= len(matched) {
		return Result{Items: []*entity.Video{}, Total: total}
	}
	end := len(matched)
	if limit := q.Limit(); limit > 0 && limit < end-start {
		end = start + limit
	}
	return Result{Items: matched[start:end], Total: total}
}
