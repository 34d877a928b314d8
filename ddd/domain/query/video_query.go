package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"transcription-service/ddd/domain/vo"
	"transcription-service/pkg/errno"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage 保证偏移量在 32 位 int 下也不溢出
	MaxPage = math.MaxInt32 / MaxPageSize
)

// SortOrder 排序方向
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Params 列表接口的原始查询参数，全部为字符串，空串表示未提供
type Params struct {
	Status      string
	Search      string
	MinDuration string
	MaxDuration string
	MinFileSize string
	MaxFileSize string
	StartDate   string
	EndDate     string
	OrderBy     string
	Order       string
	Page        string
	PageSize    string
}

// VideoQuery 校验后的查询条件
type VideoQuery struct {
	Status      *vo.VideoStatus
	Search      string
	MinDuration *float64
	MaxDuration *float64
	MinFileSize *int64
	MaxFileSize *int64
	StartDate   *time.Time
	EndDate     *time.Time
	OrderBy     SortKey
	Order       SortOrder
	Page        int
	PageSize    int
}

// Build 解析并校验查询参数，任何不合法的参数都返回校验错误
func Build(p Params) (VideoQuery, error) {
	q := VideoQuery{
		Search:   strings.TrimSpace(p.Search),
		OrderBy:  SortByUploadTime,
		Order:    OrderDesc,
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}

	if s := strings.TrimSpace(p.Status); s != "" {
		status, err := vo.ParseVideoStatus(s)
		if err != nil {
			return VideoQuery{}, err
		}
		q.Status = &status
	}

	var err error
	if q.MinDuration, err = parseBound("min_duration", p.MinDuration); err != nil {
		return VideoQuery{}, err
	}
	if q.MaxDuration, err = parseBound("max_duration", p.MaxDuration); err != nil {
		return VideoQuery{}, err
	}
	if q.MinDuration != nil && q.MaxDuration != nil && *q.MinDuration > *q.MaxDuration {
		return VideoQuery{}, invalid("min_duration must not exceed max_duration")
	}
	if q.MinFileSize, err = parseSizeBound("min_file_size", p.MinFileSize); err != nil {
		return VideoQuery{}, err
	}
	if q.MaxFileSize, err = parseSizeBound("max_file_size", p.MaxFileSize); err != nil {
		return VideoQuery{}, err
	}
	if q.MinFileSize != nil && q.MaxFileSize != nil && *q.MinFileSize > *q.MaxFileSize {
		return VideoQuery{}, invalid("min_file_size must not exceed max_file_size")
	}

	if q.StartDate, err = parseDate("start_date", p.StartDate, false); err != nil {
		return VideoQuery{}, err
	}
	if q.EndDate, err = parseDate("end_date", p.EndDate, true); err != nil {
		return VideoQuery{}, err
	}
	if q.StartDate != nil && q.EndDate != nil && q.StartDate.After(*q.EndDate) {
		return VideoQuery{}, invalid("start_date must not be after end_date")
	}

	if s := strings.TrimSpace(p.OrderBy); s != "" {
		if q.OrderBy, err = ParseSortKey(s); err != nil {
			return VideoQuery{}, err
		}
	}
	switch strings.ToLower(strings.TrimSpace(p.Order)) {
	case "":
	case string(OrderAsc):
		q.Order = OrderAsc
	case string(OrderDesc):
		q.Order = OrderDesc
	default:
		return VideoQuery{}, invalid(fmt.Sprintf("order must be asc or desc, got %q", p.Order))
	}

	if s := strings.TrimSpace(p.Page); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxPage {
			return VideoQuery{}, invalid(fmt.Sprintf("page must be an integer between 1 and %d", MaxPage))
		}
		q.Page = n
	}
	if s := strings.TrimSpace(p.PageSize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxPageSize {
			return VideoQuery{}, invalid(fmt.Sprintf("page_size must be an integer between 1 and %d", MaxPageSize))
		}
		q.PageSize = n
	}
	return q, nil
}

// Offset 分页偏移量
func (q VideoQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	// 越界时取最大值，调用方据此返回空页
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// Limit 每页条数
func (q VideoQuery) Limit() int {
	return q.PageSize
}

// Descending 是否降序
func (q VideoQuery) Descending() bool {
	return q.Order != OrderAsc
}

// HasDurationFilter 是否带时长过滤
func (q VideoQuery) HasDurationFilter() bool {
	return q.MinDuration != nil || q.MaxDuration != nil
}

// HasFileSizeFilter 是否带文件大小过滤
func (q VideoQuery) HasFileSizeFilter() bool {
	return q.MinFileSize != nil || q.MaxFileSize != nil
}

func parseBound(name, raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, invalid(fmt.Sprintf("%s must be a number", name))
	}
	if f < 0 {
		return nil, invalid(fmt.Sprintf("%s must be >= 0", name))
	}
	return &f, nil
}

func parseSizeBound(name, raw string) (*int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, invalid(fmt.Sprintf("%s must be an integer", name))
	}
	if n < 0 {
		return nil, invalid(fmt.Sprintf("%s must be >= 0", name))
	}
	return &n, nil
}

const dateOnly = "2006-01-02"

// parseDate 支持 RFC3339 与 YYYY-MM-DD；endOfDay 为 true 时纯日期取当天最后一刻
func parseDate(name, raw string, endOfDay bool) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(dateOnly, s, time.UTC)
	if err != nil {
		return nil, invalid(fmt.Sprintf("%s must be RFC3339 or YYYY-MM-DD", name))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func invalid(msg string) error {
	return errno.NewBizError(errno.ErrValidation, fmt.Errorf("%s", msg))
}
