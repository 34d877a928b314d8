package query

import "transcription-service/ddd/domain/entity"

// Result 一页查询结果，Total 为过滤后分页前的总数
type Result struct {
	Items []*entity.Video
	Total int64
}

// PageInfo 分页元数据
type PageInfo struct {
	TotalCount  int64
	Page        int
	PageSize    int
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// NewPageInfo 计算分页元数据
func NewPageInfo(total int64, page, pageSize int) PageInfo {
	info := PageInfo{TotalCount: total, Page: page, PageSize: pageSize}
	if pageSize > 0 && total > 0 {
		pages := total / int64(pageSize)
		if total%int64(pageSize) != 0 {
			pages++
		}
		info.TotalPages = int(pages)
		// page*pageSize < total 等价于 page < 总页数，避免乘法溢出
		info.HasNext = int64(page) < pages
	}
	info.HasPrevious = page > 1
	return info
}
