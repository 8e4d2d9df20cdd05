package utils

import (
	"strconv"
	"strings"
)

// ParsePage converts a page query value, falling back to 1 for anything
// missing, unparseable or below 1.
func ParsePage(s string) int {
	page, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// PageWindow returns the [start, end) slice bounds of page within total
// items and whether items remain after it.
func PageWindow(total, page, pageSize int) (start, end int, hasMore bool) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	// 页码超出范围时直接返回空页，避免乘法溢出
	if page-1 > total/pageSize {
		return total, total, false
	}
	start = (page - 1) * pageSize
	end = start + pageSize
	hasMore = total > end
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return start, end, hasMore
}

// TrimPage handles the fetch-pageSize+1 pattern: it drops the probe row and
// reports whether it was present.
func TrimPage[T any](rows []T, pageSize int) ([]T, bool) {
	if len(rows) > pageSize {
		return rows[:pageSize], true
	}
	return rows, false
}
