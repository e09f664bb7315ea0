package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetPaginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	return page, pageSize
}

type PageMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type Paginated[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// Paginate returns one page of items. Pages past the end are empty.
func Paginate[T any](items []T, page, pageSize int) Paginated[T] {
	total := len(items)
	offset := (page - 1) * pageSize
	end := min(offset+pageSize, total)

	data := []T{}
	if offset < total {
		data = items[offset:end]
	}
	return Paginated[T]{
		Data: data,
		Meta: PageMeta{
			Total:       int64(total),
			CurrentPage: page,
			PerPage:     pageSize,
			TotalPage:   (total + pageSize - 1) / pageSize,
		},
	}
}
