package models

import (
	"fmt"

	"github.com/saufi-opi/mini-emr/pkg/query"
)

// ListQuery carries the pagination, sort and search inputs shared by list endpoints.
type ListQuery struct {
	Pagination query.Pagination
	Sort       query.Sort
	Search     string
}

// CacheKey renders the query as a stable cache key suffix.
func (q ListQuery) CacheKey() string {
	return fmt.Sprintf("skip=%d:limit=%d:sort=%s:q=%s", q.Pagination.Skip, q.Pagination.Limit, q.Sort.Raw, q.Search)
}
