package common

import (
	"net/http"
	"strconv"
)

// PageParams is the limit/offset window requested by a list endpoint.
type PageParams struct {
	Limit  int
	Offset int
}

// Pagination is returned next to a page of rows.
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// Paginate describes a page of n rows out of total.
func (p PageParams) Paginate(n int, total int64) Pagination {
	return Pagination{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Total:   total,
		HasMore: int64(p.Offset+n) < total,
	}
}

// ParsePage reads ?limit= and ?offset=. Invalid values fall back to the
// defaults and limit never exceeds maxLimit.
func ParsePage(r *http.Request, defaultLimit, maxLimit int) PageParams {
	p := PageParams{Limit: defaultLimit}
	q := r.URL.Query()
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		p.Limit = l
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o > 0 {
		p.Offset = o
	}
	return p
}
