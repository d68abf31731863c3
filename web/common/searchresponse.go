package common

type Pagination struct {
	Total int64 `json:"total"`
	// Limit is the page size the caller asked for, when there was one.
	Limit int `json:"limit,omitempty"`
}

type SearchResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func NewSearchResponse(data interface{}, total int64) *SearchResponse {
	return &SearchResponse{
		Data: data,
		Pagination: Pagination{
			Total: total,
		},
	}
}

func (r *SearchResponse) WithLimit(limit int) *SearchResponse {
	r.Pagination.Limit = limit
	return r
}
