package models

// Pagination contains offset pagination metadata returned in list responses.
type Pagination struct {
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
}
