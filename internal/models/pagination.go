package models

import "math"

const (
	DefaultPageLimit = 10
	MinPageLimit     = 5
	MaxPageLimit     = 50

	// MaxPage keeps (page-1)*limit inside int32 so offsets never overflow.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NormalizePage clamps page to [1, MaxPage] and limit to [MinPageLimit, MaxPageLimit]. A
// zero limit means the caller did not ask for one.
func NormalizePage(page, limit int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case limit == 0:
		limit = DefaultPageLimit
	case limit < MinPageLimit:
		limit = MinPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return page, limit
}

// PageOffset is the number of rows skipped before page. Inputs are normalised first.
func PageOffset(page, limit int) int {
	page, limit = NormalizePage(page, limit)
	return (page - 1) * limit
}

// NewPagination derives page counts for a total.
func NewPagination(page, limit, total int) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
