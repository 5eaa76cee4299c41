package services

import "math"

// MaxPage bounds a requested page number.
const MaxPage = 100000

// Pagination describes one page of a listing.
type Pagination struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
	NextPage    *int  `json:"next_page"`
	PrevPage    *int  `json:"prev_page"`
}

// Paginate computes page metadata. currentPage below 1 is treated as 1 and
// pages past MaxPage as MaxPage, so Offset never overflows.
func Paginate(totalItems int64, currentPage, perPage int) Pagination {
	if perPage < 1 {
		perPage = 1
	}
	if perPage > math.MaxInt/MaxPage {
		perPage = math.MaxInt / MaxPage
	}
	currentPage = min(max(currentPage, 1), MaxPage)

	totalPages := int((totalItems + int64(perPage) - 1) / int64(perPage))
	p := Pagination{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		PerPage:     perPage,
		HasNextPage: currentPage < totalPages,
		HasPrevPage: currentPage > 1,
	}
	if p.HasNextPage {
		next := currentPage + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := currentPage - 1
		p.PrevPage = &prev
	}
	return p
}

// Offset is the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.PerPage
}
