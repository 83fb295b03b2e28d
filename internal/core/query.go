package core

// Pagination bounds for transaction listings.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// TransactionFilter selects transactions for sums and scans.
// Zero values mean "no constraint". Voided rows are excluded unless
// IncludeVoided is set for audit views.
type TransactionFilter struct {
	Range         DateRange
	Type          TransactionType
	CategoryID    string
	StudentID     string
	PaymentMethod PaymentMethod
	IncludeVoided bool
}

// PageRequest is a 1-based page of a listing.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize applies defaults to zero fields and rejects out-of-range values.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		return PageRequest{}, Validation("Page must be at least 1")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return PageRequest{}, Validation("Limit must be between 1 and 100")
	}
	return p, nil
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta describes a page within a listing.
type PageMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPageMeta computes TotalPages as ceil(total/limit).
func NewPageMeta(total, page, limit int) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Page is one page of results plus its metadata.
type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Class  string
	Status StudentStatus
	Search string
}
