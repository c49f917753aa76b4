package repository

import (
	"strings"

	"storefront-api/internal/domain"
)

const DefaultPageSize = 10

// SortOrder represents the sort direction over price.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
	SortOrderNone SortOrder = ""
)

// ListParams carries the pagination and filter inputs of a product
// listing request.
type ListParams struct {
	Limit    int
	Page     int
	Sort     SortOrder
	Query    string
	Category string
	Status   *bool
}

// Normalize clamps limit and page to their minimums and fills defaults.
func (p *ListParams) Normalize() {
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	switch SortOrder(strings.ToLower(string(p.Sort))) {
	case SortOrderAsc:
		p.Sort = SortOrderAsc
	case SortOrderDesc:
		p.Sort = SortOrderDesc
	default:
		p.Sort = SortOrderNone
	}
}

// Filter is the resolved filter expression of a listing request.
type Filter struct {
	Category    string
	Status      *bool
	InStockOnly bool
}

// Filter resolves the free-text query grammar: "category:<v>",
// "status:<v>", the literal "available" (active and in stock), or a
// bare value treated as a category. Explicit category/status parameters
// take precedence over the parsed query.
func (p ListParams) Filter() Filter {
	var f Filter

	q := strings.TrimSpace(p.Query)
	switch {
	case q == "":
	case strings.HasPrefix(q, "category:"):
		f.Category = strings.TrimPrefix(q, "category:")
	case strings.HasPrefix(q, "status:"):
		v := strings.TrimPrefix(q, "status:") == "true"
		f.Status = &v
	case q == "available":
		v := true
		f.Status = &v
		f.InStockOnly = true
	default:
		f.Category = q
	}

	if c := strings.TrimSpace(p.Category); c != "" {
		f.Category = c
	}
	if p.Status != nil {
		f.Status = p.Status
	}
	return f
}

// Matches reports whether a product satisfies the filter; the in-memory
// file backend evaluates it per record, the mongo backend translates it
// into a find filter instead.
func (f Filter) Matches(p domain.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.InStockOnly && p.Stock <= 0 {
		return false
	}
	return true
}

// Page is one bounded slice of a product listing plus its pagination
// metadata. Prev/Next are nil on the respective boundary pages.
type Page struct {
	Items       []domain.Product
	Total       int64
	TotalPages  int
	Page        int
	Limit       int
	HasPrevPage bool
	HasNextPage bool
	PrevPage    *int
	NextPage    *int
}

// NewPage fills the derived pagination metadata for a result slice.
// totalPages is never below 1, so an empty collection still reports one
// (empty) page.
func NewPage(items []domain.Product, total int64, params ListParams) *Page {
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	if totalPages < 1 {
		totalPages = 1
	}

	page := &Page{
		Items:       items,
		Total:       total,
		TotalPages:  totalPages,
		Page:        params.Page,
		Limit:       params.Limit,
		HasPrevPage: params.Page > 1,
		HasNextPage: params.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := params.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := params.Page + 1
		page.NextPage = &next
	}
	return page
}
