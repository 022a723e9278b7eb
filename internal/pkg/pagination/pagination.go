package pagination

import (
	"microloan/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is the page window requested by ?page=&limit=
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Meta describes the returned window of a list
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// GetParams reads the page window from the query string. Out of range or
// malformed values fall back to page 1 and DefaultLimit; limit is capped at MaxLimit.
func GetParams(c *fiber.Ctx) *Params {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", DefaultLimit)
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return &Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// ToPage converts the params to a repository page
func (p *Params) ToPage() domain.Page {
	return domain.Page{Offset: p.Offset, Limit: p.Limit}
}

// GetMeta builds list metadata for total matching rows
func GetMeta(params *Params, total int64) *Meta {
	pages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return &Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    params.Page < pages,
		HasPrev:    params.Page > 1,
	}
}
