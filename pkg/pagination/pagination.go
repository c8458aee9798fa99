// Copyright (c) 2026 Bloomify. All rights reserved.

// Package pagination reads "page" and "limit" from a query string and builds
// the "meta" block of list responses.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20

	// MaxLimit caps oversized requests instead of rejecting them.
	MaxLimit = 100
)

// Params is a 1-indexed page window.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of items before the window.
func (p Params) Offset() int {
	return max(p.Page-1, 0) * p.Limit
}

// Meta describes a window over Total items.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewMeta derives the page count from total and limit.
func NewMeta(page, limit, total int) Meta {
	meta := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = (total + limit - 1) / limit
	}
	meta.HasMore = page < meta.TotalPages
	return meta
}

/*
FromRequest parses the window from the query string.

Garbage falls back to the defaults, a limit above [MaxLimit] is clamped.
*/
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	limit, err := strconv.Atoi(query.Get("limit"))
	switch {
	case err != nil || limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}
