package handler

import (
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// parsePagination reads limit/offset query params with defaults and a
// hard cap on limit. Bad values fall back to the defaults.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	offset = 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
