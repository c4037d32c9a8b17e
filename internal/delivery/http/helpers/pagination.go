package helpers

import (
	"net/http"
	"strconv"
)

// Feed pagination defaults and limits.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ParseLimitOffset reads limit and offset from the request query string,
// clamps them to valid ranges, and returns them. Invalid or missing values
// fall back to defaults.
func ParseLimitOffset(r *http.Request) (limit, offset int) {
	limit = DefaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			limit = v
			if limit > MaxLimit {
				limit = MaxLimit
			}
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
