package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Skip  int
	Limit int
}

// Normalize clamps out-of-range values to the defaults
func (p PaginationParams) Normalize() PaginationParams {
	if p.Skip < 0 {
		p.Skip = constants.DefaultSkip
	}
	if p.Limit < constants.MinPageSize || p.Limit > constants.MaxPageSize {
		p.Limit = constants.DefaultPageSize
	}
	return p
}

// HasMore reports whether rows remain after the page described by p
func (p PaginationParams) HasMore(total int64) bool {
	return int64(p.Skip)+int64(p.Limit) < total
}

// ParseIDParam reads a positive integer path parameter
func ParseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
