package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/posorder/internal/server/http/middleware"
)

// IdempotencyKeyHeader lets clients retry a cart mutation without applying it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// CurrentStaffID extracts the authenticated staff member from context.
func CurrentStaffID(c *gin.Context) string {
	return c.GetString(middleware.StaffIDContextKey)
}

func idempotencyKey(c *gin.Context) string {
	return c.GetHeader(IdempotencyKeyHeader)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
