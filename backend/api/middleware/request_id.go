package middleware

import (
	"strings"

	"tuneful/backend/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestId echoes the caller's X-Request-Id or assigns a new one.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(common.KeyRequestId))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(common.KeyRequestId, id)
		c.Request = c.Request.WithContext(common.WithRequestId(c.Request.Context(), id))
		c.Header(common.KeyRequestId, id)
		c.Next()
	}
}
