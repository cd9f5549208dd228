package middleware

import (
	"time"

	"tuneful/backend/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "If-None-Match", common.KeyRequestId}
	config.ExposeHeaders = []string{"Location", "ETag", common.KeyRequestId}
	config.MaxAge = 12 * time.Hour
	return cors.New(config)
}
