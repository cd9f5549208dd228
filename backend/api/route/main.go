package route

import (
	"tuneful/backend/api/middleware"
	"tuneful/backend/common"
	"tuneful/backend/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetRouter(route *gin.Engine, db *gorm.DB, catalog *service.Catalog) error {
	route.Use(middleware.GzipDecodeMiddleware())
	if common.EnableGzip {
		route.Use(middleware.GzipEncodeMiddleware())
	}
	route.Use(middleware.UnitOfWork(db))

	SetApiRouter(route, catalog)
	return setWebRouter(route, catalog)
}
