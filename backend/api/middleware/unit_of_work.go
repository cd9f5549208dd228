package middleware

import (
	"tuneful/backend/common"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UnitOfWork gives each request its own session bound to the request
// context. Handlers read it back with Session.
func UnitOfWork(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(common.KeyDBSession, db.WithContext(c.Request.Context()))
		c.Next()
	}
}

func Session(c *gin.Context) *gorm.DB {
	return c.MustGet(common.KeyDBSession).(*gorm.DB)
}
