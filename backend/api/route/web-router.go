package route

import (
	"fmt"

	"tuneful/backend/api/handler"
	"tuneful/backend/service"
	"tuneful/web"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

func setWebRouter(route *gin.Engine, catalog *service.Catalog) error {
	templates, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	route.SetHTMLTemplate(templates)
	route.Use(static.Serve("/static", static.EmbedFolder(web.FS, "static")))

	pages := handler.NewWebHandler(catalog)
	route.GET("/", pages.Index)
	return nil
}
