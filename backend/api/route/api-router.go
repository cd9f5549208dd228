package route

import (
	"tuneful/backend/api/handler"
	"tuneful/backend/api/middleware"
	"tuneful/backend/common"
	"tuneful/backend/service"

	"github.com/gin-gonic/gin"
)

func SetApiRouter(route *gin.Engine, catalog *service.Catalog) {
	songs := handler.NewSongHandler(catalog)
	files := handler.NewFileHandler(catalog)
	acceptJSON := middleware.Accept(common.MimeJSON)

	apiRouter := route.Group("/api")
	apiRouter.Use(middleware.GlobalAPIRateLimit())
	{
		songRoute := apiRouter.Group("/songs")
		{
			songRoute.GET("", acceptJSON, songs.GetSongs)
			songRoute.POST("", acceptJSON, middleware.Require(common.MimeJSON), songs.CreateSong)
			songRoute.GET("/:id", acceptJSON, songs.GetSong)
			songRoute.PUT("/:id", acceptJSON, middleware.Require(common.MimeJSON), songs.UpdateSong)
			songRoute.DELETE("/:id", acceptJSON, songs.DeleteSong)
		}
		fileRoute := apiRouter.Group("/files")
		{
			fileRoute.GET("", acceptJSON, files.GetFiles)
			fileRoute.POST("", acceptJSON, middleware.Require(common.MimeMultipart), files.UploadFile)
		}
	}

	route.GET("/uploads/*filename", files.DownloadFile)
}
