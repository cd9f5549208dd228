package handler

import (
	"net/http"

	"tuneful/backend/api/middleware"
	"tuneful/backend/common"
	"tuneful/backend/model"
	"tuneful/backend/service"

	"github.com/gin-gonic/gin"
)

type WebHandler struct {
	catalog *service.Catalog
}

func NewWebHandler(catalog *service.Catalog) *WebHandler {
	return &WebHandler{catalog: catalog}
}

// Index renders the files that belong to a song, in song order.
func (h *WebHandler) Index(c *gin.Context) {
	songFiles, err := h.catalog.ListSongFiles(middleware.Session(c))
	if err != nil {
		common.SysErrorContext(c.Request.Context(), "render index: "+err.Error())
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	base := PublicBaseURL(c)
	files := make([]model.FileView, 0, len(songFiles))
	for _, file := range songFiles {
		files = append(files, file.AsDictionary(base))
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"version": common.Version,
		"files":   files,
	})
}
