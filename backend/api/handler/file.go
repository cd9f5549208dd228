package handler

import (
	"net/http"
	"strconv"
	"strings"

	"tuneful/backend/api/middleware"
	"tuneful/backend/common"
	apierrors "tuneful/backend/common/errors"
	"tuneful/backend/model"
	"tuneful/backend/service"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	catalog *service.Catalog
}

func NewFileHandler(catalog *service.Catalog) *FileHandler {
	return &FileHandler{catalog: catalog}
}

// PublicBaseURL is the origin download links are built on: SERVER_ADDRESS
// when configured, otherwise the address the client used. X-Forwarded-Proto
// only counts when TRUST_PROXY_HEADERS is set.
func PublicBaseURL(c *gin.Context) string {
	if common.ServerAddress != "" {
		return common.ServerAddress
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" && common.TrustProxyHeaders {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + c.Request.Host
}

func (h *FileHandler) UploadFile(c *gin.Context) {
	part, header, err := c.Request.FormFile("file")
	if err != nil {
		common.RespError(c, apierrors.Wrap(err, apierrors.ErrMissingUploadField, "Could not find file data"))
		return
	}
	defer part.Close()

	file, err := h.catalog.UploadFile(c.Request.Context(), middleware.Session(c), header.Filename, part)
	if err != nil {
		common.RespError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file.AsDictionary(PublicBaseURL(c)))
}

func (h *FileHandler) GetFiles(c *gin.Context) {
	files, err := h.catalog.ListFiles(middleware.Session(c))
	if err != nil {
		common.RespError(c, err)
		return
	}
	base := PublicBaseURL(c)
	views := make([]model.FileView, 0, len(files))
	for _, file := range files {
		views = append(views, file.AsDictionary(base))
	}
	c.JSON(http.StatusOK, views)
}

// DownloadFile streams an uploaded blob back by its stored name.
func (h *FileHandler) DownloadFile(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filename"), "/")
	blob, err := h.catalog.OpenUpload(c.Request.Context(), name)
	if err != nil {
		common.RespError(c, err)
		return
	}
	defer blob.Body.Close()

	extra := map[string]string{}
	if !blob.ModTime.IsZero() {
		extra["Last-Modified"] = blob.ModTime.UTC().Format(http.TimeFormat)
	}
	extra["Content-Disposition"] = "inline; filename=" + strconv.Quote(name)
	c.DataFromReader(http.StatusOK, blob.Size, blob.ContentType, blob.Body, extra)
}
