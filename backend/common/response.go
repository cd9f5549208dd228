package common

import (
	"fmt"
	"net/http"
	"strings"

	apierrors "tuneful/backend/common/errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/blake2b"
)

// MessageResponse is the body of every non-resource API response.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespMessage responds with {"message": msg}.
func RespMessage(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, MessageResponse{Message: msg})
}

// RespAbort responds with {"message": msg} and stops the handler chain.
func RespAbort(c *gin.Context, statusCode int, msg string) {
	c.AbortWithStatusJSON(statusCode, MessageResponse{Message: msg})
}

// RespError surfaces a CatalogError with its own status. Anything else is
// logged and reported as an internal error. The code is kept on the context
// for the access log.
func RespError(c *gin.Context, err error) {
	c.Set(KeyErrorCode, apierrors.CodeOf(err))
	if catalogErr, ok := apierrors.As(err); ok {
		RespMessage(c, catalogErr.Status(), catalogErr.Error())
		return
	}
	SysErrorContext(c.Request.Context(), fmt.Sprintf("%s %s failed: %s", c.Request.Method, c.Request.URL.Path, err.Error()))
	RespMessage(c, http.StatusInternalServerError, "internal server error")
}

// AbortWithError is RespError for middleware: the rest of the chain is skipped.
func AbortWithError(c *gin.Context, err error) {
	RespError(c, err)
	c.Abort()
}

// ETag returns a strong entity tag for body.
func ETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return fmt.Sprintf("\"%x\"", sum[:16])
}

// RespJSONWithETag writes an already encoded JSON body with an ETag and
// answers 304 when the client's If-None-Match already names it.
func RespJSONWithETag(c *gin.Context, statusCode int, body []byte) {
	tag := ETag(body)
	c.Header("ETag", tag)
	if etagMatches(c.GetHeader("If-None-Match"), tag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(statusCode, "application/json; charset=utf-8", body)
}

func etagMatches(header string, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}
