package middleware

import (
	"mime"
	"strconv"
	"strings"

	"tuneful/backend/common"
	apierrors "tuneful/backend/common/errors"

	"github.com/gin-gonic/gin"
)

// Accept aborts with 406 unless the request's Accept header admits mimetype.
func Accept(mimetype string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !accepts(c.Request.Header.Values("Accept"), mimetype) {
			common.AbortWithError(c, apierrors.New(apierrors.ErrUnacceptableMedia, "Request must accept %s data", mimetype))
			return
		}
		c.Next()
	}
}

// Require aborts with 415 unless the request body is of mimetype.
// Content-Type parameters such as charset or boundary are ignored.
func Require(mimetype string) gin.HandlerFunc {
	return func(c *gin.Context) {
		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || !strings.EqualFold(mediaType, mimetype) {
			common.AbortWithError(c, apierrors.New(apierrors.ErrUnsupportedMediaType, "Request must contain %s data", mimetype))
			return
		}
		c.Next()
	}
}

// accepts reports whether any media range in headers matches mimetype with
// a non-zero quality. A missing or blank Accept header means anything goes.
func accepts(headers []string, mimetype string) bool {
	if strings.TrimSpace(strings.Join(headers, "")) == "" {
		return true
	}
	wantType, wantSub, _ := strings.Cut(strings.ToLower(mimetype), "/")
	for _, header := range headers {
		for _, part := range strings.Split(header, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			mediaRange, params, err := mime.ParseMediaType(part)
			if err != nil {
				continue
			}
			if q, ok := params["q"]; ok {
				if weight, err := strconv.ParseFloat(q, 64); err != nil || weight <= 0 {
					continue
				}
			}
			rangeType, rangeSub, _ := strings.Cut(mediaRange, "/")
			if rangeType == "*" && rangeSub == "*" {
				return true
			}
			if rangeType == wantType && (rangeSub == "*" || rangeSub == wantSub) {
				return true
			}
		}
	}
	return false
}
