package http

import (
	"net/http"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/gin-gonic/gin"
)

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind common.Kind) int {
	switch kind {
	case common.KindConflict:
		return http.StatusConflict
	case common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindBadRequest:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes {"message": ...}. Causes of internal and upstream
// errors are logged, never sent.
func (s *HTTPServer) abortWithError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	if kind == common.KindInternal || kind == common.KindUpstream {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err.Error())
	}
	c.AbortWithStatusJSON(StatusOf(kind), gin.H{"message": common.MessageOf(err)})
}
