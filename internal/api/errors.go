package api

import (
	"net/http"
	"strings"

	"newsdesk/internal/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusUnprocessableEntity
	case apperr.EmptyQuery, apperr.Syntax:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Ingestion:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(kind apperr.Kind) string {
	if kind == apperr.Unknown {
		return "INTERNAL"
	}
	return strings.ToUpper(kind.String())
}

// fail writes err with the status its kind maps to. Unclassified errors
// are logged and hidden behind a generic message.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.ReasonOf(err)
	if kind == apperr.Unknown || kind == apperr.Storage {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(statusOf(kind), ErrorResponse{Error: msg, Code: codeOf(kind)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "INVALID_REQUEST"})
}
