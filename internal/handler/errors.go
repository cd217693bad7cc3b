package handler

import (
	"net/http"

	"credit-api/internal/apperror"
	"credit-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// errorStatus maps a service error to its HTTP status code
func errorStatus(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindInvalidArgument:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status its kind maps to.
// Store failures are reported without their driver cause.
func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
		if apperror.KindOf(err) == apperror.KindStoreUnavailable {
			msg = "store unavailable"
		}
	}
	c.JSON(status, response.Error(status, msg))
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
