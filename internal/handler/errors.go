package handler

import (
	"errors"
	"net/http"

	"storecore/internal/logging"
	"storecore/internal/service"
	"storecore/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrSequenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOrderNotDraft),
		errors.Is(err, service.ErrOrderNotConfirmed),
		errors.Is(err, service.ErrInvoiceExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrSequenceContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = "The store is busy, please try again"
	case http.StatusInternalServerError:
		logging.FromContext(c.Request.Context(), nil).Error("request failed", zap.Error(err))
		msg = "Internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, response.Error(status, msg))
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}
