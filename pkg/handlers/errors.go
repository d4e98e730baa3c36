package handlers

import (
	"errors"
	"net/http"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/menu"
	"gate-catering-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain and upstream errors to the status sent to the
// dashboard. Upstream 404/409/422 pass through; other upstream failures are
// a bad gateway.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, menu.ErrNoProducts),
		errors.Is(err, menu.ErrUnsupportedFormat),
		errors.Is(err, menu.ErrUnreadableFile),
		errors.Is(err, menu.ErrNoFlight),
		errors.Is(err, services.ErrNoMenu),
		errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoResults),
		errors.Is(err, services.ErrStaleResult):
		return http.StatusConflict
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, services.ErrNoContextAnalysis) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// respondRecord writes an upstream document as-is. A nil record means the
// upstream answered 204.
func respondRecord(c *gin.Context, status int, record []byte) {
	if record == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(status, "application/json; charset=utf-8", record)
}
