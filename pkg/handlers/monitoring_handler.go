package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"gate-catering-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler serves the request dashboard.
type MonitoringHandler struct {
	Service *services.MonitoringService
}

func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// periodHours parses "1h", "24h", "7d" and other "<n>h"/"<n>d" values,
// defaulting to 24 hours.
func periodHours(period string) int {
	period = strings.TrimSpace(period)
	if len(period) < 2 {
		return 24
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n <= 0 {
		return 24
	}
	switch period[len(period)-1] {
	case 'h':
		if n > 24*30 {
			return 24 * 30
		}
		return n
	case 'd':
		if n > 30 {
			n = 30
		}
		return n * 24
	}
	return 24
}

// GetLogs returns the aggregated request log.
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	data := h.Service.GetDashboardData(periodHours(c.DefaultQuery("period", "24h")))
	c.JSON(http.StatusOK, data)
}
