package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facetlabs/facet/internal/domain/monitor"
)

// MonitorHandler serves the admin monitoring view.
type MonitorHandler struct {
	monitor *monitor.Service
	logger  *slog.Logger
}

func NewMonitorHandler(monitorService *monitor.Service, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{monitor: monitorService, logger: logger}
}

func (h *MonitorHandler) List(c *gin.Context) {
	monitors, err := h.monitor.ListAuctionMonitors(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, monitors)
}
