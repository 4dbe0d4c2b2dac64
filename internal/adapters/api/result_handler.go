package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facetlabs/facet/internal/domain/results"
)

// ResultHandler serves result declaration and the participant result views.
type ResultHandler struct {
	results *results.Service
	logger  *slog.Logger
}

func NewResultHandler(resultService *results.Service, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{results: resultService, logger: logger}
}

// Declare handles POST /admin/auctions/:id/result.
func (h *ResultHandler) Declare(c *gin.Context) {
	auctionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.results.Declare(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ResultHandler) MyResults(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	mine, err := h.results.ListMyResults(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, mine)
}

func (h *ResultHandler) MyResult(c *gin.Context) {
	auctionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	mine, err := h.results.MyResult(c.Request.Context(), userID, auctionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, mine)
}
