package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/auctions"
)

// AuctionHandler serves both the admin lifecycle endpoints and the public
// browsing endpoints.
type AuctionHandler struct {
	auctions *auctions.Service
	logger   *slog.Logger
}

func NewAuctionHandler(auctionService *auctions.Service, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{auctions: auctionService, logger: logger}
}

type createAuctionRequest struct {
	DiamondID    string          `json:"diamond_id" binding:"required"`
	BaseBidPrice decimal.Decimal `json:"base_bid_price" binding:"required"`
	StartTime    time.Time       `json:"start_time" binding:"required"`
	EndTime      time.Time       `json:"end_time" binding:"required"`
}

func (h *AuctionHandler) Create(c *gin.Context) {
	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "diamond_id, base_bid_price, start_time and end_time are required")
		return
	}

	diamondID, err := uuid.Parse(req.DiamondID)
	if err != nil {
		badRequest(c, "invalid diamond_id")
		return
	}

	detail, err := h.auctions.Create(c.Request.Context(), auctions.CreateAuctionCommand{
		DiamondID:    diamondID,
		BaseBidPrice: req.BaseBidPrice,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, detail)
}

func (h *AuctionHandler) List(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		details, err := h.auctions.ListByStatus(c.Request.Context(), auctions.Status(status))
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, details)
		return
	}

	details, err := h.auctions.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *AuctionHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.auctions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type updateAuctionRequest struct {
	BaseBidPrice *decimal.Decimal `json:"base_bid_price"`
	StartTime    *time.Time       `json:"start_time"`
	EndTime      *time.Time       `json:"end_time"`
}

func (h *AuctionHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	detail, err := h.auctions.Update(c.Request.Context(), auctions.UpdateAuctionCommand{
		AuctionID:    id,
		BaseBidPrice: req.BaseBidPrice,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *AuctionHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.auctions.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuctionHandler) Activate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.auctions.Activate(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *AuctionHandler) Close(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.auctions.Close(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *AuctionHandler) Statistics(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	stats, err := h.auctions.Statistics(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListActive serves the user-facing listing of auctions open for bidding.
func (h *AuctionHandler) ListActive(c *gin.Context) {
	details, err := h.auctions.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *AuctionHandler) GetActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.auctions.GetActive(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *AuctionHandler) ListUpcoming(c *gin.Context) {
	details, err := h.auctions.ListUpcoming(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *AuctionHandler) ListRecentlyClosed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	details, err := h.auctions.ListRecentlyClosed(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}
