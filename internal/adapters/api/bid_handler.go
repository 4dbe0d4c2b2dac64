package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/userbids"
)

// BidHandler serves the user bid ledger endpoints.
type BidHandler struct {
	bids   *userbids.Service
	logger *slog.Logger
}

func NewBidHandler(bidService *userbids.Service, logger *slog.Logger) *BidHandler {
	return &BidHandler{bids: bidService, logger: logger}
}

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// Place handles POST /auctions/:id/bids. A first bid returns 201, a raise 200.
func (h *BidHandler) Place(c *gin.Context) {
	auctionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount is required")
		return
	}

	result, err := h.bids.PlaceOrUpdate(c.Request.Context(), userbids.PlaceBidCommand{
		UserID:    userID,
		AuctionID: auctionID,
		Amount:    req.Amount,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.Updated {
		status = http.StatusOK
	}
	c.JSON(status, result.Bid)
}

func (h *BidHandler) MyBids(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	bids, err := h.bids.MyBids(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

func (h *BidHandler) History(c *gin.Context) {
	bidID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	history, err := h.bids.History(c.Request.Context(), userID, bidID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
