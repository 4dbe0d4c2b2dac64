package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/diamonds"
)

// DiamondHandler serves the admin diamond catalog endpoints.
type DiamondHandler struct {
	diamonds *diamonds.Service
	logger   *slog.Logger
}

func NewDiamondHandler(diamondService *diamonds.Service, logger *slog.Logger) *DiamondHandler {
	return &DiamondHandler{diamonds: diamondService, logger: logger}
}

type createDiamondRequest struct {
	Name      string          `json:"name" binding:"required"`
	ImageURL  string          `json:"image_url"`
	BasePrice decimal.Decimal `json:"base_price" binding:"required"`
}

func (h *DiamondHandler) Create(c *gin.Context) {
	var req createDiamondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and base_price are required")
		return
	}

	d, err := h.diamonds.Create(c.Request.Context(), diamonds.CreateDiamondCommand{
		Name:      req.Name,
		ImageURL:  req.ImageURL,
		BasePrice: req.BasePrice,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

func (h *DiamondHandler) List(c *gin.Context) {
	ds, err := h.diamonds.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (h *DiamondHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.diamonds.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type updateDiamondRequest struct {
	Name      string           `json:"name"`
	ImageURL  string           `json:"image_url"`
	BasePrice *decimal.Decimal `json:"base_price"`
}

func (h *DiamondHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateDiamondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	d, err := h.diamonds.Update(c.Request.Context(), diamonds.UpdateDiamondCommand{
		DiamondID: id,
		Name:      req.Name,
		ImageURL:  req.ImageURL,
		BasePrice: req.BasePrice,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
