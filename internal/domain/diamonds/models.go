package diamonds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Diamond is an item that can be put up for auction.
type Diamond struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	BasePrice decimal.Decimal `json:"base_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
