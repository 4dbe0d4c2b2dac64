package auctions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/diamonds"
)

// Status of an auction. Transitions are monotonic:
// DRAFT -> ACTIVE -> CLOSED, never backward.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

// IsValid checks if the status is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusClosed:
		return true
	default:
		return false
	}
}

// Auction is a time-boxed sale event for one diamond.
type Auction struct {
	ID           uuid.UUID       `json:"id"`
	DiamondID    uuid.UUID       `json:"diamond_id"`
	BaseBidPrice decimal.Decimal `json:"base_bid_price"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Statistics is a read-only aggregate over the user bids of one auction.
type Statistics struct {
	TotalParticipants int64           `json:"total_participants"`
	HighestBid        decimal.Decimal `json:"highest_bid"`
	LowestBid         decimal.Decimal `json:"lowest_bid"`
	AverageBid        decimal.Decimal `json:"average_bid"`
}

// Detail is an auction enriched for API responses.
type Detail struct {
	Auction
	Diamond         *diamonds.Diamond `json:"diamond,omitempty"`
	Statistics      Statistics        `json:"statistics"`
	ResultDeclared  bool              `json:"result_declared"`
	TimeRemainingMS int64             `json:"time_remaining_ms,omitempty"`
}
