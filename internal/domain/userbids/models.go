package userbids

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/diamonds"
)

// UserBid is a user's single standing bid on an auction. It is mutated in
// place on repeat bids; every edit leaves a BidHistory row behind.
type UserBid struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BidHistory is an immutable audit record of one amount change.
type BidHistory struct {
	ID        uuid.UUID       `json:"id"`
	UserBidID uuid.UUID       `json:"user_bid_id"`
	OldAmount decimal.Decimal `json:"old_amount"`
	NewAmount decimal.Decimal `json:"new_amount"`
	EditedAt  time.Time       `json:"edited_at"`
}

// AuctionSummary is the auction snapshot attached to a user's bid listing.
type AuctionSummary struct {
	ID           uuid.UUID         `json:"id"`
	Status       auctions.Status   `json:"status"`
	BaseBidPrice decimal.Decimal   `json:"base_bid_price"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	Diamond      *diamonds.Diamond `json:"diamond,omitempty"`
}

// MyBid is a user bid joined with its auction and diamond.
type MyBid struct {
	UserBid
	Auction *AuctionSummary `json:"auction,omitempty"`
}
