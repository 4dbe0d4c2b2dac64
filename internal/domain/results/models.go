package results

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/diamonds"
)

// Result is the declared outcome of an auction. Exactly one per auction,
// immutable once written.
type Result struct {
	ID            uuid.UUID       `json:"id"`
	AuctionID     uuid.UUID       `json:"auction_id"`
	WinnerUserID  uuid.UUID       `json:"winner_user_id"`
	WinningAmount decimal.Decimal `json:"winning_amount"`
	DeclaredAt    time.Time       `json:"declared_at"`
}

// Outcome of an auction from one participant's point of view.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLose Outcome = "LOSE"
)

// AuctionSummary is the auction snapshot attached to a user's result view.
type AuctionSummary struct {
	ID           uuid.UUID         `json:"id"`
	BaseBidPrice decimal.Decimal   `json:"base_bid_price"`
	Diamond      *diamonds.Diamond `json:"diamond,omitempty"`
}

// MyResult is a declared result as seen by one participant.
type MyResult struct {
	AuctionID     uuid.UUID       `json:"auction_id"`
	Status        Outcome         `json:"status"`
	WinningAmount decimal.Decimal `json:"winning_amount"`
	WinnerName    string          `json:"winner_name"`
	Auction       *AuctionSummary `json:"auction,omitempty"`
}
