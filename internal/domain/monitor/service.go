// Package monitor assembles the admin monitoring view: every auction with
// its diamond, all standing user bids with bidder identity, and the current
// highest bid.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/diamonds"
)

// Bidder identifies a participant in the monitoring view.
type Bidder struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Entry is one user's standing bid with its bidder.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Bidder    Bidder          `json:"user"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuctionMonitor is the full monitoring row for one auction.
type AuctionMonitor struct {
	AuctionID         uuid.UUID         `json:"auction_id"`
	Status            auctions.Status   `json:"status"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	BaseBidPrice      decimal.Decimal   `json:"base_bid_price"`
	Diamond           *diamonds.Diamond `json:"diamond,omitempty"`
	HighestBid        *Entry            `json:"highest_bid,omitempty"`
	AllBids           []*Entry          `json:"all_bids"`
	TotalParticipants int64             `json:"total_participants"`
}

// AuctionLister returns all auctions, newest first.
type AuctionLister interface {
	List(ctx context.Context) ([]*auctions.Auction, error)
}

// DiamondReader resolves the auctioned diamond.
type DiamondReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*diamonds.Diamond, error)
}

// EntryLister returns an auction's bids with bidder identity.
type EntryLister interface {
	ListEntriesByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Entry, error)
}

// Service builds the monitoring view.
type Service struct {
	auctions AuctionLister
	diamonds DiamondReader
	entries  EntryLister
}

func NewService(auctionLister AuctionLister, diamondReader DiamondReader, entryLister EntryLister) *Service {
	return &Service{
		auctions: auctionLister,
		diamonds: diamondReader,
		entries:  entryLister,
	}
}

// ListAuctionMonitors returns the monitoring row for every auction,
// newest first.
func (s *Service) ListAuctionMonitors(ctx context.Context) ([]*AuctionMonitor, error) {
	as, err := s.auctions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}

	monitors := make([]*AuctionMonitor, 0, len(as))
	for _, a := range as {
		entries, err := s.entries.ListEntriesByAuctionID(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bids for auction %s: %w", a.ID, err)
		}

		m := &AuctionMonitor{
			AuctionID:         a.ID,
			Status:            a.Status,
			StartTime:         a.StartTime,
			EndTime:           a.EndTime,
			BaseBidPrice:      a.BaseBidPrice,
			AllBids:           entries,
			HighestBid:        highest(entries),
			TotalParticipants: int64(len(entries)),
		}

		if d, derr := s.diamonds.GetByID(ctx, a.DiamondID); derr == nil {
			m.Diamond = d
		}

		monitors = append(monitors, m)
	}
	return monitors, nil
}

func highest(entries []*Entry) *Entry {
	var top *Entry
	for _, e := range entries {
		if top == nil || e.Amount.GreaterThan(top.Amount) {
			top = e
		}
	}
	return top
}
