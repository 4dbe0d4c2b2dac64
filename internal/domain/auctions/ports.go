package auctions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/diamonds"
)

// Repository defines the interface for auction persistence.
type Repository interface {
	Create(ctx context.Context, a *Auction) error

	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)

	// GetOpenByDiamondID returns the diamond's DRAFT or ACTIVE auction, or
	// (nil, nil) when it has none. Closed auctions never count.
	GetOpenByDiamondID(ctx context.Context, diamondID uuid.UUID) (*Auction, error)

	Update(ctx context.Context, a *Auction) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	Delete(ctx context.Context, id uuid.UUID) error

	// List returns all auctions, newest first.
	List(ctx context.Context) ([]*Auction, error)

	// ListByStatus returns auctions in one status, earliest start first.
	ListByStatus(ctx context.Context, status Status) ([]*Auction, error)

	// ListActive returns ACTIVE auctions whose window contains now,
	// soonest-ending first.
	ListActive(ctx context.Context, now time.Time) ([]*Auction, error)

	// ListUpcoming returns DRAFT auctions starting after now, earliest first.
	ListUpcoming(ctx context.Context, now time.Time) ([]*Auction, error)

	// ListRecentlyClosed returns up to limit CLOSED auctions, latest-ending first.
	ListRecentlyClosed(ctx context.Context, limit int) ([]*Auction, error)

	// SyncStatuses applies the time-based bulk transitions against now:
	// DRAFT -> ACTIVE once start_time is reached, ACTIVE -> CLOSED once
	// end_time is reached. Idempotent and safe to run concurrently.
	SyncStatuses(ctx context.Context, now time.Time) error
}

// DiamondReader resolves the diamond an auction sells.
type DiamondReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*diamonds.Diamond, error)
}

// LedgerReader exposes the user-bid amounts needed for statistics and the
// delete guard.
type LedgerReader interface {
	CountByAuctionID(ctx context.Context, auctionID uuid.UUID) (int64, error)
	ListAmountsByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]decimal.Decimal, error)
}

// ResultReader reports whether a result has been declared for an auction.
type ResultReader interface {
	ExistsForAuction(ctx context.Context, auctionID uuid.UUID) (bool, error)
}
