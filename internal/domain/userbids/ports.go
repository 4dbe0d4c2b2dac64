package userbids

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/users"
	"github.com/facetlabs/facet/pkg/events"
)

// Repository defines the interface for user bid and history persistence.
type Repository interface {
	// GetForUpdate returns the user's bid on an auction, locked for the
	// duration of the transaction, or (nil, nil) when none exists.
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID, auctionID uuid.UUID) (*UserBid, error)

	GetByID(ctx context.Context, id uuid.UUID) (*UserBid, error)

	// Insert creates the user's first bid on an auction.
	Insert(ctx context.Context, tx pgx.Tx, b *UserBid) error

	// UpdateAmount overwrites the standing amount in place.
	UpdateAmount(ctx context.Context, tx pgx.Tx, b *UserBid) error

	// InsertHistory appends one audit row for an amount change.
	InsertHistory(ctx context.Context, tx pgx.Tx, h *BidHistory) error

	// ListMine returns the user's bids joined with auction and diamond,
	// newest-updated first.
	ListMine(ctx context.Context, userID uuid.UUID) ([]*MyBid, error)

	// ListHistory returns audit rows for one user bid, newest first.
	ListHistory(ctx context.Context, userBidID uuid.UUID) ([]*BidHistory, error)
}

// AuctionLocker reads and locks the auction row inside the bid transaction.
type AuctionLocker interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*auctions.Auction, error)
}

// UserReader resolves the bidding account.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// OutboxRepository persists domain events alongside ledger writes.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}
