package results

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/userbids"
	"github.com/facetlabs/facet/pkg/events"
)

// Repository defines the interface for result persistence.
type Repository interface {
	// Insert writes the result within the declaration transaction. The
	// unique constraint on auction_id backs the declare-once invariant.
	Insert(ctx context.Context, tx pgx.Tx, r *Result) error

	// ExistsForAuctionTx checks for an existing result inside the
	// declaration transaction.
	ExistsForAuctionTx(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error)

	ExistsForAuction(ctx context.Context, auctionID uuid.UUID) (bool, error)

	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) (*Result, error)

	// GetView returns one declared result joined with auction, diamond, and
	// winner name, or (nil, nil) when not declared.
	GetView(ctx context.Context, auctionID uuid.UUID) (*View, error)

	// ListViewsForParticipant returns result views for every auction the
	// user placed a bid on.
	ListViewsForParticipant(ctx context.Context, userID uuid.UUID) ([]*View, error)
}

// View is a declared result joined with display data, before the WIN/LOSE
// projection for a particular user.
type View struct {
	Result     Result
	WinnerName string
	Auction    *AuctionSummary
}

// AuctionLocker reads and locks the auction row inside the declaration
// transaction and flips it to CLOSED.
type AuctionLocker interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*auctions.Auction, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status auctions.Status) error
}

// LedgerReader lists the auction's user bids inside the declaration
// transaction.
type LedgerReader interface {
	ListByAuctionTx(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) ([]*userbids.UserBid, error)
}

// OutboxRepository persists domain events alongside the declaration.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}
