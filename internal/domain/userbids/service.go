package userbids

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/pkg/database"
	"github.com/facetlabs/facet/pkg/events"
)

var (
	ErrUserNotAllowed      = errors.New("user is not allowed to bid")
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrBiddingNotActive    = errors.New("bidding is not active")
	ErrBiddingWindowClosed = errors.New("bidding window is closed")
	ErrAmountBelowBase     = errors.New("bid amount must be at least the base bid price")
	ErrAmountNotIncreased  = errors.New("new bid amount must be greater than your current bid")
	ErrUserBidNotFound     = errors.New("user bid not found")
)

// PlaceBidCommand represents one place-or-update attempt.
type PlaceBidCommand struct {
	UserID    uuid.UUID
	AuctionID uuid.UUID
	Amount    decimal.Decimal
}

// PlaceBidResult reports what the ledger did with the command.
type PlaceBidResult struct {
	Bid     *UserBid
	Updated bool
}

// BidPlacedEvent is the outbox payload for events.TypeBidPlaced.
type BidPlacedEvent struct {
	UserBidID string    `json:"user_bid_id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	Amount    string    `json:"amount"`
	Updated   bool      `json:"updated"`
	PlacedAt  time.Time `json:"placed_at"`
}

// Service implements the user bid ledger: one evolving bid per user per
// auction, strictly increasing, with an append-only history trail.
type Service struct {
	repo       Repository
	auctions   AuctionLocker
	users      UserReader
	outboxRepo OutboxRepository
	txManager  database.TransactionManager
	now        func() time.Time
}

func NewService(
	repo Repository,
	auctionLocker AuctionLocker,
	userReader UserReader,
	outboxRepo OutboxRepository,
	txManager database.TransactionManager,
) *Service {
	return &Service{
		repo:       repo,
		auctions:   auctionLocker,
		users:      userReader,
		outboxRepo: outboxRepo,
		txManager:  txManager,
		now:        time.Now,
	}
}

// PlaceOrUpdate places the user's first bid on an auction or raises their
// standing bid. The whole read-check-write sequence runs in one transaction
// holding the auction row lock, so two concurrent raises cannot both pass the
// increase check against a stale read.
func (s *Service) PlaceOrUpdate(ctx context.Context, cmd PlaceBidCommand) (*PlaceBidResult, error) {
	user, err := s.users.GetByID(ctx, cmd.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrUserNotAllowed
	}

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Lock the auction row. All concurrent bids on this auction serialize here.
	auction, err := s.auctions.GetByIDForUpdate(ctx, tx, cmd.AuctionID)
	if err != nil {
		return nil, ErrAuctionNotFound
	}

	if auction.Status != auctions.StatusActive {
		return nil, ErrBiddingNotActive
	}

	now := s.now()
	if now.Before(auction.StartTime) || now.After(auction.EndTime) {
		return nil, ErrBiddingWindowClosed
	}

	if cmd.Amount.LessThan(auction.BaseBidPrice) {
		return nil, ErrAmountBelowBase
	}

	existing, err := s.repo.GetForUpdate(ctx, tx, cmd.UserID, cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing bid: %w", err)
	}

	var bid *UserBid
	updated := false

	if existing == nil {
		// First bid: insert, no history entry.
		bid = &UserBid{
			ID:        uuid.New(),
			UserID:    cmd.UserID,
			AuctionID: cmd.AuctionID,
			Amount:    cmd.Amount,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, bid); err != nil {
			return nil, fmt.Errorf("failed to insert bid: %w", err)
		}
	} else {
		if cmd.Amount.LessThanOrEqual(existing.Amount) {
			return nil, ErrAmountNotIncreased
		}

		oldAmount := existing.Amount
		existing.Amount = cmd.Amount
		existing.UpdatedAt = now

		if err := s.repo.UpdateAmount(ctx, tx, existing); err != nil {
			return nil, fmt.Errorf("failed to update bid: %w", err)
		}

		history := &BidHistory{
			ID:        uuid.New(),
			UserBidID: existing.ID,
			OldAmount: oldAmount,
			NewAmount: cmd.Amount,
			EditedAt:  now,
		}
		if err := s.repo.InsertHistory(ctx, tx, history); err != nil {
			return nil, fmt.Errorf("failed to insert bid history: %w", err)
		}

		bid = existing
		updated = true
	}

	payload, err := json.Marshal(BidPlacedEvent{
		UserBidID: bid.ID.String(),
		AuctionID: bid.AuctionID.String(),
		UserID:    bid.UserID.String(),
		Amount:    bid.Amount.String(),
		Updated:   updated,
		PlacedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: events.TypeBidPlaced,
		Payload:   payload,
		Status:    events.OutboxStatusPending,
		CreatedAt: now,
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, outboxEvent); err != nil {
		return nil, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &PlaceBidResult{Bid: bid, Updated: updated}, nil
}

// MyBids returns the user's bids joined with their auction and diamond,
// newest-updated first.
func (s *Service) MyBids(ctx context.Context, userID uuid.UUID) ([]*MyBid, error) {
	bids, err := s.repo.ListMine(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}

// History returns the edit trail of one of the caller's bids, newest first.
// Bids belonging to other users are reported as not found.
func (s *Service) History(ctx context.Context, userID, userBidID uuid.UUID) ([]*BidHistory, error) {
	bid, err := s.repo.GetByID(ctx, userBidID)
	if err != nil {
		return nil, ErrUserBidNotFound
	}
	if bid.UserID != userID {
		return nil, ErrUserBidNotFound
	}

	history, err := s.repo.ListHistory(ctx, userBidID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bid history: %w", err)
	}
	return history, nil
}
