package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/userbids"
	"github.com/facetlabs/facet/pkg/database"
	"github.com/facetlabs/facet/pkg/events"
)

var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBeforeEndTime   = errors.New("cannot declare result before bid end time")
	ErrAlreadyDeclared = errors.New("result already declared")
	ErrNoBids          = errors.New("no bids placed for this auction")
	ErrNotDeclared     = errors.New("result not declared")
)

// ResultDeclaredEvent is the outbox payload for events.TypeResultDeclared.
type ResultDeclaredEvent struct {
	ResultID      string    `json:"result_id"`
	AuctionID     string    `json:"auction_id"`
	WinnerUserID  string    `json:"winner_user_id"`
	WinningAmount string    `json:"winning_amount"`
	DeclaredAt    time.Time `json:"declared_at"`
}

// Service implements the single irreversible transition in the system:
// declaring an auction's result.
type Service struct {
	repo       Repository
	auctions   AuctionLocker
	ledger     LedgerReader
	outboxRepo OutboxRepository
	txManager  database.TransactionManager
	now        func() time.Time
}

func NewService(
	repo Repository,
	auctionLocker AuctionLocker,
	ledger LedgerReader,
	outboxRepo OutboxRepository,
	txManager database.TransactionManager,
) *Service {
	return &Service{
		repo:       repo,
		auctions:   auctionLocker,
		ledger:     ledger,
		outboxRepo: outboxRepo,
		txManager:  txManager,
		now:        time.Now,
	}
}

// Declare picks the winning bid and freezes it. The existence check, winner
// selection, result insert, and CLOSED transition all run in one transaction
// holding the auction row lock, so concurrent declarations cannot both pass
// the declare-once check; the unique constraint on results.auction_id is the
// final backstop.
func (s *Service) Declare(ctx context.Context, auctionID uuid.UUID) (*Result, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	auction, err := s.auctions.GetByIDForUpdate(ctx, tx, auctionID)
	if err != nil {
		return nil, ErrAuctionNotFound
	}

	now := s.now()
	if now.Before(auction.EndTime) {
		return nil, ErrBeforeEndTime
	}

	declared, err := s.repo.ExistsForAuctionTx(ctx, tx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing result: %w", err)
	}
	if declared {
		return nil, ErrAlreadyDeclared
	}

	bids, err := s.ledger.ListByAuctionTx(ctx, tx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bids: %w", err)
	}
	if len(bids) == 0 {
		return nil, ErrNoBids
	}

	winning := selectWinning(bids)

	result := &Result{
		ID:            uuid.New(),
		AuctionID:     auctionID,
		WinnerUserID:  winning.UserID,
		WinningAmount: winning.Amount,
		DeclaredAt:    now,
	}

	if err := s.repo.Insert(ctx, tx, result); err != nil {
		return nil, fmt.Errorf("failed to insert result: %w", err)
	}

	// Close unconditionally, even if the time-based sync got there first.
	if err := s.auctions.UpdateStatusTx(ctx, tx, auctionID, auctions.StatusClosed); err != nil {
		return nil, fmt.Errorf("failed to close auction: %w", err)
	}

	payload, err := json.Marshal(ResultDeclaredEvent{
		ResultID:      result.ID.String(),
		AuctionID:     result.AuctionID.String(),
		WinnerUserID:  result.WinnerUserID.String(),
		WinningAmount: result.WinningAmount.String(),
		DeclaredAt:    result.DeclaredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: events.TypeResultDeclared,
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

	return result, nil
}

// selectWinning picks the highest bid with a deterministic tie-break:
// earliest first bid wins, then lowest user id.
func selectWinning(bids []*userbids.UserBid) *userbids.UserBid {
	winning := bids[0]
	for _, b := range bids[1:] {
		switch b.Amount.Cmp(winning.Amount) {
		case 1:
			winning = b
		case 0:
			if b.CreatedAt.Before(winning.CreatedAt) {
				winning = b
			} else if b.CreatedAt.Equal(winning.CreatedAt) &&
				b.UserID.String() < winning.UserID.String() {
				winning = b
			}
		}
	}
	return winning
}

// MyResult returns the declared result of one auction projected for a
// participant, or ErrNotDeclared when no result exists yet.
func (s *Service) MyResult(ctx context.Context, userID, auctionID uuid.UUID) (*MyResult, error) {
	v, err := s.repo.GetView(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if v == nil {
		return nil, ErrNotDeclared
	}
	return projectView(v, userID), nil
}

// ListMyResults returns results for every auction the user participated in.
func (s *Service) ListMyResults(ctx context.Context, userID uuid.UUID) ([]*MyResult, error) {
	views, err := s.repo.ListViewsForParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	mine := make([]*MyResult, 0, len(views))
	for _, v := range views {
		mine = append(mine, projectView(v, userID))
	}
	return mine, nil
}

func projectView(v *View, userID uuid.UUID) *MyResult {
	status := OutcomeLose
	if v.Result.WinnerUserID == userID {
		status = OutcomeWin
	}
	return &MyResult{
		AuctionID:     v.Result.AuctionID,
		Status:        status,
		WinningAmount: v.Result.WinningAmount,
		WinnerName:    v.WinnerName,
		Auction:       v.Auction,
	}
}
