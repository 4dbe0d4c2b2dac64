package auctions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAuctionNotFound       = errors.New("auction not found")
	ErrDiamondNotFound       = errors.New("diamond not found")
	ErrInvalidTimeRange      = errors.New("start time must be before end time")
	ErrEndTimeInPast         = errors.New("end time must be in the future")
	ErrInvalidBasePrice      = errors.New("base bid price must be a positive number")
	ErrDiamondHasOpenAuction = errors.New("diamond already has an active or pending auction")
	ErrNotDraft              = errors.New("auction is not in DRAFT status")
	ErrAlreadyClosed         = errors.New("auction is already closed")
	ErrAuctionEnded          = errors.New("cannot activate an auction that has already ended")
	ErrHasUserBids           = errors.New("cannot delete an auction with existing user bids")
)

// CreateAuctionCommand represents the command to schedule an auction.
type CreateAuctionCommand struct {
	DiamondID    uuid.UUID
	BaseBidPrice decimal.Decimal
	StartTime    time.Time
	EndTime      time.Time
}

// UpdateAuctionCommand updates a DRAFT auction. Nil fields are unchanged.
type UpdateAuctionCommand struct {
	AuctionID    uuid.UUID
	BaseBidPrice *decimal.Decimal
	StartTime    *time.Time
	EndTime      *time.Time
}

// Service implements the auction lifecycle: scheduling, time-based status
// synchronization, manual transitions, and statistics.
type Service struct {
	repo     Repository
	diamonds DiamondReader
	ledger   LedgerReader
	results  ResultReader
	now      func() time.Time
}

func NewService(repo Repository, diamonds DiamondReader, ledger LedgerReader, results ResultReader) *Service {
	return &Service{
		repo:     repo,
		diamonds: diamonds,
		ledger:   ledger,
		results:  results,
		now:      time.Now,
	}
}

// Sync recomputes DRAFT/ACTIVE/CLOSED against the current time. It is called
// at the top of every read path and is safe to call repeatedly.
func (s *Service) Sync(ctx context.Context) error {
	if err := s.repo.SyncStatuses(ctx, s.now()); err != nil {
		return fmt.Errorf("failed to sync auction statuses: %w", err)
	}
	return nil
}

// Create schedules a new auction for a diamond. The initial status is ACTIVE
// when the start time has already passed, DRAFT otherwise.
func (s *Service) Create(ctx context.Context, cmd CreateAuctionCommand) (*Detail, error) {
	now := s.now()

	if !cmd.StartTime.Before(cmd.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	if !cmd.EndTime.After(now) {
		return nil, ErrEndTimeInPast
	}
	if cmd.BaseBidPrice.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidBasePrice
	}

	if _, err := s.diamonds.GetByID(ctx, cmd.DiamondID); err != nil {
		return nil, ErrDiamondNotFound
	}

	open, err := s.repo.GetOpenByDiamondID(ctx, cmd.DiamondID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open auctions: %w", err)
	}
	if open != nil {
		return nil, ErrDiamondHasOpenAuction
	}

	status := StatusDraft
	if !cmd.StartTime.After(now) {
		status = StatusActive
	}

	a := &Auction{
		ID:           uuid.New(),
		DiamondID:    cmd.DiamondID,
		BaseBidPrice: cmd.BaseBidPrice,
		StartTime:    cmd.StartTime,
		EndTime:      cmd.EndTime,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	return s.enrich(ctx, a)
}

// Get returns one auction with diamond, statistics, and result flag.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAuctionNotFound
	}
	return s.enrich(ctx, a)
}

// List returns all auctions enriched, newest first.
func (s *Service) List(ctx context.Context) ([]*Detail, error) {
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	as, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	return s.enrichAll(ctx, as)
}

// ListByStatus returns auctions in one status, earliest start first.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Detail, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	as, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions by status: %w", err)
	}
	return s.enrichAll(ctx, as)
}

// ListActive returns auctions currently accepting bids, soonest-ending first,
// each carrying the remaining bidding time.
func (s *Service) ListActive(ctx context.Context) ([]*Detail, error) {
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	now := s.now()
	as, err := s.repo.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active auctions: %w", err)
	}
	details, err := s.enrichAll(ctx, as)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		remaining := d.EndTime.Sub(now).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
		d.TimeRemainingMS = remaining
	}
	return details, nil
}

// GetActive returns one currently biddable auction.
func (s *Service) GetActive(ctx context.Context, id uuid.UUID) (*Detail, error) {
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	now := s.now()
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAuctionNotFound
	}
	if a.Status != StatusActive || now.Before(a.StartTime) || !now.Before(a.EndTime) {
		return nil, ErrAuctionNotFound
	}
	d, err := s.enrich(ctx, a)
	if err != nil {
		return nil, err
	}
	d.TimeRemainingMS = a.EndTime.Sub(now).Milliseconds()
	return d, nil
}

// ListUpcoming returns DRAFT auctions that have not started yet.
func (s *Service) ListUpcoming(ctx context.Context) ([]*Detail, error) {
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	as, err := s.repo.ListUpcoming(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming auctions: %w", err)
	}
	return s.enrichAll(ctx, as)
}

// ListRecentlyClosed returns the most recently ended auctions.
func (s *Service) ListRecentlyClosed(ctx context.Context, limit int) ([]*Detail, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	as, err := s.repo.ListRecentlyClosed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed auctions: %w", err)
	}
	return s.enrichAll(ctx, as)
}

// Update modifies a DRAFT auction and re-validates its time range.
func (s *Service) Update(ctx context.Context, cmd UpdateAuctionCommand) (*Detail, error) {
	a, err := s.repo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return nil, ErrAuctionNotFound
	}
	if a.Status != StatusDraft {
		return nil, ErrNotDraft
	}

	start, end := a.StartTime, a.EndTime
	if cmd.StartTime != nil {
		start = *cmd.StartTime
	}
	if cmd.EndTime != nil {
		end = *cmd.EndTime
	}
	if !start.Before(end) {
		return nil, ErrInvalidTimeRange
	}
	if cmd.BaseBidPrice != nil {
		if cmd.BaseBidPrice.LessThanOrEqual(decimal.Zero) {
			return nil, ErrInvalidBasePrice
		}
		a.BaseBidPrice = *cmd.BaseBidPrice
	}

	a.StartTime = start
	a.EndTime = end
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update auction: %w", err)
	}
	return s.enrich(ctx, a)
}

// Delete removes a DRAFT auction with no user bids.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrAuctionNotFound
	}
	if a.Status != StatusDraft {
		return ErrNotDraft
	}

	count, err := s.ledger.CountByAuctionID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count user bids: %w", err)
	}
	if count > 0 {
		return ErrHasUserBids
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}
	return nil
}

// Activate forces a DRAFT auction to ACTIVE regardless of its start time.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAuctionNotFound
	}
	if a.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	if !a.EndTime.After(s.now()) {
		return nil, ErrAuctionEnded
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusActive); err != nil {
		return nil, fmt.Errorf("failed to activate auction: %w", err)
	}
	a.Status = StatusActive
	return s.enrich(ctx, a)
}

// Close forces an auction to CLOSED. This is the admin override, independent
// of result declaration.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (*Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAuctionNotFound
	}
	if a.Status == StatusClosed {
		return nil, ErrAlreadyClosed
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusClosed); err != nil {
		return nil, fmt.Errorf("failed to close auction: %w", err)
	}
	a.Status = StatusClosed
	return s.enrich(ctx, a)
}

// Statistics aggregates the ledger amounts for one auction. Returns zeros
// when nobody has bid.
func (s *Service) Statistics(ctx context.Context, auctionID uuid.UUID) (Statistics, error) {
	amounts, err := s.ledger.ListAmountsByAuctionID(ctx, auctionID)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to load bid amounts: %w", err)
	}
	return computeStatistics(amounts), nil
}

func computeStatistics(amounts []decimal.Decimal) Statistics {
	if len(amounts) == 0 {
		return Statistics{}
	}
	return Statistics{
		TotalParticipants: int64(len(amounts)),
		HighestBid:        decimal.Max(amounts[0], amounts[1:]...),
		LowestBid:         decimal.Min(amounts[0], amounts[1:]...),
		AverageBid:        decimal.Avg(amounts[0], amounts[1:]...),
	}
}

func (s *Service) enrich(ctx context.Context, a *Auction) (*Detail, error) {
	stats, err := s.Statistics(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	declared, err := s.results.ExistsForAuction(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check result: %w", err)
	}

	d := &Detail{
		Auction:        *a,
		Statistics:     stats,
		ResultDeclared: declared,
	}

	// Listings tolerate a missing diamond row rather than failing wholesale.
	if diamond, derr := s.diamonds.GetByID(ctx, a.DiamondID); derr == nil {
		d.Diamond = diamond
	}

	return d, nil
}

func (s *Service) enrichAll(ctx context.Context, as []*Auction) ([]*Detail, error) {
	details := make([]*Detail, 0, len(as))
	for _, a := range as {
		d, err := s.enrich(ctx, a)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}
