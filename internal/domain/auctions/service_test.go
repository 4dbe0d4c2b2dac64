package auctions

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetlabs/facet/internal/domain/diamonds"
)

type fakeAuctionRepo struct {
	auctions map[uuid.UUID]*Auction
}

func newFakeAuctionRepo() *fakeAuctionRepo {
	return &fakeAuctionRepo{auctions: make(map[uuid.UUID]*Auction)}
}

func (r *fakeAuctionRepo) Create(ctx context.Context, a *Auction) error {
	cp := *a
	r.auctions[a.ID] = &cp
	return nil
}

func (r *fakeAuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Auction, error) {
	a, ok := r.auctions[id]
	if !ok {
		return nil, errors.New("auction not found")
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAuctionRepo) GetOpenByDiamondID(ctx context.Context, diamondID uuid.UUID) (*Auction, error) {
	for _, a := range r.auctions {
		if a.DiamondID == diamondID && a.Status != StatusClosed {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAuctionRepo) Update(ctx context.Context, a *Auction) error {
	if _, ok := r.auctions[a.ID]; !ok {
		return errors.New("auction not found")
	}
	cp := *a
	r.auctions[a.ID] = &cp
	return nil
}

func (r *fakeAuctionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	a, ok := r.auctions[id]
	if !ok {
		return errors.New("auction not found")
	}
	a.Status = status
	return nil
}

func (r *fakeAuctionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.auctions[id]; !ok {
		return errors.New("auction not found")
	}
	delete(r.auctions, id)
	return nil
}

func (r *fakeAuctionRepo) List(ctx context.Context) ([]*Auction, error) {
	var out []*Auction
	for _, a := range r.auctions {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAuctionRepo) ListByStatus(ctx context.Context, status Status) ([]*Auction, error) {
	var out []*Auction
	for _, a := range r.auctions {
		if a.Status == status {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeAuctionRepo) ListActive(ctx context.Context, now time.Time) ([]*Auction, error) {
	var out []*Auction
	for _, a := range r.auctions {
		if a.Status == StatusActive && !now.Before(a.StartTime) && now.Before(a.EndTime) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (r *fakeAuctionRepo) ListUpcoming(ctx context.Context, now time.Time) ([]*Auction, error) {
	var out []*Auction
	for _, a := range r.auctions {
		if a.Status == StatusDraft && a.StartTime.After(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeAuctionRepo) ListRecentlyClosed(ctx context.Context, limit int) ([]*Auction, error) {
	var out []*Auction
	for _, a := range r.auctions {
		if a.Status == StatusClosed {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.After(out[j].EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAuctionRepo) SyncStatuses(ctx context.Context, now time.Time) error {
	for _, a := range r.auctions {
		if a.Status == StatusDraft && !a.StartTime.After(now) && a.EndTime.After(now) {
			a.Status = StatusActive
		}
		if a.Status != StatusClosed && !a.EndTime.After(now) {
			a.Status = StatusClosed
		}
	}
	return nil
}

type fakeDiamondReader struct {
	diamonds map[uuid.UUID]*diamonds.Diamond
}

func (r *fakeDiamondReader) GetByID(ctx context.Context, id uuid.UUID) (*diamonds.Diamond, error) {
	d, ok := r.diamonds[id]
	if !ok {
		return nil, errors.New("diamond not found")
	}
	return d, nil
}

type fakeLedgerReader struct {
	amounts map[uuid.UUID][]decimal.Decimal
}

func (r *fakeLedgerReader) CountByAuctionID(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	return int64(len(r.amounts[auctionID])), nil
}

func (r *fakeLedgerReader) ListAmountsByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]decimal.Decimal, error) {
	return r.amounts[auctionID], nil
}

type fakeResultReader struct {
	declared map[uuid.UUID]bool
}

func (r *fakeResultReader) ExistsForAuction(ctx context.Context, auctionID uuid.UUID) (bool, error) {
	return r.declared[auctionID], nil
}

type fixture struct {
	svc       *Service
	repo      *fakeAuctionRepo
	ledger    *fakeLedgerReader
	diamondID uuid.UUID
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	diamondID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := newFakeAuctionRepo()
	ledger := &fakeLedgerReader{amounts: make(map[uuid.UUID][]decimal.Decimal)}
	svc := NewService(repo,
		&fakeDiamondReader{diamonds: map[uuid.UUID]*diamonds.Diamond{
			diamondID: {ID: diamondID, Name: "Koh-i-Noor", BasePrice: decimal.NewFromInt(1000)},
		}},
		ledger,
		&fakeResultReader{declared: make(map[uuid.UUID]bool)},
	)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, repo: repo, ledger: ledger, diamondID: diamondID, now: now}
}

func (f *fixture) createDraft(t *testing.T) *Detail {
	t.Helper()
	d, err := f.svc.Create(context.Background(), CreateAuctionCommand{
		DiamondID:    f.diamondID,
		BaseBidPrice: decimal.NewFromInt(1000),
		StartTime:    f.now.Add(time.Hour),
		EndTime:      f.now.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	return d
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		cmd     CreateAuctionCommand
		wantErr error
	}{
		{
			name: "start after end",
			cmd: CreateAuctionCommand{
				DiamondID:    f.diamondID,
				BaseBidPrice: decimal.NewFromInt(100),
				StartTime:    f.now.Add(2 * time.Hour),
				EndTime:      f.now.Add(time.Hour),
			},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name: "end in the past",
			cmd: CreateAuctionCommand{
				DiamondID:    f.diamondID,
				BaseBidPrice: decimal.NewFromInt(100),
				StartTime:    f.now.Add(-2 * time.Hour),
				EndTime:      f.now.Add(-time.Hour),
			},
			wantErr: ErrEndTimeInPast,
		},
		{
			name: "zero base price",
			cmd: CreateAuctionCommand{
				DiamondID:    f.diamondID,
				BaseBidPrice: decimal.Zero,
				StartTime:    f.now.Add(time.Hour),
				EndTime:      f.now.Add(2 * time.Hour),
			},
			wantErr: ErrInvalidBasePrice,
		},
		{
			name: "unknown diamond",
			cmd: CreateAuctionCommand{
				DiamondID:    uuid.New(),
				BaseBidPrice: decimal.NewFromInt(100),
				StartTime:    f.now.Add(time.Hour),
				EndTime:      f.now.Add(2 * time.Hour),
			},
			wantErr: ErrDiamondNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreate_InitialStatus(t *testing.T) {
	f := newFixture(t)

	// Future start -> DRAFT.
	draft := f.createDraft(t)
	assert.Equal(t, StatusDraft, draft.Status)
}

func TestCreate_StartAlreadyPassedIsActive(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Create(context.Background(), CreateAuctionCommand{
		DiamondID:    f.diamondID,
		BaseBidPrice: decimal.NewFromInt(1000),
		StartTime:    f.now.Add(-time.Minute),
		EndTime:      f.now.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, d.Status)
}

func TestCreate_OneOpenAuctionPerDiamond(t *testing.T) {
	f := newFixture(t)
	f.createDraft(t)

	_, err := f.svc.Create(context.Background(), CreateAuctionCommand{
		DiamondID:    f.diamondID,
		BaseBidPrice: decimal.NewFromInt(1000),
		StartTime:    f.now.Add(3 * time.Hour),
		EndTime:      f.now.Add(4 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrDiamondHasOpenAuction)
}

func TestCreate_AllowedAfterPreviousAuctionCloses(t *testing.T) {
	f := newFixture(t)
	first := f.createDraft(t)

	_, err := f.svc.Close(context.Background(), first.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), CreateAuctionCommand{
		DiamondID:    f.diamondID,
		BaseBidPrice: decimal.NewFromInt(1000),
		StartTime:    f.now.Add(3 * time.Hour),
		EndTime:      f.now.Add(4 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestSync_TimeBasedTransitions(t *testing.T) {
	f := newFixture(t)
	d := f.createDraft(t)
	ctx := context.Background()

	// Clock inside the bidding window: DRAFT -> ACTIVE.
	f.svc.now = func() time.Time { return f.now.Add(90 * time.Minute) }
	got, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)

	// Clock past the end: ACTIVE -> CLOSED.
	f.svc.now = func() time.Time { return f.now.Add(3 * time.Hour) }
	got, err = f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, got.Status)

	// Idempotent: another sync changes nothing.
	got, err = f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, got.Status)
}

func TestSync_ExpiredDraftGoesStraightToClosed(t *testing.T) {
	f := newFixture(t)
	d := f.createDraft(t)

	// Jump past the end without ever passing through the window.
	f.svc.now = func() time.Time { return f.now.Add(48 * time.Hour) }
	got, err := f.svc.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, got.Status)
}

func TestUpdate_OnlyDraft(t *testing.T) {
	f := newFixture(t)
	d := f.createDraft(t)
	ctx := context.Background()

	newPrice := decimal.NewFromInt(2000)
	updated, err := f.svc.Update(ctx, UpdateAuctionCommand{AuctionID: d.ID, BaseBidPrice: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.BaseBidPrice.Equal(newPrice))

	_, err = f.svc.Activate(ctx, d.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, UpdateAuctionCommand{AuctionID: d.ID, BaseBidPrice: &newPrice})
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestUpdate_RevalidatesTimeRange(t *testing.T) {
	f := newFixture(t)
	d := f.createDraft(t)

	badStart := f.now.Add(5 * time.Hour)
	_, err := f.svc.Update(context.Background(), UpdateAuctionCommand{AuctionID: d.ID, StartTime: &badStart})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestDelete_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.createDraft(t)
	require.NoError(t, f.svc.Delete(ctx, d.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, d.ID), ErrAuctionNotFound)

	// Bids block deletion.
	d2 := f.createDraft(t)
	f.ledger.amounts[d2.ID] = []decimal.Decimal{decimal.NewFromInt(1500)}
	assert.ErrorIs(t, f.svc.Delete(ctx, d2.ID), ErrHasUserBids)

	// Non-draft blocks deletion.
	delete(f.ledger.amounts, d2.ID)
	_, err := f.svc.Activate(ctx, d2.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Delete(ctx, d2.ID), ErrNotDraft)
}

func TestActivate_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t)

	_, err := f.svc.Activate(ctx, d.ID)
	require.NoError(t, err)

	// Already active.
	_, err = f.svc.Activate(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotDraft)

	_, err = f.svc.Activate(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAuctionNotFound)
}

func TestClose_AlreadyClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t)

	_, err := f.svc.Close(ctx, d.ID)
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, d.ID)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.createDraft(t)

	// Empty ledger -> all zeros.
	stats, err := f.svc.Statistics(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalParticipants)
	assert.True(t, stats.HighestBid.IsZero())
	assert.True(t, stats.LowestBid.IsZero())
	assert.True(t, stats.AverageBid.IsZero())

	f.ledger.amounts[d.ID] = []decimal.Decimal{
		decimal.NewFromInt(1000),
		decimal.NewFromInt(3000),
		decimal.NewFromInt(2000),
	}

	stats, err = f.svc.Statistics(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalParticipants)
	assert.True(t, stats.HighestBid.Equal(decimal.NewFromInt(3000)))
	assert.True(t, stats.LowestBid.Equal(decimal.NewFromInt(1000)))
	assert.True(t, stats.AverageBid.Equal(decimal.NewFromInt(2000)))
}

func TestListActive_CarriesRemainingTime(t *testing.T) {
	f := newFixture(t)
	d := f.createDraft(t)
	_ = d

	f.svc.now = func() time.Time { return f.now.Add(90 * time.Minute) }
	details, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), details[0].TimeRemainingMS)
}

func TestGetActive_RejectsNonBiddable(t *testing.T) {
	f := newFixture(t)
	d := f.createDraft(t)

	// Still DRAFT at creation time.
	_, err := f.svc.GetActive(context.Background(), d.ID)
	assert.ErrorIs(t, err, ErrAuctionNotFound)

	// Inside the window it resolves.
	f.svc.now = func() time.Time { return f.now.Add(90 * time.Minute) }
	got, err := f.svc.GetActive(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestListByStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListByStatus(context.Background(), Status("BOGUS"))
	assert.Error(t, err)
}
