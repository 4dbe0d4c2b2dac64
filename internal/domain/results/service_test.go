package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/userbids"
	"github.com/facetlabs/facet/pkg/events"
)

type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeTxManager struct {
	last *fakeTx
}

func (m *fakeTxManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	m.last = &fakeTx{}
	return m.last, nil
}

type fakeResultRepo struct {
	byAuction map[uuid.UUID]*Result
	views     map[uuid.UUID]*View
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{
		byAuction: make(map[uuid.UUID]*Result),
		views:     make(map[uuid.UUID]*View),
	}
}

func (r *fakeResultRepo) Insert(ctx context.Context, tx pgx.Tx, res *Result) error {
	if _, ok := r.byAuction[res.AuctionID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	cp := *res
	r.byAuction[res.AuctionID] = &cp
	return nil
}

func (r *fakeResultRepo) ExistsForAuctionTx(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error) {
	_, ok := r.byAuction[auctionID]
	return ok, nil
}

func (r *fakeResultRepo) ExistsForAuction(ctx context.Context, auctionID uuid.UUID) (bool, error) {
	_, ok := r.byAuction[auctionID]
	return ok, nil
}

func (r *fakeResultRepo) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) (*Result, error) {
	res, ok := r.byAuction[auctionID]
	if !ok {
		return nil, errors.New("result not found")
	}
	return res, nil
}

func (r *fakeResultRepo) GetView(ctx context.Context, auctionID uuid.UUID) (*View, error) {
	return r.views[auctionID], nil
}

func (r *fakeResultRepo) ListViewsForParticipant(ctx context.Context, userID uuid.UUID) ([]*View, error) {
	var out []*View
	for _, v := range r.views {
		out = append(out, v)
	}
	return out, nil
}

type fakeAuctionLocker struct {
	auctions map[uuid.UUID]*auctions.Auction
}

func (l *fakeAuctionLocker) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*auctions.Auction, error) {
	a, ok := l.auctions[id]
	if !ok {
		return nil, errors.New("auction not found")
	}
	return a, nil
}

func (l *fakeAuctionLocker) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status auctions.Status) error {
	a, ok := l.auctions[id]
	if !ok {
		return errors.New("auction not found")
	}
	a.Status = status
	return nil
}

type fakeLedger struct {
	bids map[uuid.UUID][]*userbids.UserBid
}

func (r *fakeLedger) ListByAuctionTx(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) ([]*userbids.UserBid, error) {
	return r.bids[auctionID], nil
}

type fakeOutbox struct {
	saved []*events.OutboxEvent
}

func (o *fakeOutbox) SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error {
	o.saved = append(o.saved, event)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *fakeResultRepo
	locker    *fakeAuctionLocker
	ledger    *fakeLedger
	outbox    *fakeOutbox
	tm        *fakeTxManager
	auctionID uuid.UUID
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	auctionID := uuid.New()

	repo := newFakeResultRepo()
	locker := &fakeAuctionLocker{auctions: map[uuid.UUID]*auctions.Auction{
		auctionID: {
			ID:        auctionID,
			StartTime: now.Add(-2 * time.Hour),
			EndTime:   now.Add(-time.Hour),
			Status:    auctions.StatusActive,
		},
	}}
	ledger := &fakeLedger{bids: make(map[uuid.UUID][]*userbids.UserBid)}
	outbox := &fakeOutbox{}
	tm := &fakeTxManager{}

	svc := NewService(repo, locker, ledger, outbox, tm)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:       svc,
		repo:      repo,
		locker:    locker,
		ledger:    ledger,
		outbox:    outbox,
		tm:        tm,
		auctionID: auctionID,
		now:       now,
	}
}

func bid(userID uuid.UUID, amount int64, createdAt time.Time) *userbids.UserBid {
	return &userbids.UserBid{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    decimal.NewFromInt(amount),
		CreatedAt: createdAt,
	}
}

func TestDeclare_PicksHighestBid(t *testing.T) {
	f := newFixture(t)
	winner := uuid.New()

	f.ledger.bids[f.auctionID] = []*userbids.UserBid{
		bid(uuid.New(), 1500, f.now.Add(-3*time.Hour)),
		bid(winner, 3000, f.now.Add(-2*time.Hour)),
		bid(uuid.New(), 2000, f.now.Add(-4*time.Hour)),
	}

	result, err := f.svc.Declare(context.Background(), f.auctionID)
	require.NoError(t, err)

	assert.Equal(t, winner, result.WinnerUserID)
	assert.True(t, result.WinningAmount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, f.now, result.DeclaredAt)
	assert.True(t, f.tm.last.committed)

	// The auction is closed as part of the declaration.
	assert.Equal(t, auctions.StatusClosed, f.locker.auctions[f.auctionID].Status)

	require.Len(t, f.outbox.saved, 1)
	assert.Equal(t, events.TypeResultDeclared, f.outbox.saved[0].EventType)
}

func TestDeclare_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	f.ledger.bids[f.auctionID] = []*userbids.UserBid{bid(uuid.New(), 1500, f.now)}

	_, err := f.svc.Declare(context.Background(), f.auctionID)
	require.NoError(t, err)

	_, err = f.svc.Declare(context.Background(), f.auctionID)
	assert.ErrorIs(t, err, ErrAlreadyDeclared)
}

func TestDeclare_BeforeEndTime(t *testing.T) {
	f := newFixture(t)
	f.locker.auctions[f.auctionID].EndTime = f.now.Add(time.Hour)
	f.ledger.bids[f.auctionID] = []*userbids.UserBid{bid(uuid.New(), 1500, f.now)}

	_, err := f.svc.Declare(context.Background(), f.auctionID)
	assert.ErrorIs(t, err, ErrBeforeEndTime)
}

func TestDeclare_NoBids(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Declare(context.Background(), f.auctionID)
	assert.ErrorIs(t, err, ErrNoBids)
}

func TestDeclare_UnknownAuction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Declare(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAuctionNotFound)
}

func TestSelectWinning_TieBreak(t *testing.T) {
	earlyUser := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	lateUser := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("earlier first bid wins the tie", func(t *testing.T) {
		early := bid(earlyUser, 2000, base)
		late := bid(lateUser, 2000, base.Add(time.Minute))

		won := selectWinning([]*userbids.UserBid{late, early})
		assert.Equal(t, earlyUser, won.UserID)

		// Order of the input slice must not matter.
		won = selectWinning([]*userbids.UserBid{early, late})
		assert.Equal(t, earlyUser, won.UserID)
	})

	t.Run("same instant falls back to lowest user id", func(t *testing.T) {
		a := bid(earlyUser, 2000, base)
		b := bid(lateUser, 2000, base)

		won := selectWinning([]*userbids.UserBid{a, b})
		assert.Equal(t, lateUser, won.UserID, "uuid 01 sorts before 02")

		won = selectWinning([]*userbids.UserBid{b, a})
		assert.Equal(t, lateUser, won.UserID)
	})

	t.Run("higher amount beats earlier time", func(t *testing.T) {
		low := bid(earlyUser, 2000, base)
		high := bid(lateUser, 2500, base.Add(time.Minute))

		won := selectWinning([]*userbids.UserBid{low, high})
		assert.Equal(t, lateUser, won.UserID)
	})
}

func TestMyResult(t *testing.T) {
	f := newFixture(t)
	winner := uuid.New()
	loser := uuid.New()

	f.repo.views[f.auctionID] = &View{
		Result: Result{
			AuctionID:     f.auctionID,
			WinnerUserID:  winner,
			WinningAmount: decimal.NewFromInt(3000),
		},
		WinnerName: "Ada",
	}

	mine, err := f.svc.MyResult(context.Background(), winner, f.auctionID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, mine.Status)
	assert.Equal(t, "Ada", mine.WinnerName)

	mine, err = f.svc.MyResult(context.Background(), loser, f.auctionID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLose, mine.Status)
	assert.True(t, mine.WinningAmount.Equal(decimal.NewFromInt(3000)),
		"losers still see the winning amount and winner name")
}

func TestMyResult_NotDeclared(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.MyResult(context.Background(), uuid.New(), f.auctionID)
	assert.ErrorIs(t, err, ErrNotDeclared)
}

func TestListMyResults(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	f.repo.views[f.auctionID] = &View{
		Result:     Result{AuctionID: f.auctionID, WinnerUserID: user, WinningAmount: decimal.NewFromInt(500)},
		WinnerName: "Ada",
	}

	mine, err := f.svc.ListMyResults(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, OutcomeWin, mine[0].Status)
}
