package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/facetlabs/facet/internal/domain/diamonds"
	"github.com/facetlabs/facet/internal/domain/monitor"
	"github.com/facetlabs/facet/internal/domain/userbids"
)

const userBidColumns = `id, user_id, auction_id, amount, created_at, updated_at`

// PostgresUserBidRepository implements userbids.Repository using pgx, plus
// the aggregate reads the auction statistics, result declaration, and admin
// monitor need.
type PostgresUserBidRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserBidRepository creates a new PostgreSQL user bid repository
func NewPostgresUserBidRepository(pool *pgxpool.Pool) *PostgresUserBidRepository {
	return &PostgresUserBidRepository{pool: pool}
}

func scanUserBid(row pgx.Row) (*userbids.UserBid, error) {
	var b userbids.UserBid
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.AuctionID,
		&b.Amount,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetForUpdate locks the user's bid row for the duration of the transaction.
// Returns (nil, nil) when the user has not bid on the auction yet.
func (r *PostgresUserBidRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, userID, auctionID uuid.UUID) (*userbids.UserBid, error) {
	query := `
		SELECT ` + userBidColumns + `
		FROM user_bids
		WHERE user_id = $1 AND auction_id = $2
		FOR UPDATE
	`
	b, err := scanUserBid(tx.QueryRow(ctx, query, userID, auctionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock user bid: %w", err)
	}
	return b, nil
}

func (r *PostgresUserBidRepository) GetByID(ctx context.Context, id uuid.UUID) (*userbids.UserBid, error) {
	query := `SELECT ` + userBidColumns + ` FROM user_bids WHERE id = $1`
	b, err := scanUserBid(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("user bid not found")
		}
		return nil, fmt.Errorf("failed to get user bid: %w", err)
	}
	return b, nil
}

func (r *PostgresUserBidRepository) Insert(ctx context.Context, tx pgx.Tx, b *userbids.UserBid) error {
	query := `
		INSERT INTO user_bids (id, user_id, auction_id, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, query,
		b.ID,
		b.UserID,
		b.AuctionID,
		b.Amount,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user bid: %w", err)
	}
	return nil
}

func (r *PostgresUserBidRepository) UpdateAmount(ctx context.Context, tx pgx.Tx, b *userbids.UserBid) error {
	query := `
		UPDATE user_bids
		SET amount = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := tx.Exec(ctx, query, b.Amount, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update user bid: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user bid not found")
	}
	return nil
}

func (r *PostgresUserBidRepository) InsertHistory(ctx context.Context, tx pgx.Tx, h *userbids.BidHistory) error {
	query := `
		INSERT INTO bid_history (id, user_bid_id, old_amount, new_amount, edited_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query,
		h.ID,
		h.UserBidID,
		h.OldAmount,
		h.NewAmount,
		h.EditedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid history: %w", err)
	}
	return nil
}

func (r *PostgresUserBidRepository) ListMine(ctx context.Context, userID uuid.UUID) ([]*userbids.MyBid, error) {
	query := `
		SELECT
			ub.id, ub.user_id, ub.auction_id, ub.amount, ub.created_at, ub.updated_at,
			a.id, a.status, a.base_bid_price, a.start_time, a.end_time,
			d.id, d.name, COALESCE(d.image_url, ''), d.base_price, d.created_at, d.updated_at
		FROM user_bids ub
		JOIN auctions a ON a.id = ub.auction_id
		JOIN diamonds d ON d.id = a.diamond_id
		WHERE ub.user_id = $1
		ORDER BY ub.updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user bids: %w", err)
	}
	defer rows.Close()

	var result []*userbids.MyBid
	for rows.Next() {
		var (
			mb userbids.MyBid
			as userbids.AuctionSummary
			d  diamonds.Diamond
		)
		if err := rows.Scan(
			&mb.ID, &mb.UserID, &mb.AuctionID, &mb.Amount, &mb.CreatedAt, &mb.UpdatedAt,
			&as.ID, &as.Status, &as.BaseBidPrice, &as.StartTime, &as.EndTime,
			&d.ID, &d.Name, &d.ImageURL, &d.BasePrice, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user bid: %w", err)
		}
		as.Diamond = &d
		mb.Auction = &as
		result = append(result, &mb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user bids: %w", err)
	}
	return result, nil
}

func (r *PostgresUserBidRepository) ListHistory(ctx context.Context, userBidID uuid.UUID) ([]*userbids.BidHistory, error) {
	query := `
		SELECT id, user_bid_id, old_amount, new_amount, edited_at
		FROM bid_history
		WHERE user_bid_id = $1
		ORDER BY edited_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userBidID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bid history: %w", err)
	}
	defer rows.Close()

	var result []*userbids.BidHistory
	for rows.Next() {
		var h userbids.BidHistory
		if err := rows.Scan(&h.ID, &h.UserBidID, &h.OldAmount, &h.NewAmount, &h.EditedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid history: %w", err)
		}
		result = append(result, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bid history: %w", err)
	}
	return result, nil
}

// ListByAuctionTx reads the auction's ledger inside the declaration
// transaction so the winner is picked against a frozen set.
func (r *PostgresUserBidRepository) ListByAuctionTx(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) ([]*userbids.UserBid, error) {
	query := `
		SELECT ` + userBidColumns + `
		FROM user_bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
	`
	rows, err := tx.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user bids: %w", err)
	}
	defer rows.Close()

	var result []*userbids.UserBid
	for rows.Next() {
		b, err := scanUserBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user bid: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user bids: %w", err)
	}
	return result, nil
}

func (r *PostgresUserBidRepository) CountByAuctionID(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_bids WHERE auction_id = $1`, auctionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user bids: %w", err)
	}
	return count, nil
}

func (r *PostgresUserBidRepository) ListAmountsByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT amount FROM user_bids WHERE auction_id = $1`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bid amounts: %w", err)
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return nil, fmt.Errorf("failed to scan bid amount: %w", err)
		}
		amounts = append(amounts, amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bid amounts: %w", err)
	}
	return amounts, nil
}

// ListEntriesByAuctionID returns the auction's bids with bidder identity for
// the admin monitor, highest first.
func (r *PostgresUserBidRepository) ListEntriesByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*monitor.Entry, error) {
	query := `
		SELECT ub.id, ub.amount, ub.created_at, u.id, u.name, u.email
		FROM user_bids ub
		JOIN users u ON u.id = ub.user_id
		WHERE ub.auction_id = $1
		ORDER BY ub.amount DESC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query auction bids: %w", err)
	}
	defer rows.Close()

	var entries []*monitor.Entry
	for rows.Next() {
		var e monitor.Entry
		if err := rows.Scan(&e.ID, &e.Amount, &e.CreatedAt, &e.Bidder.ID, &e.Bidder.Name, &e.Bidder.Email); err != nil {
			return nil, fmt.Errorf("failed to scan auction bid: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auction bids: %w", err)
	}
	return entries, nil
}
