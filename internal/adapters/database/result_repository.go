package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facetlabs/facet/internal/domain/diamonds"
	"github.com/facetlabs/facet/internal/domain/results"
)

// PostgresResultRepository implements results.Repository using pgx
type PostgresResultRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresResultRepository creates a new PostgreSQL result repository
func NewPostgresResultRepository(pool *pgxpool.Pool) *PostgresResultRepository {
	return &PostgresResultRepository{pool: pool}
}

func (r *PostgresResultRepository) Insert(ctx context.Context, tx pgx.Tx, res *results.Result) error {
	query := `
		INSERT INTO results (id, auction_id, winner_user_id, winning_amount, declared_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query,
		res.ID,
		res.AuctionID,
		res.WinnerUserID,
		res.WinningAmount,
		res.DeclaredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

func (r *PostgresResultRepository) ExistsForAuctionTx(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM results WHERE auction_id = $1)`, auctionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check result existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresResultRepository) ExistsForAuction(ctx context.Context, auctionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM results WHERE auction_id = $1)`, auctionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check result existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresResultRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) (*results.Result, error) {
	query := `
		SELECT id, auction_id, winner_user_id, winning_amount, declared_at
		FROM results
		WHERE auction_id = $1
	`
	var res results.Result
	err := r.pool.QueryRow(ctx, query, auctionID).Scan(
		&res.ID,
		&res.AuctionID,
		&res.WinnerUserID,
		&res.WinningAmount,
		&res.DeclaredAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("result not found")
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &res, nil
}

const resultViewQuery = `
	SELECT
		r.id, r.auction_id, r.winner_user_id, r.winning_amount, r.declared_at,
		w.name,
		a.id, a.base_bid_price,
		d.id, d.name, COALESCE(d.image_url, ''), d.base_price, d.created_at, d.updated_at
	FROM results r
	JOIN users w ON w.id = r.winner_user_id
	JOIN auctions a ON a.id = r.auction_id
	JOIN diamonds d ON d.id = a.diamond_id
`

func scanResultView(row pgx.Row) (*results.View, error) {
	var (
		v results.View
		a results.AuctionSummary
		d diamonds.Diamond
	)
	err := row.Scan(
		&v.Result.ID, &v.Result.AuctionID, &v.Result.WinnerUserID, &v.Result.WinningAmount, &v.Result.DeclaredAt,
		&v.WinnerName,
		&a.ID, &a.BaseBidPrice,
		&d.ID, &d.Name, &d.ImageURL, &d.BasePrice, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Diamond = &d
	v.Auction = &a
	return &v, nil
}

// GetView returns (nil, nil) when no result has been declared.
func (r *PostgresResultRepository) GetView(ctx context.Context, auctionID uuid.UUID) (*results.View, error) {
	query := resultViewQuery + ` WHERE r.auction_id = $1`
	v, err := scanResultView(r.pool.QueryRow(ctx, query, auctionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result view: %w", err)
	}
	return v, nil
}

func (r *PostgresResultRepository) ListViewsForParticipant(ctx context.Context, userID uuid.UUID) ([]*results.View, error) {
	query := resultViewQuery + `
	WHERE r.auction_id IN (SELECT auction_id FROM user_bids WHERE user_id = $1)
	ORDER BY r.declared_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query result views: %w", err)
	}
	defer rows.Close()

	var views []*results.View
	for rows.Next() {
		v, err := scanResultView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result view: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result views: %w", err)
	}
	return views, nil
}
