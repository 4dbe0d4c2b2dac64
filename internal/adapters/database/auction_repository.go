package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facetlabs/facet/internal/domain/auctions"
)

const auctionColumns = `id, diamond_id, base_bid_price, start_time, end_time, status, created_at, updated_at`

// PostgresAuctionRepository implements auctions.Repository using pgx. It also
// serves the locked reads the bid and result transactions need.
type PostgresAuctionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuctionRepository creates a new PostgreSQL auction repository
func NewPostgresAuctionRepository(pool *pgxpool.Pool) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{pool: pool}
}

func scanAuction(row pgx.Row) (*auctions.Auction, error) {
	var a auctions.Auction
	err := row.Scan(
		&a.ID,
		&a.DiamondID,
		&a.BaseBidPrice,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAuctions(rows pgx.Rows) ([]*auctions.Auction, error) {
	defer rows.Close()

	var result []*auctions.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}
	return result, nil
}

func (r *PostgresAuctionRepository) Create(ctx context.Context, a *auctions.Auction) error {
	query := `
		INSERT INTO auctions (id, diamond_id, base_bid_price, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.DiamondID,
		a.BaseBidPrice,
		a.StartTime,
		a.EndTime,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

func (r *PostgresAuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auctions.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	a, err := scanAuction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("auction not found")
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

// GetByIDForUpdate locks the auction row for the duration of the transaction.
func (r *PostgresAuctionRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*auctions.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`
	a, err := scanAuction(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("auction not found")
		}
		return nil, fmt.Errorf("failed to lock auction: %w", err)
	}
	return a, nil
}

// GetOpenByDiamondID returns (nil, nil) when the diamond has no DRAFT or
// ACTIVE auction.
func (r *PostgresAuctionRepository) GetOpenByDiamondID(ctx context.Context, diamondID uuid.UUID) (*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE diamond_id = $1 AND status IN ('DRAFT', 'ACTIVE')
		LIMIT 1
	`
	a, err := scanAuction(r.pool.QueryRow(ctx, query, diamondID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open auction: %w", err)
	}
	return a, nil
}

func (r *PostgresAuctionRepository) Update(ctx context.Context, a *auctions.Auction) error {
	query := `
		UPDATE auctions
		SET base_bid_price = $1, start_time = $2, end_time = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.pool.Exec(ctx, query,
		a.BaseBidPrice,
		a.StartTime,
		a.EndTime,
		a.Status,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update auction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction not found")
	}
	return nil
}

func (r *PostgresAuctionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status auctions.Status) error {
	query := `
		UPDATE auctions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update auction status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction not found")
	}
	return nil
}

// UpdateStatusTx flips the status within the declaration transaction.
func (r *PostgresAuctionRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status auctions.Status) error {
	query := `
		UPDATE auctions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update auction status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction not found")
	}
	return nil
}

func (r *PostgresAuctionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction not found")
	}
	return nil
}

func (r *PostgresAuctionRepository) List(ctx context.Context) ([]*auctions.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	return collectAuctions(rows)
}

func (r *PostgresAuctionRepository) ListByStatus(ctx context.Context, status auctions.Status) ([]*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = $1
		ORDER BY start_time ASC
	`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions by status: %w", err)
	}
	return collectAuctions(rows)
}

func (r *PostgresAuctionRepository) ListActive(ctx context.Context, now time.Time) ([]*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'ACTIVE' AND start_time <= $1 AND end_time > $1
		ORDER BY end_time ASC
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active auctions: %w", err)
	}
	return collectAuctions(rows)
}

func (r *PostgresAuctionRepository) ListUpcoming(ctx context.Context, now time.Time) ([]*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'DRAFT' AND start_time > $1
		ORDER BY start_time ASC
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming auctions: %w", err)
	}
	return collectAuctions(rows)
}

func (r *PostgresAuctionRepository) ListRecentlyClosed(ctx context.Context, limit int) ([]*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'CLOSED'
		ORDER BY end_time DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed auctions: %w", err)
	}
	return collectAuctions(rows)
}

// SyncStatuses runs the two time-based bulk transitions. Each UPDATE filters
// on the current status, so a concurrent sync that got there first simply
// matches zero rows.
func (r *PostgresAuctionRepository) SyncStatuses(ctx context.Context, now time.Time) error {
	activate := `
		UPDATE auctions
		SET status = 'ACTIVE', updated_at = NOW()
		WHERE status = 'DRAFT' AND start_time <= $1 AND end_time > $1
	`
	if _, err := r.pool.Exec(ctx, activate, now); err != nil {
		return fmt.Errorf("failed to activate due auctions: %w", err)
	}

	expire := `
		UPDATE auctions
		SET status = 'CLOSED', updated_at = NOW()
		WHERE status != 'CLOSED' AND end_time <= $1
	`
	if _, err := r.pool.Exec(ctx, expire, now); err != nil {
		return fmt.Errorf("failed to close expired auctions: %w", err)
	}
	return nil
}
