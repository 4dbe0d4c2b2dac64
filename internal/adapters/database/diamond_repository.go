package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facetlabs/facet/internal/domain/diamonds"
)

// PostgresDiamondRepository implements diamonds.Repository using pgx
type PostgresDiamondRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresDiamondRepository creates a new PostgreSQL diamond repository
func NewPostgresDiamondRepository(pool *pgxpool.Pool) *PostgresDiamondRepository {
	return &PostgresDiamondRepository{pool: pool}
}

func (r *PostgresDiamondRepository) Create(ctx context.Context, d *diamonds.Diamond) error {
	query := `
		INSERT INTO diamonds (id, name, image_url, base_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		d.ID,
		d.Name,
		d.ImageURL,
		d.BasePrice,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert diamond: %w", err)
	}
	return nil
}

func (r *PostgresDiamondRepository) GetByID(ctx context.Context, id uuid.UUID) (*diamonds.Diamond, error) {
	query := `
		SELECT id, name, COALESCE(image_url, ''), base_price, created_at, updated_at
		FROM diamonds
		WHERE id = $1
	`
	var d diamonds.Diamond
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.ImageURL,
		&d.BasePrice,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("diamond not found")
		}
		return nil, fmt.Errorf("failed to get diamond: %w", err)
	}
	return &d, nil
}

func (r *PostgresDiamondRepository) Update(ctx context.Context, d *diamonds.Diamond) error {
	query := `
		UPDATE diamonds
		SET name = $1, image_url = $2, base_price = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.pool.Exec(ctx, query,
		d.Name,
		d.ImageURL,
		d.BasePrice,
		d.UpdatedAt,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update diamond: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("diamond not found")
	}
	return nil
}

func (r *PostgresDiamondRepository) List(ctx context.Context) ([]*diamonds.Diamond, error) {
	query := `
		SELECT id, name, COALESCE(image_url, ''), base_price, created_at, updated_at
		FROM diamonds
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query diamonds: %w", err)
	}
	defer rows.Close()

	var result []*diamonds.Diamond
	for rows.Next() {
		var d diamonds.Diamond
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.ImageURL,
			&d.BasePrice,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan diamond: %w", err)
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diamonds: %w", err)
	}
	return result, nil
}
