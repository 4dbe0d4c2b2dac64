package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facetlabs/facet/pkg/events"
)

// Repository defines the interface for user persistence.
type Repository interface {
	// Create inserts a user within a transaction.
	Create(ctx context.Context, tx pgx.Tx, u *User) error

	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail returns (nil, nil) when no user has the email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns users newest first.
	List(ctx context.Context) ([]*User, error)

	UpdateActive(ctx context.Context, id uuid.UUID, isActive bool) error
}

// OutboxRepository persists domain events alongside user writes.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}

// TokenDenylist revokes issued tokens until their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}
