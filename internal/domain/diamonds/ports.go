package diamonds

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for diamond persistence.
type Repository interface {
	Create(ctx context.Context, d *Diamond) error
	GetByID(ctx context.Context, id uuid.UUID) (*Diamond, error)
	Update(ctx context.Context, d *Diamond) error
	// List returns diamonds newest first.
	List(ctx context.Context) ([]*Diamond, error)
}
