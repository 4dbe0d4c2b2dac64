package diamonds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrDiamondNotFound  = errors.New("diamond not found")
	ErrInvalidName      = errors.New("diamond name cannot be empty")
	ErrInvalidBasePrice = errors.New("base price must be a positive number")
)

// CreateDiamondCommand represents the command to register a new diamond.
type CreateDiamondCommand struct {
	Name      string
	ImageURL  string
	BasePrice decimal.Decimal
}

// UpdateDiamondCommand updates a diamond's editable fields. Nil/empty fields
// are left unchanged.
type UpdateDiamondCommand struct {
	DiamondID uuid.UUID
	Name      string
	ImageURL  string
	BasePrice *decimal.Decimal
}

// Service implements diamond administration.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new diamond.
func (s *Service) Create(ctx context.Context, cmd CreateDiamondCommand) (*Diamond, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, ErrInvalidName
	}
	if cmd.BasePrice.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidBasePrice
	}

	now := time.Now()
	d := &Diamond{
		ID:        uuid.New(),
		Name:      cmd.Name,
		ImageURL:  cmd.ImageURL,
		BasePrice: cmd.BasePrice,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create diamond: %w", err)
	}
	return d, nil
}

// Get retrieves a diamond by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Diamond, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrDiamondNotFound
	}
	return d, nil
}

// List returns all diamonds, newest first.
func (s *Service) List(ctx context.Context) ([]*Diamond, error) {
	ds, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list diamonds: %w", err)
	}
	return ds, nil
}

// Update modifies a diamond's editable fields.
func (s *Service) Update(ctx context.Context, cmd UpdateDiamondCommand) (*Diamond, error) {
	d, err := s.repo.GetByID(ctx, cmd.DiamondID)
	if err != nil {
		return nil, ErrDiamondNotFound
	}

	if cmd.Name != "" {
		d.Name = cmd.Name
	}
	if cmd.ImageURL != "" {
		d.ImageURL = cmd.ImageURL
	}
	if cmd.BasePrice != nil {
		if cmd.BasePrice.LessThanOrEqual(decimal.Zero) {
			return nil, ErrInvalidBasePrice
		}
		d.BasePrice = *cmd.BasePrice
	}
	d.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update diamond: %w", err)
	}
	return d, nil
}
