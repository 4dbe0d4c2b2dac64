package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/facetlabs/facet/pkg/auth"
	"github.com/facetlabs/facet/pkg/database"
	"github.com/facetlabs/facet/pkg/events"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("user account is deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// CreateUserCommand is issued by an admin to provision an account.
type CreateUserCommand struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// UserCreatedEvent is the outbox payload for events.TypeUserCreated.
type UserCreatedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Service implements account administration and authentication.
type Service struct {
	repo       Repository
	outboxRepo OutboxRepository
	txManager  database.TransactionManager
	signer     *auth.Signer
	denylist   TokenDenylist
}

func NewService(
	repo Repository,
	outboxRepo OutboxRepository,
	txManager database.TransactionManager,
	signer *auth.Signer,
	denylist TokenDenylist,
) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		txManager:  txManager,
		signer:     signer,
		denylist:   denylist,
	}
}

// Create provisions a new account. The user row and the user.created event
// are written in the same transaction.
func (s *Service) Create(ctx context.Context, cmd CreateUserCommand) (*User, error) {
	if err := validateNewUser(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, err := s.repo.GetByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := cmd.Role
	if role == "" {
		role = RoleUser
	}

	now := time.Now()
	user := &User{
		ID:           uuid.New(),
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.repo.Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	payload, err := json.Marshal(UserCreatedEvent{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: events.TypeUserCreated,
		Payload:   payload,
		Status:    events.OutboxStatusPending,
		CreatedAt: now,
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, outboxEvent); err != nil {
		return nil, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// List returns all accounts, newest first.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	us, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return us, nil
}

// Get retrieves an account by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// SetActive toggles an account's active flag. Inactive users cannot log in
// or place bids.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, isActive bool) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if err := s.repo.UpdateActive(ctx, id, isActive); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	u.IsActive = isActive
	return u, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrAccountDeactivated
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.signer.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	until := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.denylist.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func validateNewUser(cmd CreateUserCommand) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if !strings.Contains(cmd.Email, "@") || len(cmd.Email) < 3 {
		return errors.New("invalid email format")
	}
	if len(cmd.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if cmd.Role != "" && !cmd.Role.IsValid() {
		return errors.New("role must be ADMIN or USER")
	}
	return nil
}
