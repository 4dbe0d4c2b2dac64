package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetlabs/facet/pkg/auth"
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

type fakeUserRepo struct {
	users map[uuid.UUID]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, tx pgx.Tx, u *User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*User, error) {
	var out []*User
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	u, ok := r.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.IsActive = isActive
	return nil
}

type fakeOutbox struct {
	saved []*events.OutboxEvent
}

func (o *fakeOutbox) SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error {
	o.saved = append(o.saved, event)
	return nil
}

type fakeDenylist struct {
	revoked map[string]time.Time
}

func (d *fakeDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	if d.revoked == nil {
		d.revoked = make(map[string]time.Time)
	}
	d.revoked[jti] = until
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *fakeOutbox, *fakeDenylist) {
	t.Helper()

	repo := newFakeUserRepo()
	outbox := &fakeOutbox{}
	denylist := &fakeDenylist{}
	signer := auth.NewSigner([]byte("test-secret"), "facet-test", time.Hour)
	svc := NewService(repo, outbox, &fakeTxManager{}, signer, denylist)
	return svc, repo, outbox, denylist
}

func validCommand() CreateUserCommand {
	return CreateUserCommand{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "supersecret123",
	}
}

func TestCreate(t *testing.T) {
	svc, _, outbox, _ := newTestService(t)

	user, err := svc.Create(context.Background(), validCommand())
	require.NoError(t, err)

	assert.Equal(t, RoleUser, user.Role, "role defaults to USER")
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "supersecret123", user.PasswordHash, "password must be hashed")

	require.Len(t, outbox.saved, 1)
	assert.Equal(t, events.TypeUserCreated, outbox.saved[0].EventType)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateUserCommand)
	}{
		{"empty name", func(c *CreateUserCommand) { c.Name = "  " }},
		{"bad email", func(c *CreateUserCommand) { c.Email = "not-an-email" }},
		{"short password", func(c *CreateUserCommand) { c.Password = "short" }},
		{"unknown role", func(c *CreateUserCommand) { c.Role = Role("SUPERUSER") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validCommand()
			tt.mutate(&cmd)
			_, err := svc.Create(ctx, cmd)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCommand())
	require.NoError(t, err)

	_, err = svc.Create(ctx, validCommand())
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCommand())
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "ada@example.com", "supersecret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCommand())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCommand())
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, created.ID, false)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ada@example.com", "supersecret123")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestSetActive_Reactivation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCommand())
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, created.ID, false)
	require.NoError(t, err)
	u, err := svc.SetActive(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, _, err = svc.Login(ctx, "ada@example.com", "supersecret123")
	assert.NoError(t, err)
}

func TestSetActive_UnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.SetActive(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogout_RevokesTokenUntilExpiry(t *testing.T) {
	svc, _, _, denylist := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCommand())
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "ada@example.com", "supersecret123")
	require.NoError(t, err)

	signer := auth.NewSigner([]byte("test-secret"), "facet-test", time.Hour)
	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	until, ok := denylist.revoked[claims.ID]
	require.True(t, ok, "jti must be revoked")
	assert.Equal(t, claims.ExpiresAt.Time, until)
	_ = created
}
