package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/store"
)

// ErrInvalidCredentials is returned by Authenticate for both an unknown
// login and a wrong password, so callers cannot probe for usernames.
var ErrInvalidCredentials = errors.New("invalid username or password")

var ErrDuplicateUser = errors.New("username or email already registered")

type RegisterParams struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     models.Role
}

type UpdateUserParams struct {
	Email    *string
	FullName *string
	Password *string
	Role     *models.Role
	IsActive *bool
}

// UserService covers registration, login, and account management.
type UserService struct {
	users UserStore
	now   func() time.Time
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: time.Now}
}

// Register creates an account. Self-registration always gets the "user"
// role; an admin creating accounts may pass any valid role.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	role := p.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidArgument, p.Role)
	}
	if len(p.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, MinPasswordLength)
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: hash,
		FullName:     p.FullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist.
// An already-registered username is not an error so startup stays
// idempotent.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if password == "" {
		return fmt.Errorf("%w: bootstrap admin requires a password", ErrInvalidArgument)
	}
	_, err := s.Register(ctx, RegisterParams{
		Username: username,
		Email:    email,
		Password: password,
		FullName: "Administrator",
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, ErrDuplicateUser) {
		return nil
	}
	return err
}

// Authenticate verifies a username/password pair. Disabled accounts fail
// distinctly so the client can tell the account exists but is locked.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// Best effort; a failed last-login write must not fail the login.
	_ = s.users.RecordLogin(ctx, user.ID, s.now())
	return user, nil
}

// Update applies account changes. Non-admin callers may only change their
// own email, full name, and password; role and active flags are admin-only.
func (s *UserService) Update(ctx context.Context, caller *Principal, userID uuid.UUID, p UpdateUserParams) (*models.User, error) {
	isAdmin := caller.Role == models.RoleAdmin
	if !isAdmin && caller.UserID != userID {
		return nil, ErrForbidden
	}
	if !isAdmin && (p.Role != nil || p.IsActive != nil) {
		return nil, ErrForbidden
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.FullName != nil {
		user.FullName = *p.FullName
	}
	if p.Password != nil {
		if len(*p.Password) < MinPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, MinPasswordLength)
		}
		hash, err := HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidArgument, *p.Role)
		}
		user.Role = *p.Role
	}
	if p.IsActive != nil {
		user.IsActive = *p.IsActive
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.users.ListUsers(ctx, limit, offset)
}

// Delete removes an account. An admin cannot delete their own account,
// which keeps at least one admin reachable.
func (s *UserService) Delete(ctx context.Context, caller *Principal, userID uuid.UUID) error {
	if caller.UserID == userID {
		return ErrForbidden
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
