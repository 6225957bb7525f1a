package services

import (
	"context"
	"errors"

	"github.com/msb-blog/apiserver/internal/auth"
	"github.com/msb-blog/apiserver/internal/store"
	"github.com/msb-blog/apiserver/types"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	GetByCredentials(ctx context.Context, email, digest string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) error
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Authenticate verifies the credentials with a single exact-match
// lookup against the stored digest. It reports ok=false for both an
// unknown email and a wrong password; the caller cannot distinguish
// the two.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.Identity, bool, error) {
	user, err := s.repo.GetByCredentials(ctx, email, auth.SaltedHash(password))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Identity{}, false, nil
		}
		return types.Identity{}, false, err
	}
	return types.Identity{Email: user.Email, Handle: user.Handle}, true, nil
}

// GetByEmail fetches one account.
func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Provision creates an account with a digested password. Used by the
// createuser command, not by any public endpoint.
func (s *UserService) Provision(ctx context.Context, email, handle, password string) error {
	return s.repo.Create(ctx, types.User{
		Email:    email,
		Handle:   handle,
		Password: auth.SaltedHash(password),
	})
}
