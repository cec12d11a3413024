package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"langquiz-service/internal/domain"
)

// AccountService manages user identities. Credentials live outside this
// service; callers authenticate with tokens minted for a user id.
type AccountService struct {
	store Store
	now   func() time.Time
}

func NewAccountService(store Store) *AccountService {
	return &AccountService{store: store, now: time.Now}
}

// CreateUser registers a new account with a single role.
func (s *AccountService) CreateUser(ctx context.Context, email string, role domain.Role) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.Invalid("email", "must be a valid email address")
	}
	if !role.Valid() {
		return domain.User{}, domain.Invalid("role", "must be %q or %q", domain.RoleLearner, domain.RoleCreator)
	}

	user := domain.User{Email: email, Role: role, CreatedAt: domain.StorageTime(s.now())}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			return domain.ErrEmailTaken
		case !errors.Is(err, domain.ErrUserNotFound):
			return err
		}
		return tx.CreateUser(ctx, &user)
	})
	return user, err
}

// GetUser looks an account up by id.
func (s *AccountService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var user domain.User
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		user, err = tx.GetUser(ctx, id)
		return err
	})
	return user, err
}

// FindByEmail looks an account up by its normalised email.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		return err
	})
	return user, err
}
