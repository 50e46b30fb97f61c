// Package auth holds password hashing, access tokens, the owner/admin access
// policy, and the register and login flows built on them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"blog/internal/apperr"
	"blog/internal/models"
	"blog/internal/store"
)

// ----------------------------
// Context helpers
// ----------------------------

type ctxKeyUser struct{}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(*models.User)
	return u, ok && u != nil
}

// ----------------------------
// Register / Login
// ----------------------------

// Registry is the storage the flows need. Registration runs under
// WithUserLock so the email check, the user count and the insert see one
// consistent state.
type Registry interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	WithUserLock(ctx context.Context, fn func(store.Store) error) error
}

type Service struct {
	users  Registry
	hasher *PasswordHasher
	tokens *TokenService
	log    *slog.Logger

	// dummyDigest is compared against when the email is unknown, so a
	// failed lookup costs the same as a wrong password.
	dummyDigest string
}

func NewService(users Registry, hasher *PasswordHasher, tokens *TokenService, log *slog.Logger) (*Service, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &Service{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		log:         log,
		dummyDigest: dummy,
	}, nil
}

// Register creates a user and returns it with a fresh token. The first user
// ever registered becomes admin.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	var (
		user  *models.User
		token string
	)
	err := s.users.WithUserLock(ctx, func(tx store.Store) error {
		_, err := tx.FindUserByEmail(ctx, email)
		switch {
		case err == nil:
			return apperr.ErrConflict
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		digest, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}

		count, err := tx.CountUsers(ctx)
		if err != nil {
			return err
		}
		role := models.RoleUser
		if count == 0 {
			role = models.RoleAdmin
		}

		u := &models.User{Email: email, PasswordHash: digest, Role: role}
		if err := tx.InsertUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.ErrConflict
			}
			return err
		}

		t, err := s.tokens.Issue(u.ID, u.Role)
		if err != nil {
			return err
		}
		user, token = u, t
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.log.InfoContext(ctx, "register: email already registered")
			return nil, "", err
		}
		return nil, "", fmt.Errorf("register: %w", err)
	}

	s.log.InfoContext(ctx, "register: OK", "user_id", user.ID, "role", user.Role.String())
	return user, token, nil
}

// Login returns a token for valid credentials. Unknown email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.hasher.Verify(password, s.dummyDigest)
		s.log.InfoContext(ctx, "login: rejected", "reason", "unknown email")
		return "", apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.log.InfoContext(ctx, "login: rejected", "reason", "bad password", "user_id", u.ID)
		return "", apperr.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	s.log.InfoContext(ctx, "login: OK", "user_id", u.ID)
	return token, nil
}
