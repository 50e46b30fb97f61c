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

// UserFinder is the slice of storage the resolver needs.
type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Resolver turns a bearer token into the stored user it belongs to.
type Resolver struct {
	tokens *TokenService
	users  UserFinder
	log    *slog.Logger
}

func NewResolver(tokens *TokenService, users UserFinder, log *slog.Logger) *Resolver {
	return &Resolver{tokens: tokens, users: users, log: log}
}

// Resolve returns apperr.ErrUnauthenticated both for bad tokens and for
// valid tokens whose user no longer exists; the two are indistinguishable
// to the caller.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	p, err := r.tokens.Verify(token)
	if err != nil {
		r.log.DebugContext(ctx, "token rejected", "reason", err)
		return nil, apperr.ErrUnauthenticated
	}

	u, err := r.users.FindUserByID(ctx, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		r.log.DebugContext(ctx, "token subject no longer exists", "user_id", p.UserID)
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	if u.Role != p.Role {
		r.log.DebugContext(ctx, "token role differs from stored role",
			"user_id", u.ID, "token_role", p.Role.String(), "stored_role", u.Role.String())
	}
	return u, nil
}
