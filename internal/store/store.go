// Package store is the persistence layer for users and posts.
package store

import (
	"context"
	"errors"

	"blog/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Store is implemented by Postgres and Memory. Every call either fully
// applies or fails.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	InsertUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)

	FindPostByID(ctx context.Context, id int64) (*models.Post, error)
	InsertPost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByOwner(ctx context.Context, ownerID int64) ([]models.Post, error)

	// WithUserLock runs fn with user creation serialized against every
	// other WithUserLock call. Writes made through the Store passed to fn
	// are committed only if fn returns nil.
	WithUserLock(ctx context.Context, fn func(Store) error) error
}
