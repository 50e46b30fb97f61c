package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog/internal/models"
)

// userLockKey identifies the advisory lock taken by WithUserLock.
const userLockKey int64 = 0x626c6f67_75736572

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the pgx-backed Store. Within WithUserLock it is bound to a
// transaction instead of the pool.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

const userColumns = `id, email, password, role, created_at`

func (s *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *Postgres) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return u, nil
}

func (s *Postgres) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Postgres) InsertUser(ctx context.Context, u *models.User) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO users (email, password, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.Role.String(),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (s *Postgres) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (models.User, error) {
		u, err := scanUser(r)
		if err != nil {
			return models.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

const postColumns = `id, title, content, published, created_at, owner_id`

func (s *Postgres) FindPostByID(ctx context.Context, id int64) (*models.Post, error) {
	row := s.q.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("find post %d: %w", id, err)
	}
	return p, nil
}

func (s *Postgres) InsertPost(ctx context.Context, p *models.Post) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO posts (title, content, published, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		p.Title, p.Content, p.Published, p.OwnerID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", translate(err))
	}
	return nil
}

func (s *Postgres) UpdatePost(ctx context.Context, p *models.Post) error {
	row := s.q.QueryRow(ctx, `
		UPDATE posts SET title = $2, content = $3, published = $4
		WHERE id = $1
		RETURNING `+postColumns,
		p.ID, p.Title, p.Content, p.Published,
	)
	updated, err := scanPost(row)
	if err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	*p = *updated
	return nil
}

func (s *Postgres) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete post %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Postgres) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.listPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id`)
}

func (s *Postgres) ListPostsByOwner(ctx context.Context, ownerID int64) ([]models.Post, error) {
	return s.listPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE owner_id = $1 ORDER BY id`, ownerID)
}

// WithUserLock runs fn in a transaction holding a transaction-scoped
// advisory lock, so concurrent registrations see each other's inserts.
func (s *Postgres) WithUserLock(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return errors.New("store: nested WithUserLock")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userLockKey); err != nil {
		return fmt.Errorf("acquire user lock: %w", err)
	}
	if err := fn(&Postgres{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Postgres) listPosts(ctx context.Context, sql string, args ...any) ([]models.Post, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (models.Post, error) {
		p, err := scanPost(r)
		if err != nil {
			return models.Post{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, translate(err)
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Role = r
	return &u, nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.OwnerID); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// translate maps driver errors onto the store's sentinel errors.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}
