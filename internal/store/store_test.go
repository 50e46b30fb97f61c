package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/internal/models"
)

// runStoreSuite exercises the behavior every Store implementation shares.
// newStore must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("insert and find user", func(t *testing.T) {
		s := newStore(t)
		u := &models.User{Email: "a@x.com", PasswordHash: "digest", Role: models.RoleAdmin}
		require.NoError(t, s.InsertUser(ctx, u))
		assert.NotZero(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())

		byEmail, err := s.FindUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, models.RoleAdmin, byEmail.Role)

		byID, err := s.FindUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "digest", byID.PasswordHash)
	})

	t.Run("email lookup is case sensitive", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.InsertUser(ctx, &models.User{Email: "a@x.com", PasswordHash: "d", Role: models.RoleUser}))

		_, err := s.FindUserByEmail(ctx, "A@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.InsertUser(ctx, &models.User{Email: "a@x.com", PasswordHash: "d", Role: models.RoleUser}))

		err := s.InsertUser(ctx, &models.User{Email: "a@x.com", PasswordHash: "d", Role: models.RoleUser})
		assert.ErrorIs(t, err, ErrDuplicate)

		n, err := s.CountUsers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("missing rows", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindUserByID(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindPostByID(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteUser(ctx, 404), ErrNotFound)
		assert.ErrorIs(t, s.DeletePost(ctx, 404), ErrNotFound)
		assert.ErrorIs(t, s.UpdatePost(ctx, &models.Post{ID: 404, Title: "t", Content: "c"}), ErrNotFound)
	})

	t.Run("post lifecycle", func(t *testing.T) {
		s := newStore(t)
		owner := &models.User{Email: "o@x.com", PasswordHash: "d", Role: models.RoleUser}
		require.NoError(t, s.InsertUser(ctx, owner))

		p := &models.Post{Title: "t", Content: "c", Published: true, OwnerID: owner.ID}
		require.NoError(t, s.InsertPost(ctx, p))
		assert.NotZero(t, p.ID)

		p.Title = "t2"
		p.Published = false
		require.NoError(t, s.UpdatePost(ctx, p))
		assert.Equal(t, owner.ID, p.OwnerID)

		got, err := s.FindPostByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "t2", got.Title)
		assert.False(t, got.Published)

		require.NoError(t, s.DeletePost(ctx, p.ID))
		_, err = s.FindPostByID(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("post for unknown owner", func(t *testing.T) {
		s := newStore(t)
		err := s.InsertPost(ctx, &models.Post{Title: "t", Content: "c", OwnerID: 999})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list posts by owner", func(t *testing.T) {
		s := newStore(t)
		a := &models.User{Email: "a@x.com", PasswordHash: "d", Role: models.RoleAdmin}
		b := &models.User{Email: "b@x.com", PasswordHash: "d", Role: models.RoleUser}
		require.NoError(t, s.InsertUser(ctx, a))
		require.NoError(t, s.InsertUser(ctx, b))
		for _, owner := range []int64{a.ID, b.ID, b.ID} {
			require.NoError(t, s.InsertPost(ctx, &models.Post{Title: "t", Content: "c", OwnerID: owner}))
		}

		all, err := s.ListPosts(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		mine, err := s.ListPostsByOwner(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 2)
		for _, p := range mine {
			assert.Equal(t, b.ID, p.OwnerID)
		}

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, a.ID, users[0].ID)
	})

	t.Run("deleting a user cascades to posts", func(t *testing.T) {
		s := newStore(t)
		u := &models.User{Email: "c@x.com", PasswordHash: "d", Role: models.RoleUser}
		require.NoError(t, s.InsertUser(ctx, u))
		p := &models.Post{Title: "t", Content: "c", OwnerID: u.ID}
		require.NoError(t, s.InsertPost(ctx, p))

		require.NoError(t, s.DeleteUser(ctx, u.ID))

		_, err := s.FindPostByID(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindUserByID(ctx, u.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("user lock rolls back on error", func(t *testing.T) {
		s := newStore(t)
		boom := errors.New("boom")
		err := s.WithUserLock(ctx, func(tx Store) error {
			if err := tx.InsertUser(ctx, &models.User{Email: "r@x.com", PasswordHash: "d", Role: models.RoleUser}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.FindUserByEmail(ctx, "r@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("user lock serializes count then insert", func(t *testing.T) {
		s := newStore(t)
		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.WithUserLock(ctx, func(tx Store) error {
					count, err := tx.CountUsers(ctx)
					if err != nil {
						return err
					}
					role := models.RoleUser
					if count == 0 {
						role = models.RoleAdmin
					}
					return tx.InsertUser(ctx, &models.User{
						Email:        string(rune('a'+i)) + "@x.com",
						PasswordHash: "d",
						Role:         role,
					})
				})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, n)
		admins := 0
		for _, u := range users {
			if u.Role == models.RoleAdmin {
				admins++
			}
		}
		assert.Equal(t, 1, admins)
	})
}

func TestMemory(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemory() })
}
