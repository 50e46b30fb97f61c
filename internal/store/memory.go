package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"blog/internal/models"
)

// Memory is a process-local Store. It backs the test suites and the
// "memory" storage driver; nothing survives a restart.
type Memory struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	posts      map[int64]models.Post
	nextUserID int64
	nextPostID int64
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[int64]models.User),
		posts: make(map[int64]models.Post),
		now:   time.Now,
	}
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *Memory) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.nextUserID++
	u.ID = m.nextUserID
	u.CreatedAt = m.now().UTC()
	m.users[u.ID] = *u
	return nil
}

// DeleteUser removes the user and, like the Postgres foreign key, every
// post the user owns.
func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	for pid, p := range m.posts {
		if p.OwnerID == id {
			delete(m.posts, pid)
		}
	}
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *Memory) FindPostByID(_ context.Context, id int64) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) InsertPost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.OwnerID]; !ok {
		return ErrNotFound
	}
	m.nextPostID++
	p.ID = m.nextPostID
	p.CreatedAt = m.now().UTC()
	m.posts[p.ID] = *p
	return nil
}

func (m *Memory) UpdatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[p.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title = p.Title
	cur.Content = p.Content
	cur.Published = p.Published
	m.posts[p.ID] = cur
	*p = cur
	return nil
}

func (m *Memory) DeletePost(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *Memory) ListPosts(_ context.Context) ([]models.Post, error) {
	return m.filterPosts(func(models.Post) bool { return true }), nil
}

func (m *Memory) ListPostsByOwner(_ context.Context, ownerID int64) ([]models.Post, error) {
	return m.filterPosts(func(p models.Post) bool { return p.OwnerID == ownerID }), nil
}

// WithUserLock holds the write lock for the whole of fn and runs fn
// against a copy of the data, which replaces the live data on success.
func (m *Memory) WithUserLock(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &Memory{
		users:      maps.Clone(m.users),
		posts:      maps.Clone(m.posts),
		nextUserID: m.nextUserID,
		nextPostID: m.nextPostID,
		now:        m.now,
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.users, m.posts = tx.users, tx.posts
	m.nextUserID, m.nextPostID = tx.nextUserID, tx.nextPostID
	return nil
}

func (m *Memory) filterPosts(keep func(models.Post) bool) []models.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Post, 0)
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Post) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
