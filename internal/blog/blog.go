// Package blog implements the post and user operations exposed over HTTP.
// Every mutating operation looks the resource up first, so a missing id is
// reported as not found before the access policy is consulted.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"blog/internal/apperr"
	"blog/internal/auth"
	"blog/internal/models"
	"blog/internal/store"
)

type Service struct {
	store store.Store
	log   *slog.Logger
}

func NewService(st store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log}
}

// PostInput is a full post body; Published defaults to true when nil.
type PostInput struct {
	Title     string
	Content   string
	Published *bool
}

func (in PostInput) published() bool {
	return in.Published == nil || *in.Published
}

func (s *Service) ListPosts(ctx context.Context, _ *models.User) ([]models.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListOwnPosts returns apperr.ErrNotFound when the caller owns no posts.
func (s *Service) ListOwnPosts(ctx context.Context, caller *models.User) ([]models.Post, error) {
	posts, err := s.store.ListPostsByOwner(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list own posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, apperr.ErrNotFound
	}
	return posts, nil
}

func (s *Service) GetPost(ctx context.Context, _ *models.User, id int64) (*models.Post, error) {
	return s.findPost(ctx, id)
}

func (s *Service) CreatePost(ctx context.Context, caller *models.User, in PostInput) (*models.Post, error) {
	p := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		Published: in.published(),
		OwnerID:   caller.ID,
	}
	if err := s.store.InsertPost(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.log.InfoContext(ctx, "post created", "post_id", p.ID, "owner_id", caller.ID)
	return p, nil
}

func (s *Service) UpdatePost(ctx context.Context, caller *models.User, id int64, in PostInput) (*models.Post, error) {
	published := in.published()
	return s.patchPost(ctx, caller, id, "update", models.PostPatch{
		Title:     &in.Title,
		Content:   &in.Content,
		Published: &published,
	})
}

func (s *Service) PatchPost(ctx context.Context, caller *models.User, id int64, patch models.PostPatch) (*models.Post, error) {
	return s.patchPost(ctx, caller, id, "patch", patch)
}

func (s *Service) DeletePost(ctx context.Context, caller *models.User, id int64) error {
	p, err := s.findPost(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, caller, p.OwnerID, "delete post", id); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return s.notFoundOr(err, "delete post")
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, caller *models.User) ([]models.User, error) {
	d := auth.CanListAll(caller.Role)
	if !d.Allowed() {
		s.log.InfoContext(ctx, "access denied", "action", "list users", "caller_id", caller.ID)
		return nil, apperr.ErrForbidden
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user and, through the store, all of their posts.
func (s *Service) DeleteUser(ctx context.Context, caller *models.User, id int64) error {
	if _, err := s.store.FindUserByID(ctx, id); err != nil {
		return s.notFoundOr(err, "find user")
	}
	if err := s.authorize(ctx, caller, id, "delete user", id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return s.notFoundOr(err, "delete user")
	}
	return nil
}

func (s *Service) patchPost(ctx context.Context, caller *models.User, id int64, action string, patch models.PostPatch) (*models.Post, error) {
	p, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, caller, p.OwnerID, action+" post", id); err != nil {
		return nil, err
	}
	patch.Apply(p)
	if err := s.store.UpdatePost(ctx, p); err != nil {
		return nil, s.notFoundOr(err, action+" post")
	}
	return p, nil
}

func (s *Service) findPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "find post")
	}
	return p, nil
}

// authorize applies CanModify and logs which rule decided.
func (s *Service) authorize(ctx context.Context, caller *models.User, ownerID int64, action string, id int64) error {
	d := auth.CanModify(caller.ID, caller.Role, ownerID)
	s.log.DebugContext(ctx, "access decision",
		"action", action, "id", id, "caller_id", caller.ID, "owner_id", ownerID, "decision", d.String())
	if !d.Allowed() {
		return apperr.ErrForbidden
	}
	return nil
}

func (s *Service) notFoundOr(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
