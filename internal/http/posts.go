package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blog/internal/blog"
	"blog/internal/models"
	"blog/internal/util"
)

type postRequest struct {
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Published *bool  `json:"published"`
}

func (r postRequest) input() blog.PostInput {
	return blog.PostInput{Title: r.Title, Content: r.Content, Published: r.Published}
}

type patchRequest struct {
	Title     *string `json:"title" binding:"omitempty,min=1"`
	Content   *string `json:"content" binding:"omitempty,min=1"`
	Published *bool   `json:"published"`
}

func (s *Server) handleListPosts(c *gin.Context) {
	posts, err := s.Blog.ListPosts(c.Request.Context(), caller(c))
	if err != nil {
		s.fail(c, err, postReadFailure)
		return
	}
	renderPosts(c, posts)
}

func (s *Server) handleListOwnPosts(c *gin.Context) {
	posts, err := s.Blog.ListOwnPosts(c.Request.Context(), caller(c))
	if err != nil {
		s.fail(c, err, postReadFailure)
		return
	}
	renderPosts(c, posts)
}

func (s *Server) handleGetPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	post, err := s.Blog.GetPost(c.Request.Context(), caller(c), id)
	if err != nil {
		s.fail(c, err, postReadFailure)
		return
	}
	util.Render(c, http.StatusOK, post)
}

func (s *Server) handleCreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	post, err := s.Blog.CreatePost(c.Request.Context(), caller(c), req.input())
	if err != nil {
		s.fail(c, err, postReadFailure)
		return
	}
	util.Render(c, http.StatusCreated, post)
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	post, err := s.Blog.UpdatePost(c.Request.Context(), caller(c), id, req.input())
	if err != nil {
		s.fail(c, err, postUpdateFailure)
		return
	}
	util.Render(c, http.StatusOK, post)
}

func (s *Server) handlePatchPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	patch := models.PostPatch{Title: req.Title, Content: req.Content, Published: req.Published}
	post, err := s.Blog.PatchPost(c.Request.Context(), caller(c), id, patch)
	if err != nil {
		s.fail(c, err, postUpdateFailure)
		return
	}
	util.Render(c, http.StatusOK, post)
}

func (s *Server) handleDeletePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.Blog.DeletePost(c.Request.Context(), caller(c), id); err != nil {
		s.fail(c, err, postDeleteFailure)
		return
	}
	c.Status(http.StatusNoContent)
}

func renderPosts(c *gin.Context, posts []models.Post) {
	if posts == nil {
		posts = []models.Post{}
	}
	util.Render(c, http.StatusOK, posts)
}
