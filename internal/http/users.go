package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blog/internal/models"
	"blog/internal/util"
)

func (s *Server) handleMe(c *gin.Context) {
	util.Render(c, http.StatusOK, caller(c))
}

// handleListUsers is admin only.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.Blog.ListUsers(c.Request.Context(), caller(c))
	if err != nil {
		s.fail(c, err, userListFailure)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	util.Render(c, http.StatusOK, users)
}

// handleDeleteUser lets a user delete themselves, or an admin anyone. The
// user's posts go with them.
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.Blog.DeleteUser(c.Request.Context(), caller(c), id); err != nil {
		s.fail(c, err, userDeleteFailure)
		return
	}
	c.Status(http.StatusNoContent)
}
