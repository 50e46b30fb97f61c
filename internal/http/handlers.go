package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blog/internal/app"
	"blog/internal/apperr"
	"blog/internal/auth"
	"blog/internal/blog"
	"blog/internal/metrics"
	"blog/internal/models"
	"blog/internal/util"
)

// Deps are the services the HTTP layer drives.
type Deps struct {
	Auth     *auth.Service
	Resolver *auth.Resolver
	Blog     *blog.Service
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

type Server struct {
	Deps
	Cfg    app.Config
	Engine *gin.Engine
}

func NewServer(cfg app.Config, deps Deps) *Server {
	s := &Server{Deps: deps, Cfg: cfg, Engine: gin.New()}

	r := s.Engine
	r.Use(withRequestID(), s.withAccessLog(), gin.Recovery(), withCORS(cfg.HTTP.AllowedOrigins))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "blog api"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/login", s.handleLogin)
	v1.POST("/login/", s.handleLogin)

	users := v1.Group("/user")
	users.POST("/create", s.handleRegister)
	users.GET("/me", s.requireAuth(), s.handleMe)
	users.GET("/all", s.requireAuth(), s.handleListUsers)
	users.DELETE("/delete/:id", s.requireAuth(), s.handleDeleteUser)

	posts := v1.Group("/post", s.requireAuth())
	posts.GET("/", s.handleListPosts)
	posts.GET("/own", s.handleListOwnPosts)
	posts.GET("/:id", s.handleGetPost)
	posts.POST("/create", s.handleCreatePost)
	posts.PUT("/update/:id", s.handleUpdatePost)
	posts.PATCH("/patch/:id", s.handlePatchPost)
	posts.DELETE("/delete/:id", s.handleDeletePost)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.Engine.ServeHTTP(w, r) }

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerResponse struct {
	User *models.User `json:"user"`
	tokenResponse
}

// handleLogin accepts the OAuth2 password form (username carries the email)
// as well as a JSON body with the same fields.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		util.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	token, err := s.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.Metrics.AuthEvent("login", outcome(err))
		s.fail(c, err, authFailure)
		return
	}
	s.Metrics.AuthEvent("login", "ok")
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, token, err := s.Auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.Metrics.AuthEvent("register", outcome(err))
		s.fail(c, err, authFailure)
		return
	}
	s.Metrics.AuthEvent("register", "ok")
	c.JSON(http.StatusCreated, registerResponse{
		User:          user,
		tokenResponse: tokenResponse{AccessToken: token, TokenType: "bearer"},
	})
}

// failure carries the request-specific wording for error responses.
type failure struct {
	what   string // resource named in not-found messages
	denied string // 403 detail when the policy refuses
}

var (
	authFailure       = failure{}
	postReadFailure   = failure{what: "Post"}
	postUpdateFailure = failure{what: "Post", denied: "Not authorized to update this post"}
	postDeleteFailure = failure{what: "Post", denied: "Not authorized to delete this post"}
	userListFailure   = failure{what: "User", denied: "Admins only"}
	userDeleteFailure = failure{what: "User", denied: "Not authorized to delete this user"}
)

// fail maps a service error onto a status code.
func (s *Server) fail(c *gin.Context, err error, f failure) {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		util.RespondError(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, apperr.ErrInvalidCredentials):
		util.RespondError(c, http.StatusForbidden, "Invalid Credentials")
	case errors.Is(err, apperr.ErrUnauthenticated):
		unauthorized(c, "Invalid credentials")
	case errors.Is(err, apperr.ErrForbidden):
		msg := f.denied
		if msg == "" {
			msg = "Not authorized to perform this action"
		}
		util.RespondError(c, http.StatusForbidden, msg)
	case errors.Is(err, apperr.ErrNotFound):
		what := f.what
		if what == "" {
			what = "Resource"
		}
		util.RespondError(c, http.StatusNotFound, what+" not found")
	default:
		s.Log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "request_id", requestID(c), "error", err)
		util.RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	util.RespondError(c, http.StatusUnauthorized, msg)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, apperr.ErrUnauthenticated):
		return "unauthenticated"
	}
	return "error"
}

// caller returns the user stored by requireAuth.
func caller(c *gin.Context) *models.User {
	u, _ := auth.UserFrom(c.Request.Context())
	return u
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		util.RespondError(c, http.StatusUnprocessableEntity, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
