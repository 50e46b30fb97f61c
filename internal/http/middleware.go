package httpx

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blog/internal/apperr"
	"blog/internal/auth"
	"blog/internal/util"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// withRequestID propagates the caller's X-Request-ID or assigns a new one.
func withRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// withAccessLog logs METHOD PATH -> STATUS (duration) and feeds the request
// metrics, labelled by route template rather than raw path.
func (s *Server) withAccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		status := c.Writer.Status()
		s.Metrics.ObserveRequest(c.Request.Method, c.FullPath(), status, d)
		s.Log.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", d.Truncate(time.Microsecond),
			"request_id", requestID(c),
		)
	}
}

func withCORS(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !slices.Contains(origins, origin) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestIDHeader)
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requireAuth resolves the bearer token to a stored user and places it in
// the request context, where caller reads it. Every failure is 401 with a
// Bearer challenge.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			s.Metrics.AuthEvent("resolve", "missing")
			unauthorized(c, "Not authenticated")
			return
		}

		user, err := s.Resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthenticated) {
				s.Metrics.AuthEvent("resolve", "rejected")
				unauthorized(c, "Could not validate credentials")
				return
			}
			s.Metrics.AuthEvent("resolve", "error")
			s.Log.ErrorContext(c.Request.Context(), "resolve token", "request_id", requestID(c), "error", err)
			util.RespondError(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		s.Metrics.AuthEvent("resolve", "ok")
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithTimeout bounds the whole request, handler included.
func WithTimeout(next http.Handler, d time.Duration) http.Handler {
	if d <= 0 {
		return next
	}
	return http.TimeoutHandler(next, d, `{"detail":"request timeout"}`)
}
