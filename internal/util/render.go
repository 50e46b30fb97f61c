package util

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// RespondError aborts the request with {"detail": msg}.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Detail: msg})
}

// Render writes data as JSON with the given status.
func Render(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}
