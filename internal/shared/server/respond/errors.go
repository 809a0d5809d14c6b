package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every plain error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error aborts the request with {"error": message}.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// NotFound is the fallback for unmatched paths.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers known paths hit with an unsupported method.
func MethodNotAllowed(allow string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Allow", allow)
		Error(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

// InternalError is written when a handler panics.
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal Server Error")
}
