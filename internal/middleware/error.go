package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "goze/internal/errors"
	"goze/internal/response"
)

// ErrorHandler renders errors attached with c.Error once the chain returns.
// Binding errors become INVALID_INPUT; a handler that already wrote a body
// wins.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		if last.IsType(gin.ErrorTypeBind) {
			response.Error(c, apperrors.Wrap(apperrors.ErrInvalidInput, last.Err))
			return
		}
		response.Error(c, last.Err)
	}
}
