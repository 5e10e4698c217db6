// Package response writes the JSON envelope every API response is wrapped in:
// {"success": bool, "data": ...}, where data is an APIError on failure.
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "goze/internal/errors"
	"goze/internal/logger"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// APIError is the data of a failed response.
type APIError struct {
	Status      int       `json:"status"`
	Path        string    `json:"path"`
	Error       string    `json:"error"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// OK writes a successful envelope.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Error writes a failed envelope for err. AppErrors keep their status, code
// and message; anything else is logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	c.JSON(resolve(c, err))
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(resolve(c, err))
}

func resolve(c *gin.Context, err error) (int, Envelope) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	description := appErr.Message
	if appErr.StatusCode >= http.StatusInternalServerError && appErr.Code == apperrors.ErrInternalServer.Code {
		description = apperrors.ErrInternalServer.Message
	}

	return appErr.StatusCode, Envelope{
		Success: false,
		Data: APIError{
			Status:      appErr.StatusCode,
			Path:        c.Request.URL.Path,
			Error:       appErr.Code,
			Description: description,
			Timestamp:   time.Now().UTC(),
		},
	}
}
