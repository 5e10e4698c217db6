package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "goze/internal/errors"
	"goze/internal/response"
)

// APIKeyHeader is the header checked by APIKeyMiddleware.
const APIKeyHeader = "X-API-Key"

var (
	errAPIKeyNotConfigured = &apperrors.AppError{Code: "API_KEY_NOT_CONFIGURED", Message: "Internal endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
	errInvalidAPIKey       = &apperrors.AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// APIKeyMiddleware guards operator endpoints, such as an externally
// triggered sync run, with a shared key sent in X-API-Key. An empty
// configured key disables the endpoints.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			response.Abort(c, errAPIKeyNotConfigured)
			return
		}
		key := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			response.Abort(c, errInvalidAPIKey)
			return
		}
		c.Next()
	}
}
