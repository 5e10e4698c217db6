package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "goze/internal/errors"
	"goze/internal/models"
	"goze/internal/response"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// Cookie names carrying the token pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthMiddleware reads the access token from the accessToken cookie, falling
// back to an "Authorization: Bearer" header, and sets the caller's user ID
// and username in the context. Handlers must take identity from here, never
// from request bodies.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := AccessToken(c)
		if tokenString == "" {
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Next()
	}
}

// AccessToken returns the request's access token, or "" when none was sent.
func AccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
