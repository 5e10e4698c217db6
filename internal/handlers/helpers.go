package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "goze/internal/errors"
	"goze/internal/middleware"
	"goze/internal/response"
	"goze/internal/token"
	"goze/internal/uuid"
)

// ErrorResponse documents the failed envelope.
type ErrorResponse struct {
	Success bool              `json:"success" example:"false"`
	Data    response.APIError `json:"data"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// CookieConfig controls the token cookies set by the auth endpoints.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

// DefaultCookieConfig keeps both cookies for one hour.
var DefaultCookieConfig = CookieConfig{MaxAge: time.Hour, Secure: true}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID parses a UUID path parameter.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// respondWithError writes the failed envelope for err.
func respondWithError(c *gin.Context, err error) {
	response.Error(c, err)
}

// respondOK writes the successful envelope.
func respondOK(c *gin.Context, status int, data interface{}) {
	response.OK(c, status, data)
}

// bindError reports a request binding failure as INVALID_INPUT.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// bindOptionalJSON binds a JSON body that may be absent. An empty body,
// whatever its declared length, leaves obj untouched.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return bindError(err)
	}
	return nil
}

// setAuthCookies stores the pair as httpOnly, SameSite=Strict cookies.
func setAuthCookies(c *gin.Context, cfg CookieConfig, pair token.Pair) {
	maxAge := int(cfg.MaxAge / time.Second)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken, maxAge, "/", "", cfg.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, pair.RefreshToken, maxAge, "/", "", cfg.Secure, true)
}

// clearAuthCookies expires both token cookies.
func clearAuthCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", cfg.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", cfg.Secure, true)
}
