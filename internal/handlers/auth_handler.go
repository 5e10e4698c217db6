package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"goze/internal/middleware"
	"goze/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService services.AuthServicer
	cookies     CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthServicer, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,username"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshRequest carries a refresh token; the refreshToken cookie is used
// when the body omits it.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ValidateRequest carries an access token; the request's own access token is
// used when the body omits it.
type ValidateRequest struct {
	AccessToken string `json:"accessToken"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create an account and receive a token pair, also set as cookies
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} response.Envelope{data=token.Pair}
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Username or email taken"
// @Failure     429 {object} ErrorResponse "Rate limit exceeded"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	setAuthCookies(c, h.cookies, result.Tokens)
	respondOK(c, http.StatusCreated, result.Tokens)
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate with username (or email) and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} response.Envelope{data=token.Pair}
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "INVALID_CREDENTIALS, ACCOUNT_LOCKED, ACCOUNT_DISABLED or USER_NOT_FOUND"
// @Failure     429 {object} ErrorResponse "Rate limit exceeded"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}

	setAuthCookies(c, h.cookies, result.Tokens)
	respondOK(c, http.StatusOK, result.Tokens)
}

// Refresh exchanges a refresh token for a new pair
// @Summary     Refresh tokens
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest false "Refresh token, defaults to the refreshToken cookie"
// @Success     200 {object} response.Envelope{data=token.Pair}
// @Failure     401 {object} ErrorResponse "Invalid token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		refreshToken, _ = c.Cookie(middleware.RefreshTokenCookie)
	}

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	setAuthCookies(c, h.cookies, result.Tokens)
	respondOK(c, http.StatusOK, result.Tokens)
}

// Validate reports whether an access token is valid and when it expires
// @Summary     Validate an access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ValidateRequest false "Access token, defaults to the request's own"
// @Success     200 {object} response.Envelope{data=services.TokenInfo}
// @Failure     401 {object} ErrorResponse "Invalid token"
// @Router      /auth/validate [post]
func (h *AuthHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		accessToken = middleware.AccessToken(c)
	}

	info, err := h.authService.Validate(c.Request.Context(), accessToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, info)
}

// Logout clears the token cookies. Tokens themselves stay valid until they
// expire.
// @Summary     Logout
// @Tags        auth
// @Produce     json
// @Success     200 {object} response.Envelope{data=MessageResponse}
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	clearAuthCookies(c, h.cookies)
	respondOK(c, http.StatusOK, MessageResponse{Message: "Logged out"})
}
