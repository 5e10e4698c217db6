package services

import (
	"context"
	"errors"
	"time"

	apperrors "goze/internal/errors"
	"goze/internal/logger"
	"goze/internal/models"
	"goze/internal/ratelimit"
	"goze/internal/token"
)

// authService composes rate limiting, credential checks, the lockout policy
// and token issuance into the login, register, refresh and validate flows.
type authService struct {
	users   UserServicer
	issuer  *token.Issuer
	limiter ratelimit.Limiter
	audit   AuditServicer
	now     func() time.Time
}

// NewAuthService creates a new AuthServicer.
func NewAuthService(users UserServicer, issuer *token.Issuer, limiter ratelimit.Limiter, audit AuditServicer) AuthServicer {
	return &authService{
		users:   users,
		issuer:  issuer,
		limiter: limiter,
		audit:   audit,
		now:     time.Now,
	}
}

// Login authenticates username (or email) and password and issues a token
// pair. Only a wrong password for an existing, active, unlocked user counts
// towards the lockout threshold.
func (s *authService) Login(ctx context.Context, username, password, clientIP string) (*AuthResult, error) {
	if err := s.checkRateLimit(ctx, clientIP); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByLogin(username)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, apperrors.ErrAccountLocked
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if !s.users.VerifyPassword(user, password) {
		updated, err := s.users.RecordFailedLogin(user, now)
		if err != nil {
			return nil, err
		}
		s.audit.Record(userEvent(user, AuditLoginFailed, clientIP,
			map[string]interface{}{"failed_attempts": updated.FailedLoginAttempts, "locked": updated.IsLocked(now)}))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(user, now); err != nil {
		return nil, err
	}

	pair, err := s.issuer.IssuePair(user.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(userEvent(user, AuditLogin, clientIP, nil))
	return &AuthResult{Tokens: pair, User: user}, nil
}

// Register creates an active user and issues its first token pair.
func (s *authService) Register(ctx context.Context, input RegisterInput, clientIP string) (*AuthResult, error) {
	if err := s.checkRateLimit(ctx, clientIP); err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(input.Username, input.Email, input.Password, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuer.IssuePair(user.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(userEvent(user, AuditRegister, clientIP, map[string]interface{}{"username": user.Username}))
	return &AuthResult{Tokens: pair, User: user}, nil
}

// Refresh exchanges a valid refresh token for a brand new pair. Every failure
// is reported as an invalid token.
func (s *authService) Refresh(_ context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.issuer.Validate(refreshToken)
	if err != nil {
		return nil, invalidToken(err)
	}

	user, err := s.users.GetUserByUsername(claims.Subject)
	if err != nil {
		return nil, invalidToken(err)
	}
	if !user.IsActive || user.IsLocked(s.now()) {
		return nil, apperrors.ErrInvalidToken
	}

	pair, err := s.issuer.IssuePair(user.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(userEvent(user, AuditTokenRefresh, "", nil))
	return &AuthResult{Tokens: pair, User: user}, nil
}

// Validate checks the token's signature and expiration and that its subject
// still exists.
func (s *authService) Validate(_ context.Context, accessToken string) (*TokenInfo, error) {
	claims, err := s.issuer.Validate(accessToken)
	if err != nil {
		return nil, invalidToken(err)
	}
	if _, err := s.users.GetUserByUsername(claims.Subject); err != nil {
		return nil, invalidToken(err)
	}
	return &TokenInfo{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt}, nil
}

// Authenticate resolves an access token to its active user.
func (s *authService) Authenticate(_ context.Context, accessToken string) (*models.User, error) {
	claims, err := s.issuer.Validate(accessToken)
	if err != nil {
		return nil, invalidToken(err)
	}
	user, err := s.users.GetUserByUsername(claims.Subject)
	if err != nil {
		return nil, invalidToken(err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}

// checkRateLimit consumes a token for clientIP. A limiter backend failure
// lets the request through rather than locking everyone out.
func (s *authService) checkRateLimit(ctx context.Context, clientIP string) error {
	err := s.limiter.Allow(ctx, clientIP)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		logger.Get().Warnw("auth rate limit exceeded", "client_ip", clientIP)
		return apperrors.ErrRateLimitExceeded
	default:
		logger.Get().Errorw("rate limiter unavailable, allowing request", "client_ip", clientIP, "error", err)
		return nil
	}
}

// invalidToken reports err as INVALID_TOKEN, keeping infrastructure failures
// as internal errors.
func invalidToken(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == apperrors.ErrInternalServer.Code {
		return err
	}
	e := apperrors.Wrap(apperrors.ErrInvalidToken, err)
	if !errors.As(err, &appErr) {
		e.Message = "Invalid token: " + err.Error()
	}
	return e
}

func userEvent(user *models.User, action, clientIP string, details map[string]interface{}) AuditEvent {
	return AuditEvent{
		UserID:       user.ID,
		Action:       action,
		ResourceType: models.AuditResourceUser,
		ResourceID:   user.ID,
		IPAddress:    clientIP,
		Details:      details,
	}
}
