// Package token issues and validates the signed, time-bounded access and
// refresh tokens used by the auth endpoints.
//
// Tokens are stateless: there is no revocation list, so a leaked token stays
// valid until it expires. Keep access token lifetimes short.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validation failure kinds. Each is reported separately so callers can log
// why a token was refused.
var (
	ErrEmptyToken       = errors.New("token is empty")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrBadSignature     = errors.New("token signature is invalid")
	ErrExpiredToken     = errors.New("token has expired")
	ErrUnsupportedToken = errors.New("token format is not supported")
)

var signingMethod = jwt.SigningMethodHS512

// Claims is the fixed claim set carried by every token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is an access token together with its refresh token.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Issuer signs and verifies tokens with a single symmetric key.
type Issuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer. The secret is base64-decoded when it decodes
// cleanly and used as raw bytes otherwise.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: lifetimes must be positive")
	}

	i := &Issuer{
		key:        signingKey(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func signingKey(secret string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(secret); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(secret)
}

// IssueAccessToken returns a short-lived token for subject.
func (i *Issuer) IssueAccessToken(subject string) (string, error) {
	return i.issue(subject, i.accessTTL)
}

// IssueRefreshToken returns a long-lived token for subject.
func (i *Issuer) IssueRefreshToken(subject string) (string, error) {
	return i.issue(subject, i.refreshTTL)
}

// IssuePair returns a fresh access and refresh token for subject.
func (i *Issuer) IssuePair(subject string) (Pair, error) {
	access, err := i.IssueAccessToken(subject)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.IssueRefreshToken(subject)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token: subject is required")
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and then the expiration of tokenString and
// returns its claims. The error is one of the Err*Token kinds above.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrEmptyToken
	}

	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &rc, i.keyFunc,
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if rc.Subject == "" || rc.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}

	claims := &Claims{
		Subject:   rc.Subject,
		ExpiresAt: rc.ExpiresAt.Time,
	}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	return claims, nil
}

// SubjectOf returns the subject of an already validated token.
func (i *Issuer) SubjectOf(tokenString string) (string, error) {
	claims, err := i.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExpirationOf returns the expiration of an already validated token.
func (i *Issuer) ExpirationOf(tokenString string) (time.Time, error) {
	claims, err := i.Validate(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt, nil
}

func (i *Issuer) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != signingMethod.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return i.key, nil
}

// classify maps jwt parse errors onto the package's failure kinds. The
// parser reports signature problems before claim problems, so an expired
// token with a bad signature is a bad signature.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrUnsupportedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
