package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the signed-in user carried by a session.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// SessionClaims is the JWT body of a session token.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Image string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 session tokens signed with a key
// derived from the configured session secret.
type SessionManager struct {
	key    []byte
	expiry time.Duration
	issuer string
}

// NewSessionManager derives the signing key from secret.
func NewSessionManager(secret string, expiry time.Duration, issuer string) (*SessionManager, error) {
	key, err := DeriveSessionKey([]byte(secret))
	if err != nil {
		return nil, err
	}
	return &SessionManager{key: key, expiry: expiry, issuer: issuer}, nil
}

// Expiry is the lifetime of issued sessions.
func (m *SessionManager) Expiry() time.Duration {
	return m.expiry
}

// Issue signs a session for p and returns the token with its expiry time.
func (m *SessionManager) Issue(p Principal) (string, time.Time, error) {
	if p.ID == "" || p.Email == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	now := time.Now()
	expiresAt := now.Add(m.expiry)
	claims := &SessionClaims{
		Email: p.Email,
		Name:  p.Name,
		Image: p.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate parses and verifies a session token.
func (m *SessionManager) Validate(tokenString string) (*Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.key, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return &Principal{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Image: claims.Image,
	}, nil
}

// TokenFromHeader extracts the token from an "Authorization: Bearer" header.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
