// Package auth provides JWT bearer authentication and role-based
// authorization for the review API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

// Token errors
var (
	// ErrInvalidToken indicates the token is malformed, expired or has a
	// bad signature.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the JWT payload issued to authenticated users.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates access tokens.
type TokenManager interface {
	Generate(user *domain.User) (string, error)
	Validate(tokenString string) (*Claims, error)
}

// jwtManager implements TokenManager with HMAC-SHA256 signatures.
type jwtManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	issuer        string
}

// NewTokenManager creates a TokenManager. The secret must be at least
// 32 bytes for HS256.
func NewTokenManager(secretKey string, tokenDuration time.Duration) (TokenManager, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	if len(secretKey) < 32 {
		return nil, errors.New("JWT secret key must be at least 32 bytes for HS256")
	}
	if tokenDuration <= 0 {
		return nil, errors.New("token duration must be positive")
	}

	return &jwtManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		issuer:        "yamdb",
	}, nil
}

// Generate creates a signed token for the user. The role claim is a
// convenience for logging; authorization always reloads the user, so a
// stale role claim cannot grant stale privileges.
func (m *jwtManager) Generate(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses and verifies a token, returning its claims.
func (m *jwtManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
