package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/shift-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Claims describes JWT payload.
type Claims struct {
	UserID  string      `json:"userId"`
	Role    domain.Role `json:"role"`
	StoreID string      `json:"storeId"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	jwt.RegisteredClaims
}

// Identity returns the caller encoded in the claims.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{
		UserID:  c.UserID,
		Role:    c.Role,
		StoreID: c.StoreID,
		Name:    c.Name,
		Email:   c.Email,
	}
}

// GenerateToken builds and signs a JWT for the identity.
func (tm *TokenManager) GenerateToken(id domain.Identity) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		UserID:  id.UserID,
		Role:    id.Role,
		StoreID: id.StoreID,
		Name:    id.Name,
		Email:   id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" || !claims.Role.Valid() || claims.StoreID == "" {
		return nil, errors.New("incomplete token claims")
	}
	return claims, nil
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}
