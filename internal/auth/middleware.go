package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/repository"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

const identityKey = "auth_identity"

// UserLookup resolves the user behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads the caller identity.
type AuthMiddleware struct {
	tokens     *TokenManager
	users      UserLookup
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, cookieName: cookieName}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := m.credential(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.Active {
		return apperrors.NewUnauthorized("user deactivated")
	}

	c.Locals(identityKey, user.Identity())
	return c.Next()
}

func (m *AuthMiddleware) credential(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if m.cookieName != "" {
		if token := c.Cookies(m.cookieName); token != "" {
			return token, nil
		}
	}
	return "", apperrors.NewUnauthorized("missing credentials")
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return domain.Identity{}, false
	}
	id, ok := val.(domain.Identity)
	return id, ok
}
