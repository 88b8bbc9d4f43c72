package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// RequirePermission rejects callers whose role may not perform op.
func RequirePermission(gate *Gate, op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := gate.Authorize(id, op); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures an identity was resolved.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
