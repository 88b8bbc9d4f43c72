package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/api/dto"
	"github.com/spec-kit/shift-service/internal/service"
)

// AuthHandler exposes login and session endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	cookieName   string
	secureCookie bool
}

// NewAuthHandler constructs handler. An empty cookieName disables the session cookie.
func NewAuthHandler(authService *service.AuthService, cookieName string, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: authService, cookieName: cookieName, secureCookie: secureCookie}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	if h.cookieName != "" {
		c.Cookie(&fiber.Cookie{
			Name:     h.cookieName,
			Value:    token,
			Path:     "/",
			Expires:  exp,
			HTTPOnly: true,
			Secure:   h.secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return c.JSON(dto.AuthResponse{Token: token, ExpiresAt: exp, User: userResponse(user)})
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if h.cookieName != "" {
		c.Cookie(&fiber.Cookie{
			Name:     h.cookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   h.secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": userResponse(user)})
}
