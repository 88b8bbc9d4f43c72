package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/repository"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

type userLookupStub struct {
	users map[string]*domain.User
}

func (s *userLookupStub) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func newAuthApp(t *testing.T, tm *TokenManager, users *userLookupStub) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Message})
		},
	})
	mw := NewAuthMiddleware(tm, users, "auth_token")
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		id, ok := IdentityFromContext(c)
		if !ok {
			return errors.New("identity missing")
		}
		return c.JSON(fiber.Map{"userId": id.UserID, "role": id.Role})
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour)
	active := &domain.User{ID: "u-1", Role: domain.RoleEmployee, StoreID: "s-1", Active: true}
	inactive := &domain.User{ID: "u-2", Role: domain.RoleEmployee, StoreID: "s-1", Active: false}
	app := newAuthApp(t, tm, &userLookupStub{users: map[string]*domain.User{"u-1": active, "u-2": inactive}})

	tokenFor := func(u *domain.User) string {
		token, _, err := tm.GenerateToken(u.Identity())
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		return token
	}
	ghost, _, err := tm.GenerateToken(domain.Identity{UserID: "u-404", Role: domain.RoleEmployee, StoreID: "s-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{name: "missing credentials", want: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "bearer header", header: "Bearer " + tokenFor(active), want: http.StatusOK},
		{name: "cookie", cookie: tokenFor(active), want: http.StatusOK},
		{name: "deactivated user", header: "Bearer " + tokenFor(inactive), want: http.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + ghost, want: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if tc.cookie != "" {
			req.AddCookie(&http.Cookie{Name: "auth_token", Value: tc.cookie})
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if resp.StatusCode != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, resp.StatusCode, tc.want)
		}
	}
}
