package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/shift-service/internal/api/http/handlers"
	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Shifts         *handlers.ShiftsHandler
	Swaps          *handlers.SwapsHandler
	WasteLogs      *handlers.LedgerHandler
	ProductionLogs *handlers.LedgerHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *auth.Gate
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.Me)

	allow := func(op auth.Operation) fiber.Handler {
		return auth.RequirePermission(cfg.Gate, op)
	}

	shifts := app.Group("/shifts", cfg.AuthMiddleware.Handle)
	shifts.Get("/", allow(auth.OpShiftList), cfg.Shifts.List)
	shifts.Post("/", allow(auth.OpShiftCreate), cfg.Shifts.Create)
	shifts.Get("/:id", allow(auth.OpShiftView), cfg.Shifts.Get)
	shifts.Put("/:id", allow(auth.OpShiftUpdate), cfg.Shifts.Update)
	shifts.Delete("/:id", allow(auth.OpShiftDelete), cfg.Shifts.Delete)
	shifts.Post("/:id/claim", allow(auth.OpShiftClaim), cfg.Shifts.Claim)
	shifts.Post("/:id/approve", allow(auth.OpShiftApprove), cfg.Shifts.Approve)
	shifts.Post("/:id/clock", allow(auth.OpShiftClock), cfg.Shifts.Clock)
	shifts.Post("/:id/lock", allow(auth.OpShiftLock), cfg.Shifts.Lock)

	swaps := app.Group("/swap-requests", cfg.AuthMiddleware.Handle)
	swaps.Get("/", allow(auth.OpSwapList), cfg.Swaps.List)
	swaps.Post("/", allow(auth.OpSwapCreate), cfg.Swaps.Create)
	swaps.Patch("/:id", allow(auth.OpSwapReview), cfg.Swaps.Review)

	for prefix, h := range map[string]*handlers.LedgerHandler{
		"/waste-logs":      cfg.WasteLogs,
		"/production-logs": cfg.ProductionLogs,
	} {
		group := app.Group(prefix, cfg.AuthMiddleware.Handle)
		group.Get("/", allow(auth.OpLedgerList), h.List)
		group.Post("/", allow(auth.OpLedgerAppend), h.Create)
	}

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle)
	notifications.Get("/", allow(auth.OpNotificationList), cfg.Notifications.List)
	notifications.Patch("/", allow(auth.OpNotificationRead), cfg.Notifications.MarkRead)
}
