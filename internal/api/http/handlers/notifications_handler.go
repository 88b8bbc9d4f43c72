package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/api/dto"
	"github.com/spec-kit/shift-service/internal/service"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// NotificationsHandler exposes the caller's inbox.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications?unread=true&limit=50.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	unread := c.QueryBool("unread", false)
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return apperrors.NewValidationError("limit must be a non-negative integer", map[string]any{"limit": raw})
		}
	}

	list, err := h.service.List(c.UserContext(), actor, unread, limit)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		items = append(items, notificationResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"notifications": items})
}

// MarkRead PATCH /notifications marks every notification of the caller read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	updated, err := h.service.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"updated": updated})
}
