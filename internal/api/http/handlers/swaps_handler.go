package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/api/dto"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/service"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// SwapsHandler manages swap request endpoints.
type SwapsHandler struct {
	service *service.SwapService
}

// NewSwapsHandler constructs handler.
func NewSwapsHandler(swapService *service.SwapService) *SwapsHandler {
	return &SwapsHandler{service: swapService}
}

// List GET /swap-requests.
func (h *SwapsHandler) List(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var input service.SwapListInput
	if shiftID := strings.TrimSpace(c.Query("shiftId")); shiftID != "" {
		input.ShiftID = &shiftID
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.SwapStatus(strings.ToLower(raw))
		switch status {
		case domain.SwapStatusPending, domain.SwapStatusApproved, domain.SwapStatusDenied:
		default:
			return apperrors.NewValidationError("unknown swap status", map[string]any{"status": raw})
		}
		input.Status = &status
	}

	requests, err := h.service.List(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	items := make([]dto.SwapResponse, 0, len(requests))
	for i := range requests {
		items = append(items, swapResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"swapRequests": items})
}

// Create POST /swap-requests.
func (h *SwapsHandler) Create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.CreateSwapRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.ShiftID) == "" {
		return apperrors.NewValidationError("shiftId is required", nil)
	}

	request, err := h.service.Create(c.UserContext(), actor, service.SwapCreateInput{
		ShiftID:  req.ShiftID,
		ToUserID: req.ToUserID,
		Message:  req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"swapRequest": swapResponse(request)})
}

// Review PATCH /swap-requests/:id with action approve|deny.
func (h *SwapsHandler) Review(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	action, err := parseAction(c, "approve", "deny")
	if err != nil {
		return err
	}

	request, shift, err := h.service.Review(c.UserContext(), actor, c.Params("id"), action == "approve")
	if err != nil {
		return err
	}
	resp := fiber.Map{"swapRequest": swapResponse(request)}
	if shift != nil {
		resp["shift"] = shiftResponse(shift)
	}
	return c.JSON(resp)
}
