package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/api/dto"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/service"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// ShiftsHandler manages shift endpoints.
type ShiftsHandler struct {
	service *service.ShiftService
}

// NewShiftsHandler constructs handler.
func NewShiftsHandler(shiftService *service.ShiftService) *ShiftsHandler {
	return &ShiftsHandler{service: shiftService}
}

// List GET /shifts.
func (h *ShiftsHandler) List(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	input, err := parseShiftQuery(c)
	if err != nil {
		return err
	}
	shifts, err := h.service.List(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shifts": shiftResponses(shifts)})
}

// Create POST /shifts.
func (h *ShiftsHandler) Create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.CreateShiftRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return apperrors.NewValidationError("date, startTime and endTime are required", nil)
	}
	shift, err := h.service.Create(c.UserContext(), actor, service.ShiftInput{
		Date:             req.Date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		RoleRequired:     req.RoleRequired,
		ApprovalRequired: req.ApprovalRequired,
		Station:          req.Station,
		Notes:            req.Notes,
		EventFlag:        req.EventFlag,
		EventNote:        req.EventNote,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"shift": shiftResponse(shift)})
}

// Get GET /shifts/:id.
func (h *ShiftsHandler) Get(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	detail, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"shift":          shiftResponse(detail.Shift),
		"wasteLogs":      logResponses(detail.WasteLogs),
		"productionLogs": logResponses(detail.ProductionLogs),
	})
}

// Update PUT /shifts/:id.
func (h *ShiftsHandler) Update(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateShiftRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	shift, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.ShiftUpdateInput{
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RoleRequired: req.RoleRequired,
		Station:      req.Station,
		Notes:        req.Notes,
		EventFlag:    req.EventFlag,
		EventNote:    req.EventNote,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shift": shiftResponse(shift)})
}

// Delete DELETE /shifts/:id.
func (h *ShiftsHandler) Delete(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Claim POST /shifts/:id/claim.
func (h *ShiftsHandler) Claim(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	shift, err := h.service.Claim(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shift": shiftResponse(shift)})
}

// Approve POST /shifts/:id/approve with action approve|deny.
func (h *ShiftsHandler) Approve(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	action, err := parseAction(c, "approve", "deny")
	if err != nil {
		return err
	}
	shift, err := h.service.Decide(c.UserContext(), actor, c.Params("id"), action == "approve")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shift": shiftResponse(shift)})
}

// Clock POST /shifts/:id/clock with action in|out.
func (h *ShiftsHandler) Clock(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	action, err := parseAction(c, "in", "out")
	if err != nil {
		return err
	}
	shift, err := h.service.Clock(c.UserContext(), actor, c.Params("id"), action == "in")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shift": shiftResponse(shift)})
}

// Lock POST /shifts/:id/lock.
func (h *ShiftsHandler) Lock(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	shift, err := h.service.Lock(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shift": shiftResponse(shift)})
}

func parseShiftQuery(c *fiber.Ctx) (service.ShiftListInput, error) {
	var input service.ShiftListInput
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		day, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return input, apperrors.NewValidationError("date must be formatted YYYY-MM-DD", map[string]any{"date": raw})
		}
		input.Date = &day
	}
	if raw := strings.TrimSpace(c.Query("weekStart")); raw != "" {
		day, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return input, apperrors.NewValidationError("weekStart must be formatted YYYY-MM-DD", map[string]any{"weekStart": raw})
		}
		input.WeekStart = &day
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				input.Statuses = append(input.Statuses, domain.ShiftStatus(part))
			}
		}
	}
	return input, nil
}
