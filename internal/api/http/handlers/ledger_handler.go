package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/api/dto"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/service"
)

// LedgerHandler serves one ledger kind; mount one per collection.
type LedgerHandler struct {
	service *service.LedgerService
	kind    domain.LedgerKind
}

// NewLedgerHandler constructs handler for kind.
func NewLedgerHandler(ledgerService *service.LedgerService, kind domain.LedgerKind) *LedgerHandler {
	return &LedgerHandler{service: ledgerService, kind: kind}
}

// List GET /waste-logs or /production-logs, filtered by shiftId.
func (h *LedgerHandler) List(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	entries, err := h.service.List(c.UserContext(), actor, h.kind, c.Query("shiftId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"logs": logResponses(entries)})
}

// Create POST /waste-logs or /production-logs.
func (h *LedgerHandler) Create(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.LogRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	entry, shift, err := h.service.Append(c.UserContext(), actor, service.LedgerInput{
		ShiftID:  req.ShiftID,
		Kind:     h.kind,
		ItemName: req.ItemName,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Reason:   req.Reason,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"log":   logResponse(entry),
		"shift": shiftResponse(shift),
	})
}
