package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-service/internal/api/dto"
	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

func identity(c *fiber.Ctx) (domain.Identity, error) {
	id, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// parseAction accepts only the listed verbs, case-insensitively.
func parseAction(c *fiber.Ctx, allowed ...string) (string, error) {
	var req dto.ActionRequest
	if err := parseBody(c, &req); err != nil {
		return "", err
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	for _, a := range allowed {
		if action == a {
			return action, nil
		}
	}
	return "", apperrors.NewValidationError("action must be one of "+strings.Join(allowed, ", "), map[string]any{"action": req.Action})
}

func shiftResponse(s *domain.Shift) dto.ShiftResponse {
	return dto.ShiftResponse{
		ID:               s.ID,
		StoreID:          s.StoreID,
		Date:             s.DateKey(),
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		AssignedUserID:   s.AssignedUserID,
		ClaimedBy:        s.ClaimedBy,
		ApprovedBy:       s.ApprovedBy,
		RoleRequired:     s.RoleRequired,
		Status:           s.Status,
		ApprovalRequired: s.ApprovalRequired,
		WasteTotal:       s.WasteTotal,
		ProductionTotal:  s.ProductionTotal,
		ClockIn:          s.ClockIn,
		ClockOut:         s.ClockOut,
		Station:          s.Station,
		Notes:            s.Notes,
		EventFlag:        s.EventFlag,
		EventNote:        s.EventNote,
		CreatedBy:        s.CreatedBy,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func shiftResponses(shifts []domain.Shift) []dto.ShiftResponse {
	items := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		items = append(items, shiftResponse(&shifts[i]))
	}
	return items
}

func logResponses(entries []domain.LedgerEntry) []dto.LogResponse {
	items := make([]dto.LogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, logResponse(&entries[i]))
	}
	return items
}

func logResponse(e *domain.LedgerEntry) dto.LogResponse {
	return dto.LogResponse{
		ID:        e.ID,
		ShiftID:   e.ShiftID,
		Kind:      e.Kind,
		ItemName:  e.ItemName,
		Quantity:  e.Quantity,
		Unit:      e.Unit,
		Reason:    e.Reason,
		LoggedBy:  e.LoggedBy,
		CreatedAt: e.CreatedAt,
	}
}

func swapResponse(r *domain.SwapRequest) dto.SwapResponse {
	return dto.SwapResponse{
		ID:         r.ID,
		ShiftID:    r.ShiftID,
		StoreID:    r.StoreID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Status:     r.Status,
		Message:    r.Message,
		ReviewedBy: r.ReviewedBy,
		ReviewedAt: r.ReviewedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		ShiftID:   n.ShiftID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		StoreID: u.StoreID,
		Active:  u.Active,
	}
}
