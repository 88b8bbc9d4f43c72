package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// SwapOutcome is the result of reviewing a swap request.
type SwapOutcome struct {
	Request domain.SwapRequest
	// Shift is non-nil when the approval reassigns the shift.
	Shift      *domain.Shift
	ShiftGuard Guard
	Intents    []domain.NotificationIntent
}

// OpenSwap validates a swap request raised by the shift's assignee.
func OpenSwap(shift domain.Shift, actor domain.Identity, toUserID *string, message string, now time.Time) (domain.SwapRequest, []domain.NotificationIntent, error) {
	if err := Editable(&shift); err != nil {
		return domain.SwapRequest{}, nil, err
	}
	if !shift.IsAssignedTo(actor.UserID) {
		return domain.SwapRequest{}, nil, apperrors.NewForbidden("only the assigned employee can request a swap")
	}
	if shift.Status != domain.ShiftStatusApproved {
		return domain.SwapRequest{}, nil, conflict(&shift, "only approved shifts can be swapped")
	}
	if shift.ClockIn != nil {
		return domain.SwapRequest{}, nil, conflict(&shift, "shift already started")
	}
	if toUserID != nil && *toUserID == actor.UserID {
		return domain.SwapRequest{}, nil, apperrors.NewValidationError("cannot swap a shift with yourself", nil)
	}

	req := domain.SwapRequest{
		ShiftID:    shift.ID,
		StoreID:    shift.StoreID,
		FromUserID: actor.UserID,
		ToUserID:   toUserID,
		Status:     domain.SwapStatusPending,
		Message:    strings.TrimSpace(message),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	body := fmt.Sprintf("%s needs cover for the %s shift on %s", displayName(actor), span(&shift), shift.DateKey())
	intents := []domain.NotificationIntent{
		storeIntent(domain.AudienceStoreStaff, &shift, domain.NotificationSwapRequested, "Swap requested", body),
	}
	if toUserID != nil {
		intents = append(intents, userIntent(*toUserID, &shift, domain.NotificationSwapRequested, "Swap requested",
			fmt.Sprintf("%s asked you to take the %s shift on %s", displayName(actor), span(&shift), shift.DateKey())))
	}
	return req, intents, nil
}

// ReviewSwap approves or denies a pending swap request.
func ReviewSwap(req domain.SwapRequest, shift domain.Shift, actor domain.Identity, approve bool, now time.Time) (SwapOutcome, error) {
	if req.Status != domain.SwapStatusPending {
		return SwapOutcome{}, apperrors.NewConflict("swap request already reviewed", map[string]any{
			"swap_request_id": req.ID,
			"status":          string(req.Status),
		})
	}

	next := req
	reviewer := actor.UserID
	reviewedAt := now
	next.ReviewedBy = &reviewer
	next.ReviewedAt = &reviewedAt
	next.UpdatedAt = now

	if !approve {
		next.Status = domain.SwapStatusDenied
		return SwapOutcome{
			Request: next,
			Intents: []domain.NotificationIntent{
				userIntent(req.FromUserID, &shift, domain.NotificationSwapDenied, "Swap denied",
					fmt.Sprintf("Your swap request for the %s shift on %s was denied", span(&shift), shift.DateKey())),
			},
		}, nil
	}

	next.Status = domain.SwapStatusApproved
	out := SwapOutcome{
		Request: next,
		Intents: []domain.NotificationIntent{
			userIntent(req.FromUserID, &shift, domain.NotificationSwapApproved, "Swap approved",
				fmt.Sprintf("Your swap request for the %s shift on %s was approved", span(&shift), shift.DateKey())),
		},
	}
	if req.ToUserID == nil {
		return out, nil
	}

	if err := Editable(&shift); err != nil {
		return SwapOutcome{}, err
	}
	if shift.Status != domain.ShiftStatusApproved || !shift.IsAssignedTo(req.FromUserID) {
		return SwapOutcome{}, conflict(&shift, "shift is no longer assigned to the requester")
	}
	if shift.ClockIn != nil {
		return SwapOutcome{}, conflict(&shift, "shift already started")
	}

	reassigned := shift.Clone()
	recipient := *req.ToUserID
	reassigned.AssignedUserID = &recipient
	reassigned.ClaimedBy = &recipient
	reassigned.UpdatedAt = now
	out.Shift = &reassigned
	out.ShiftGuard = Guard{Status: domain.ShiftStatusApproved, AssignedUserID: req.FromUserID, RequireClockInUnset: true}
	out.Intents = append(out.Intents, userIntent(recipient, &reassigned, domain.NotificationSwapApproved, "Shift assigned",
		fmt.Sprintf("You now hold the %s shift on %s", span(&reassigned), reassigned.DateKey())))
	return out, nil
}
