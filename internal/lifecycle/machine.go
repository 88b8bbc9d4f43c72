package lifecycle

import (
	"fmt"
	"time"

	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// Transition names a shift state change.
type Transition string

const (
	TransitionClaim    Transition = "claim"
	TransitionApprove  Transition = "approve"
	TransitionDeny     Transition = "deny"
	TransitionClockIn  Transition = "clock_in"
	TransitionClockOut Transition = "clock_out"
	TransitionLock     Transition = "lock"
)

// Guard is the prior state a conditional write must still observe.
type Guard struct {
	Status domain.ShiftStatus
	// AssignedUserID, when set, must still own the shift.
	AssignedUserID       string
	RequireClockInUnset  bool
	RequireClockInSet    bool
	RequireClockOutUnset bool
}

// Outcome is the result of a successful transition.
type Outcome struct {
	Transition Transition
	Shift      domain.Shift
	Guard      Guard
	Intents    []domain.NotificationIntent
}

// ErrLocked is the uniform rejection for any write against a locked shift.
func ErrLocked(shiftID string) error {
	return apperrors.NewConflict("shift is locked", map[string]any{"shift_id": shiftID})
}

// Editable rejects mutations of locked shifts.
func Editable(shift *domain.Shift) error {
	if shift.Status == domain.ShiftStatusLocked {
		return ErrLocked(shift.ID)
	}
	return nil
}

// Claim moves an unassigned shift to pending, or straight to approved when the
// shift does not require approval. held lists the actor's other shifts.
func Claim(shift domain.Shift, actor domain.Identity, held []domain.Shift, now time.Time) (Outcome, error) {
	if err := Editable(&shift); err != nil {
		return Outcome{}, err
	}
	if shift.Status != domain.ShiftStatusUnassigned {
		return Outcome{}, conflict(&shift, "shift is not available to claim")
	}
	if shift.RoleRequired != nil && *shift.RoleRequired != actor.Role && actor.Role != domain.RoleAdmin {
		return Outcome{}, apperrors.NewForbidden(fmt.Sprintf("shift requires role %s", *shift.RoleRequired))
	}
	if err := CheckOverlap(&shift, held); err != nil {
		return Outcome{}, err
	}

	prior := shift.Status
	next := shift.Clone()
	claimant := actor.UserID
	next.ClaimedBy = &claimant
	next.UpdatedAt = now

	title := "Shift claimed"
	message := fmt.Sprintf("%s claimed the %s shift on %s", displayName(actor), span(&next), next.DateKey())
	if next.ApprovalRequired {
		next.Status = domain.ShiftStatusPending
		title = "Shift claim awaiting approval"
		message = fmt.Sprintf("%s requested the %s shift on %s", displayName(actor), span(&next), next.DateKey())
	} else {
		next.Status = domain.ShiftStatusApproved
		assignee := actor.UserID
		next.AssignedUserID = &assignee
	}

	return Outcome{
		Transition: TransitionClaim,
		Shift:      next,
		Guard:      Guard{Status: prior},
		Intents: []domain.NotificationIntent{
			storeIntent(domain.AudienceStoreStaff, &next, domain.NotificationShiftClaimed, title, message),
		},
	}, nil
}

// Approve converts a pending claim into an assignment.
func Approve(shift domain.Shift, actor domain.Identity, now time.Time) (Outcome, error) {
	if err := pendingDecision(&shift); err != nil {
		return Outcome{}, err
	}

	next := shift.Clone()
	assignee := *shift.ClaimedBy
	approver := actor.UserID
	next.Status = domain.ShiftStatusApproved
	next.AssignedUserID = &assignee
	next.ApprovedBy = &approver
	next.UpdatedAt = now

	return Outcome{
		Transition: TransitionApprove,
		Shift:      next,
		Guard:      Guard{Status: domain.ShiftStatusPending},
		Intents: []domain.NotificationIntent{
			userIntent(assignee, &next, domain.NotificationShiftApproved, "Shift approved",
				fmt.Sprintf("Your claim for the %s shift on %s was approved", span(&next), next.DateKey())),
		},
	}, nil
}

// Deny returns a pending shift to the open pool.
func Deny(shift domain.Shift, actor domain.Identity, now time.Time) (Outcome, error) {
	if err := pendingDecision(&shift); err != nil {
		return Outcome{}, err
	}

	former := *shift.ClaimedBy
	next := shift.Clone()
	next.Status = domain.ShiftStatusUnassigned
	next.ClaimedBy = nil
	next.AssignedUserID = nil
	next.ApprovedBy = nil
	next.UpdatedAt = now

	return Outcome{
		Transition: TransitionDeny,
		Shift:      next,
		Guard:      Guard{Status: domain.ShiftStatusPending},
		Intents: []domain.NotificationIntent{
			userIntent(former, &next, domain.NotificationShiftDenied, "Shift claim denied",
				fmt.Sprintf("Your claim for the %s shift on %s was denied", span(&next), next.DateKey())),
		},
	}, nil
}

// ClockIn stamps the start of work on an approved shift.
func ClockIn(shift domain.Shift, actor domain.Identity, now time.Time) (Outcome, error) {
	if err := Editable(&shift); err != nil {
		return Outcome{}, err
	}
	if shift.Status != domain.ShiftStatusApproved {
		return Outcome{}, conflict(&shift, "shift must be approved before clocking in")
	}
	if shift.ClockIn != nil {
		return Outcome{}, conflict(&shift, "already clocked in")
	}

	next := shift.Clone()
	stamp := now
	next.ClockIn = &stamp
	next.UpdatedAt = now

	return Outcome{
		Transition: TransitionClockIn,
		Shift:      next,
		Guard:      Guard{Status: domain.ShiftStatusApproved, RequireClockInUnset: true},
	}, nil
}

// ClockOut stamps the end of work and completes the shift.
func ClockOut(shift domain.Shift, actor domain.Identity, now time.Time) (Outcome, error) {
	if err := Editable(&shift); err != nil {
		return Outcome{}, err
	}
	if shift.Status != domain.ShiftStatusApproved {
		return Outcome{}, conflict(&shift, "shift must be approved before clocking out")
	}
	if shift.ClockIn == nil {
		return Outcome{}, conflict(&shift, "must clock in before clocking out")
	}
	if shift.ClockOut != nil {
		return Outcome{}, conflict(&shift, "already clocked out")
	}

	next := shift.Clone()
	stamp := now
	next.ClockOut = &stamp
	next.Status = domain.ShiftStatusCompleted
	next.UpdatedAt = now

	return Outcome{
		Transition: TransitionClockOut,
		Shift:      next,
		Guard: Guard{
			Status:               domain.ShiftStatusApproved,
			RequireClockInSet:    true,
			RequireClockOutUnset: true,
		},
		Intents: []domain.NotificationIntent{
			storeIntent(domain.AudienceStoreAdmins, &next, domain.NotificationShiftCompleted, "Shift completed",
				fmt.Sprintf("%s completed the %s shift on %s", displayName(actor), span(&next), next.DateKey())),
		},
	}, nil
}

// Lock freezes a completed shift.
func Lock(shift domain.Shift, actor domain.Identity, now time.Time) (Outcome, error) {
	if err := Editable(&shift); err != nil {
		return Outcome{}, err
	}
	if shift.Status != domain.ShiftStatusCompleted {
		return Outcome{}, conflict(&shift, "only completed shifts can be locked")
	}

	next := shift.Clone()
	next.Status = domain.ShiftStatusLocked
	next.UpdatedAt = now

	return Outcome{
		Transition: TransitionLock,
		Shift:      next,
		Guard:      Guard{Status: domain.ShiftStatusCompleted},
	}, nil
}

func pendingDecision(shift *domain.Shift) error {
	if err := Editable(shift); err != nil {
		return err
	}
	if shift.Status != domain.ShiftStatusPending {
		return conflict(shift, "shift is not pending approval")
	}
	if shift.ClaimedBy == nil {
		return conflict(shift, "pending shift has no claimant")
	}
	return nil
}

func conflict(shift *domain.Shift, message string) error {
	return apperrors.NewConflict(message, map[string]any{
		"shift_id": shift.ID,
		"status":   string(shift.Status),
	})
}

func storeIntent(audience domain.Audience, shift *domain.Shift, kind domain.NotificationType, title, message string) domain.NotificationIntent {
	id := shift.ID
	return domain.NotificationIntent{
		Audience: audience,
		StoreID:  shift.StoreID,
		Type:     kind,
		Title:    title,
		Message:  message,
		ShiftID:  &id,
	}
}

func userIntent(userID string, shift *domain.Shift, kind domain.NotificationType, title, message string) domain.NotificationIntent {
	id := shift.ID
	return domain.NotificationIntent{
		Audience: domain.AudienceUser,
		StoreID:  shift.StoreID,
		UserID:   userID,
		Type:     kind,
		Title:    title,
		Message:  message,
		ShiftID:  &id,
	}
}

func displayName(actor domain.Identity) string {
	if actor.Name != "" {
		return actor.Name
	}
	return actor.UserID
}

func span(shift *domain.Shift) string {
	return shift.StartTime + "-" + shift.EndTime
}
