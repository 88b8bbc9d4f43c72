package lifecycle

import (
	"testing"

	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

func assignedShift(t *testing.T, owner string) domain.Shift {
	t.Helper()
	s := openShift(t, true)
	s.Status = domain.ShiftStatusApproved
	s.AssignedUserID = strPtr(owner)
	s.ClaimedBy = strPtr(owner)
	return s
}

func TestOpenSwap(t *testing.T) {
	t.Parallel()

	shift := assignedShift(t, employee.UserID)

	req, intents, err := OpenSwap(shift, employee, strPtr("emp-2"), "  dentist  ", testNow)
	if err != nil {
		t.Fatalf("open swap: %v", err)
	}
	if req.Status != domain.SwapStatusPending || req.FromUserID != employee.UserID || req.Message != "dentist" {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(intents) != 2 || intents[0].Audience != domain.AudienceStoreStaff || intents[1].UserID != "emp-2" {
		t.Fatalf("unexpected intents %+v", intents)
	}

	if _, intents, err := OpenSwap(shift, employee, nil, "", testNow); err != nil || len(intents) != 1 {
		t.Fatalf("broadcast swap: intents=%v err=%v", intents, err)
	}

	other := domain.Identity{UserID: "emp-2", Role: domain.RoleEmployee, StoreID: "store-1"}
	if _, _, err := OpenSwap(shift, other, nil, "", testNow); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-assignee, got %v", err)
	}
	if _, _, err := OpenSwap(shift, employee, strPtr(employee.UserID), "", testNow); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for self swap, got %v", err)
	}

	started := shift.Clone()
	started.ClockIn = &testNow
	if _, _, err := OpenSwap(started, employee, strPtr("emp-2"), "", testNow); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict for started shift, got %v", err)
	}
}

func TestReviewSwap(t *testing.T) {
	t.Parallel()

	shift := assignedShift(t, employee.UserID)
	pending := domain.SwapRequest{
		ID: "swap-1", ShiftID: shift.ID, StoreID: shift.StoreID,
		FromUserID: employee.UserID, ToUserID: strPtr("emp-2"), Status: domain.SwapStatusPending,
	}

	t.Run("approve with recipient reassigns", func(t *testing.T) {
		out, err := ReviewSwap(pending, shift, manager, true, testNow)
		if err != nil {
			t.Fatalf("review: %v", err)
		}
		if out.Request.Status != domain.SwapStatusApproved || out.Request.ReviewedBy == nil {
			t.Fatalf("unexpected request %+v", out.Request)
		}
		if out.Shift == nil || !out.Shift.IsAssignedTo("emp-2") {
			t.Fatalf("expected reassignment to emp-2, got %+v", out.Shift)
		}
		if out.ShiftGuard.Status != domain.ShiftStatusApproved || out.ShiftGuard.AssignedUserID != employee.UserID || !out.ShiftGuard.RequireClockInUnset {
			t.Fatalf("unexpected guard %+v", out.ShiftGuard)
		}
		if out.Intents[0].UserID != employee.UserID || out.Intents[0].Type != domain.NotificationSwapApproved {
			t.Fatalf("requester must be notified first, got %+v", out.Intents)
		}
	})

	t.Run("approve without recipient changes only the request", func(t *testing.T) {
		broadcast := pending
		broadcast.ToUserID = nil
		out, err := ReviewSwap(broadcast, shift, manager, true, testNow)
		if err != nil {
			t.Fatalf("review: %v", err)
		}
		if out.Shift != nil {
			t.Fatalf("expected no reassignment, got %+v", out.Shift)
		}
		if len(out.Intents) != 1 {
			t.Fatalf("expected requester notification only, got %+v", out.Intents)
		}
	})

	t.Run("deny notifies requester", func(t *testing.T) {
		out, err := ReviewSwap(pending, shift, manager, false, testNow)
		if err != nil {
			t.Fatalf("review: %v", err)
		}
		if out.Request.Status != domain.SwapStatusDenied || out.Shift != nil {
			t.Fatalf("unexpected outcome %+v", out)
		}
		if len(out.Intents) != 1 || out.Intents[0].Type != domain.NotificationSwapDenied {
			t.Fatalf("unexpected intents %+v", out.Intents)
		}
	})

	t.Run("terminal requests cannot be reviewed again", func(t *testing.T) {
		done := pending
		done.Status = domain.SwapStatusDenied
		if _, err := ReviewSwap(done, shift, manager, true, testNow); !apperrors.IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("started shift cannot change hands", func(t *testing.T) {
		started := shift.Clone()
		started.ClockIn = &testNow
		_, err := ReviewSwap(pending, started, manager, true, testNow)
		if de := apperrors.ToDomainError(err); de == nil || de.Code != apperrors.CodeConflict || de.Message != "shift already started" {
			t.Fatalf("expected shift already started conflict, got %v", err)
		}
		if _, err := ReviewSwap(pending, started, manager, false, testNow); err != nil {
			t.Fatalf("denying a started swap must still work: %v", err)
		}
	})

	t.Run("shift reassigned elsewhere conflicts", func(t *testing.T) {
		moved := assignedShift(t, "emp-3")
		if _, err := ReviewSwap(pending, moved, manager, true, testNow); !apperrors.IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}
