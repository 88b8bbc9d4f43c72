package lifecycle

import (
	"reflect"
	"testing"
	"time"

	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

var testNow = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func openShift(t *testing.T, approval bool) domain.Shift {
	t.Helper()
	return domain.Shift{
		ID:               "shift-1",
		StoreID:          "store-1",
		Date:             day(t, "2024-01-10"),
		StartTime:        "09:00",
		EndTime:          "17:00",
		Status:           domain.ShiftStatusUnassigned,
		ApprovalRequired: approval,
	}
}

func strPtr(v string) *string { return &v }

var (
	employee = domain.Identity{UserID: "emp-1", Role: domain.RoleEmployee, StoreID: "store-1", Name: "Erin"}
	manager  = domain.Identity{UserID: "mgr-1", Role: domain.RoleManager, StoreID: "store-1", Name: "Max"}
	admin    = domain.Identity{UserID: "adm-1", Role: domain.RoleAdmin, StoreID: "store-1", Name: "Ada"}
)

func TestClaim_RequiresApproval(t *testing.T) {
	t.Parallel()

	out, err := Claim(openShift(t, true), employee, nil, testNow)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if out.Shift.Status != domain.ShiftStatusPending {
		t.Fatalf("expected pending, got %s", out.Shift.Status)
	}
	if out.Shift.ClaimedBy == nil || *out.Shift.ClaimedBy != employee.UserID {
		t.Fatalf("expected claimedBy %s, got %v", employee.UserID, out.Shift.ClaimedBy)
	}
	if out.Shift.AssignedUserID != nil {
		t.Fatalf("pending shift must not be assigned, got %v", *out.Shift.AssignedUserID)
	}
	if out.Guard.Status != domain.ShiftStatusUnassigned {
		t.Fatalf("expected guard on unassigned, got %s", out.Guard.Status)
	}
	if len(out.Intents) != 1 || out.Intents[0].Audience != domain.AudienceStoreStaff || out.Intents[0].Type != domain.NotificationShiftClaimed {
		t.Fatalf("unexpected intents %+v", out.Intents)
	}
}

func TestClaim_WithoutApprovalSkipsPending(t *testing.T) {
	t.Parallel()

	out, err := Claim(openShift(t, false), employee, nil, testNow)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if out.Shift.Status != domain.ShiftStatusApproved {
		t.Fatalf("expected approved, got %s", out.Shift.Status)
	}
	if !out.Shift.IsAssignedTo(employee.UserID) {
		t.Fatalf("expected assignment to %s", employee.UserID)
	}
}

func TestClaim_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := openShift(t, true)
	before := in.Clone()
	if _, err := Claim(in, employee, nil, testNow); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !reflect.DeepEqual(before, in) {
		t.Fatalf("input shift changed: %+v", in)
	}
}

func TestClaim_Rejections(t *testing.T) {
	t.Parallel()

	managersOnly := domain.RoleManager

	tests := []struct {
		name  string
		shift func() domain.Shift
		actor domain.Identity
		held  []domain.Shift
		code  string
	}{
		{
			name: "pending shift",
			shift: func() domain.Shift {
				s := openShift(t, true)
				s.Status = domain.ShiftStatusPending
				s.ClaimedBy = strPtr("emp-2")
				return s
			},
			actor: employee,
			code:  apperrors.CodeConflict,
		},
		{
			name: "locked shift",
			shift: func() domain.Shift {
				s := openShift(t, true)
				s.Status = domain.ShiftStatusLocked
				return s
			},
			actor: employee,
			code:  apperrors.CodeConflict,
		},
		{
			name: "role mismatch",
			shift: func() domain.Shift {
				s := openShift(t, true)
				s.RoleRequired = &managersOnly
				return s
			},
			actor: employee,
			code:  apperrors.CodeForbidden,
		},
		{
			name:  "overlap",
			shift: func() domain.Shift { return openShift(t, true) },
			actor: employee,
			held: []domain.Shift{{
				ID: "shift-0", StoreID: "store-1", Date: day(t, "2024-01-10"),
				StartTime: "16:00", EndTime: "20:00", Status: domain.ShiftStatusApproved,
				AssignedUserID: strPtr("emp-1"),
			}},
			code: apperrors.CodeOverlap,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Claim(tc.shift(), tc.actor, tc.held, testNow)
			if !apperrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestClaim_AdminOverridesRoleFilter(t *testing.T) {
	t.Parallel()

	role := domain.RoleEmployee
	s := openShift(t, true)
	s.RoleRequired = &role

	if _, err := Claim(s, admin, nil, testNow); err != nil {
		t.Fatalf("admin claim: %v", err)
	}
	if _, err := Claim(s, employee, nil, testNow); err != nil {
		t.Fatalf("matching role claim: %v", err)
	}
}

func TestApproveAndDeny(t *testing.T) {
	t.Parallel()

	pending := openShift(t, true)
	pending.Status = domain.ShiftStatusPending
	pending.ClaimedBy = strPtr(employee.UserID)

	approved, err := Approve(pending, manager, testNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Shift.Status != domain.ShiftStatusApproved || !approved.Shift.IsAssignedTo(employee.UserID) {
		t.Fatalf("unexpected approved shift %+v", approved.Shift)
	}
	if approved.Shift.ApprovedBy == nil || *approved.Shift.ApprovedBy != manager.UserID {
		t.Fatalf("expected approvedBy %s", manager.UserID)
	}
	if len(approved.Intents) != 1 || approved.Intents[0].UserID != employee.UserID || approved.Intents[0].Type != domain.NotificationShiftApproved {
		t.Fatalf("unexpected intents %+v", approved.Intents)
	}

	denied, err := Deny(pending, manager, testNow)
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if denied.Shift.Status != domain.ShiftStatusUnassigned || denied.Shift.ClaimedBy != nil || denied.Shift.AssignedUserID != nil {
		t.Fatalf("unexpected denied shift %+v", denied.Shift)
	}
	if len(denied.Intents) != 1 || denied.Intents[0].UserID != employee.UserID || denied.Intents[0].Type != domain.NotificationShiftDenied {
		t.Fatalf("unexpected intents %+v", denied.Intents)
	}

	if _, err := Approve(openShift(t, true), manager, testNow); !apperrors.IsConflict(err) {
		t.Fatalf("approving an unassigned shift should conflict, got %v", err)
	}
}

func TestClockInOut(t *testing.T) {
	t.Parallel()

	s := openShift(t, true)
	if _, err := ClockIn(s, employee, testNow); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict before approval, got %v", err)
	}

	s.Status = domain.ShiftStatusApproved
	s.AssignedUserID = strPtr(employee.UserID)
	s.ClaimedBy = strPtr(employee.UserID)

	if _, err := ClockOut(s, employee, testNow); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict clocking out before in, got %v", err)
	}

	in, err := ClockIn(s, employee, testNow)
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if in.Shift.ClockIn == nil || !in.Shift.ClockIn.Equal(testNow) || in.Shift.Status != domain.ShiftStatusApproved {
		t.Fatalf("unexpected shift after clock in %+v", in.Shift)
	}
	if !in.Guard.RequireClockInUnset {
		t.Fatal("clock in must guard on unset clock in")
	}
	if _, err := ClockIn(in.Shift, employee, testNow); !apperrors.IsConflict(err) {
		t.Fatalf("double clock in should conflict, got %v", err)
	}

	later := testNow.Add(8 * time.Hour)
	out, err := ClockOut(in.Shift, employee, later)
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if out.Shift.Status != domain.ShiftStatusCompleted || out.Shift.ClockOut == nil || !out.Shift.ClockOut.Equal(later) {
		t.Fatalf("unexpected shift after clock out %+v", out.Shift)
	}
	if len(out.Intents) != 1 || out.Intents[0].Audience != domain.AudienceStoreAdmins {
		t.Fatalf("expected admin notification, got %+v", out.Intents)
	}
}

func TestLock(t *testing.T) {
	t.Parallel()

	s := openShift(t, true)
	if _, err := Lock(s, admin, testNow); !apperrors.IsConflict(err) {
		t.Fatalf("locking an open shift should conflict, got %v", err)
	}

	s.Status = domain.ShiftStatusCompleted
	s.AssignedUserID = strPtr(employee.UserID)
	locked, err := Lock(s, admin, testNow)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if locked.Shift.Status != domain.ShiftStatusLocked {
		t.Fatalf("expected locked, got %s", locked.Shift.Status)
	}
}

func TestLockedShiftRejectsEveryTransition(t *testing.T) {
	t.Parallel()

	s := openShift(t, true)
	s.Status = domain.ShiftStatusLocked
	s.AssignedUserID = strPtr(employee.UserID)
	s.ClaimedBy = strPtr(employee.UserID)
	clockIn := testNow
	s.ClockIn = &clockIn

	attempts := map[string]func() error{
		"claim":     func() error { _, err := Claim(s, employee, nil, testNow); return err },
		"approve":   func() error { _, err := Approve(s, manager, testNow); return err },
		"deny":      func() error { _, err := Deny(s, manager, testNow); return err },
		"clock in":  func() error { _, err := ClockIn(s, employee, testNow); return err },
		"clock out": func() error { _, err := ClockOut(s, employee, testNow); return err },
		"lock":      func() error { _, err := Lock(s, admin, testNow); return err },
		"edit":      func() error { return Editable(&s) },
	}
	for name, attempt := range attempts {
		err := attempt()
		de := apperrors.ToDomainError(err)
		if de == nil || de.Code != apperrors.CodeConflict || de.Message != "shift is locked" {
			t.Fatalf("%s: expected uniform locked conflict, got %v", name, err)
		}
	}
}
