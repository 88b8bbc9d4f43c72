package auth

import (
	"testing"

	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	gate, err := NewGate()
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	return gate
}

func TestGate_Matrix(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)

	tests := []struct {
		op       Operation
		employee bool
		manager  bool
		admin    bool
	}{
		{OpShiftList, true, true, true},
		{OpShiftClaim, true, true, true},
		{OpShiftClock, true, true, true},
		{OpLedgerAppend, true, true, true},
		{OpNotificationRead, true, true, true},
		{OpShiftCreate, false, true, true},
		{OpShiftUpdate, false, true, true},
		{OpShiftApprove, false, true, true},
		{OpSwapReview, false, true, true},
		{OpShiftDelete, false, false, true},
		{OpShiftLock, false, false, true},
	}

	for _, tc := range tests {
		if got := gate.Allowed(domain.RoleEmployee, tc.op); got != tc.employee {
			t.Errorf("employee %s = %v, want %v", tc.op, got, tc.employee)
		}
		if got := gate.Allowed(domain.RoleManager, tc.op); got != tc.manager {
			t.Errorf("manager %s = %v, want %v", tc.op, got, tc.manager)
		}
		if got := gate.Allowed(domain.RoleAdmin, tc.op); got != tc.admin {
			t.Errorf("admin %s = %v, want %v", tc.op, got, tc.admin)
		}
	}

	if gate.Allowed("owner", OpShiftList) {
		t.Error("unknown roles must be denied")
	}
}

func TestGate_AuthorizeShift(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	owner := "emp-1"
	shift := &domain.Shift{ID: "shift-1", StoreID: "store-1", Status: domain.ShiftStatusApproved, AssignedUserID: &owner}

	emp := domain.Identity{UserID: "emp-1", Role: domain.RoleEmployee, StoreID: "store-1"}
	other := domain.Identity{UserID: "emp-2", Role: domain.RoleEmployee, StoreID: "store-1"}
	mgr := domain.Identity{UserID: "mgr-1", Role: domain.RoleManager, StoreID: "store-1"}
	foreign := domain.Identity{UserID: "mgr-9", Role: domain.RoleManager, StoreID: "store-9"}

	if err := gate.AuthorizeShift(emp, OpShiftClock, shift); err != nil {
		t.Fatalf("owner clock: %v", err)
	}
	if err := gate.AuthorizeShift(other, OpShiftClock, shift); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := gate.AuthorizeShift(other, OpShiftClaim, shift); err != nil {
		t.Fatalf("claim has no ownership rule: %v", err)
	}
	if err := gate.AuthorizeShift(mgr, OpLedgerAppend, shift); err != nil {
		t.Fatalf("manager bypasses ownership: %v", err)
	}
	claimant := "emp-2"
	pending := &domain.Shift{ID: "shift-2", StoreID: "store-1", Status: domain.ShiftStatusPending, ClaimedBy: &claimant}
	if err := gate.AuthorizeShift(other, OpShiftClock, pending); err != nil {
		t.Fatalf("pending claimant reaches the lifecycle check: %v", err)
	}
	if err := gate.AuthorizeShift(other, OpLedgerAppend, pending); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden ledger append on unassigned shift, got %v", err)
	}
	if err := gate.AuthorizeShift(foreign, OpShiftApprove, shift); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden across stores, got %v", err)
	}
	if err := gate.Authorize(domain.Identity{}, OpShiftList); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty identity, got %v", err)
	}
}
