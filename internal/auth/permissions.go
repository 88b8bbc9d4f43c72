package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/spec-kit/shift-service/internal/domain"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// Operation names an action guarded by the permission matrix.
type Operation string

const (
	OpShiftList        Operation = "shift.list"
	OpShiftView        Operation = "shift.view"
	OpShiftCreate      Operation = "shift.create"
	OpShiftUpdate      Operation = "shift.update"
	OpShiftDelete      Operation = "shift.delete"
	OpShiftClaim       Operation = "shift.claim"
	OpShiftApprove     Operation = "shift.approve"
	OpShiftClock       Operation = "shift.clock"
	OpShiftLock        Operation = "shift.lock"
	OpSwapList         Operation = "swap.list"
	OpSwapCreate       Operation = "swap.create"
	OpSwapReview       Operation = "swap.review"
	OpLedgerList       Operation = "ledger.list"
	OpLedgerAppend     Operation = "ledger.append"
	OpNotificationList Operation = "notification.list"
	OpNotificationRead Operation = "notification.read"
)

// roles inherit every permission of the role they extend.
const policyModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.act == p.act
`

var rolePermissions = map[domain.Role][]Operation{
	domain.RoleEmployee: {
		OpShiftList, OpShiftView, OpShiftClaim, OpShiftClock,
		OpSwapList, OpSwapCreate,
		OpLedgerList, OpLedgerAppend,
		OpNotificationList, OpNotificationRead,
	},
	domain.RoleManager: {OpShiftCreate, OpShiftUpdate, OpShiftApprove, OpSwapReview},
	domain.RoleAdmin:   {OpShiftDelete, OpShiftLock},
}

var roleInheritance = [][]string{
	{string(domain.RoleAdmin), string(domain.RoleManager)},
	{string(domain.RoleManager), string(domain.RoleEmployee)},
}

// OwnershipRule decides whether an employee may touch a specific shift.
type OwnershipRule func(id domain.Identity, shift *domain.Shift) bool

// employees may only act on shifts they hold for these operations. A pending
// claimant passes the clock rule so the lifecycle can report the real reason.
var ownershipRules = map[Operation]OwnershipRule{
	OpShiftClock:   heldByCaller,
	OpLedgerAppend: assignedToCaller,
}

func assignedToCaller(id domain.Identity, shift *domain.Shift) bool {
	return shift.IsAssignedTo(id.UserID)
}

func heldByCaller(id domain.Identity, shift *domain.Shift) bool {
	return shift.HeldBy(id.UserID)
}

// Gate evaluates the permission matrix and row-level ownership.
type Gate struct {
	enforcer  *casbin.SyncedEnforcer
	ownership map[Operation]OwnershipRule
}

// NewGate builds the enforcer from the in-code matrix.
func NewGate() (*Gate, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load permission model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("build enforcer: %w", err)
	}

	var policies [][]string
	for role, ops := range rolePermissions {
		for _, op := range ops {
			policies = append(policies, []string{string(role), string(op)})
		}
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicies(roleInheritance); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}
	return &Gate{enforcer: enforcer, ownership: ownershipRules}, nil
}

// Allowed reports whether role may perform op.
func (g *Gate) Allowed(role domain.Role, op Operation) bool {
	if !role.Valid() {
		return false
	}
	ok, err := g.enforcer.Enforce(string(role), string(op))
	return err == nil && ok
}

// Authorize checks the role matrix only.
func (g *Gate) Authorize(id domain.Identity, op Operation) error {
	if id.UserID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !g.Allowed(id.Role, op) {
		return apperrors.NewForbidden(fmt.Sprintf("role %s may not %s", id.Role, op))
	}
	return nil
}

// AuthorizeStore checks the role matrix and store membership.
func (g *Gate) AuthorizeStore(id domain.Identity, op Operation, storeID string) error {
	if err := g.Authorize(id, op); err != nil {
		return err
	}
	if id.StoreID != storeID {
		return apperrors.NewForbidden("resource belongs to another store")
	}
	return nil
}

// AuthorizeShift checks role, store, and the employee ownership rule for op.
func (g *Gate) AuthorizeShift(id domain.Identity, op Operation, shift *domain.Shift) error {
	if err := g.AuthorizeStore(id, op, shift.StoreID); err != nil {
		return err
	}
	if id.Role != domain.RoleEmployee {
		return nil
	}
	if rule, ok := g.ownership[op]; ok && !rule(id, shift) {
		return apperrors.NewForbidden("shift is not assigned to you")
	}
	return nil
}
