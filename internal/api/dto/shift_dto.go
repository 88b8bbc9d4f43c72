package dto

import (
	"time"

	"github.com/spec-kit/shift-service/internal/domain"
)

// CreateShiftRequest payload.
type CreateShiftRequest struct {
	Date             string  `json:"date"`
	StartTime        string  `json:"startTime"`
	EndTime          string  `json:"endTime"`
	RoleRequired     *string `json:"roleRequired"`
	ApprovalRequired *bool   `json:"approvalRequired"`
	Station          string  `json:"station"`
	Notes            string  `json:"notes"`
	EventFlag        bool    `json:"eventFlag"`
	EventNote        string  `json:"eventNote"`
}

// UpdateShiftRequest payload; omitted fields are left unchanged.
type UpdateShiftRequest struct {
	Date         *string `json:"date"`
	StartTime    *string `json:"startTime"`
	EndTime      *string `json:"endTime"`
	RoleRequired *string `json:"roleRequired"`
	Station      *string `json:"station"`
	Notes        *string `json:"notes"`
	EventFlag    *bool   `json:"eventFlag"`
	EventNote    *string `json:"eventNote"`
}

// ActionRequest carries the verb of approve, clock and swap review calls.
type ActionRequest struct {
	Action string `json:"action"`
}

// ShiftResponse represents a shift.
type ShiftResponse struct {
	ID               string             `json:"id"`
	StoreID          string             `json:"storeId"`
	Date             string             `json:"date"`
	StartTime        string             `json:"startTime"`
	EndTime          string             `json:"endTime"`
	AssignedUserID   *string            `json:"assignedUserId"`
	ClaimedBy        *string            `json:"claimedBy"`
	ApprovedBy       *string            `json:"approvedBy"`
	RoleRequired     *domain.Role       `json:"roleRequired"`
	Status           domain.ShiftStatus `json:"status"`
	ApprovalRequired bool               `json:"approvalRequired"`
	WasteTotal       float64            `json:"wasteTotal"`
	ProductionTotal  float64            `json:"productionTotal"`
	ClockIn          *time.Time         `json:"clockIn"`
	ClockOut         *time.Time         `json:"clockOut"`
	Station          string             `json:"station"`
	Notes            string             `json:"notes"`
	EventFlag        bool               `json:"eventFlag"`
	EventNote        string             `json:"eventNote"`
	CreatedBy        *string            `json:"createdBy"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// LogRequest payload for waste and production entries.
type LogRequest struct {
	ShiftID  string  `json:"shiftId"`
	ItemName string  `json:"itemName"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Reason   string  `json:"reason"`
}

// LogResponse represents a ledger entry.
type LogResponse struct {
	ID        string            `json:"id"`
	ShiftID   string            `json:"shiftId"`
	Kind      domain.LedgerKind `json:"kind"`
	ItemName  string            `json:"itemName"`
	Quantity  float64           `json:"quantity"`
	Unit      string            `json:"unit"`
	Reason    string            `json:"reason"`
	LoggedBy  string            `json:"loggedBy"`
	CreatedAt time.Time         `json:"createdAt"`
}
