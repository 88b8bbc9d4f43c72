package domain

import "time"

// SwapStatus enumerates swap request states.
type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "pending"
	SwapStatusApproved SwapStatus = "approved"
	SwapStatusDenied   SwapStatus = "denied"
)

// SwapRequest asks a manager to hand an assigned shift to someone else.
type SwapRequest struct {
	ID         string
	ShiftID    string
	StoreID    string
	FromUserID string
	ToUserID   *string
	Status     SwapStatus
	Message    string
	ReviewedBy *string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
