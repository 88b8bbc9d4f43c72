package dto

import (
	"time"

	"github.com/spec-kit/shift-service/internal/domain"
)

// CreateSwapRequest payload.
type CreateSwapRequest struct {
	ShiftID  string  `json:"shiftId"`
	ToUserID *string `json:"toUserId"`
	Message  string  `json:"message"`
}

// SwapResponse represents a swap request.
type SwapResponse struct {
	ID         string            `json:"id"`
	ShiftID    string            `json:"shiftId"`
	StoreID    string            `json:"storeId"`
	FromUserID string            `json:"fromUserId"`
	ToUserID   *string           `json:"toUserId"`
	Status     domain.SwapStatus `json:"status"`
	Message    string            `json:"message"`
	ReviewedBy *string           `json:"reviewedBy"`
	ReviewedAt *time.Time        `json:"reviewedAt"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// NotificationResponse represents a notification.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	ShiftID   *string                 `json:"shiftId"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"createdAt"`
}
