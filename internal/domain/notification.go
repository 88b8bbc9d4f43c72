package domain

import "time"

// NotificationType tags a notification with the transition that produced it.
type NotificationType string

const (
	NotificationShiftClaimed   NotificationType = "shift_claimed"
	NotificationShiftApproved  NotificationType = "shift_approved"
	NotificationShiftDenied    NotificationType = "shift_denied"
	NotificationShiftCompleted NotificationType = "shift_completed"
	NotificationSwapRequested  NotificationType = "swap_requested"
	NotificationSwapApproved   NotificationType = "swap_approved"
	NotificationSwapDenied     NotificationType = "swap_denied"
)

// Audience selects the recipients of an intent.
type Audience string

const (
	// AudienceUser targets NotificationIntent.UserID only.
	AudienceUser Audience = "user"
	// AudienceStoreStaff targets every active admin and manager of the store.
	AudienceStoreStaff Audience = "store_staff"
	// AudienceStoreAdmins targets every active admin of the store.
	AudienceStoreAdmins Audience = "store_admins"
)

// NotificationIntent is a notification a transition wants delivered.
type NotificationIntent struct {
	Audience Audience
	StoreID  string
	UserID   string
	Type     NotificationType
	Title    string
	Message  string
	ShiftID  *string
}

// Notification is a persisted, user-scoped message.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	ShiftID   *string
	Read      bool
	CreatedAt time.Time
}
