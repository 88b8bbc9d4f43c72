package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/shift-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventShiftClaimed   EventType = "shift.claimed"
	EventShiftApproved  EventType = "shift.approved"
	EventShiftDenied    EventType = "shift.denied"
	EventShiftClockedIn EventType = "shift.clocked_in"
	EventShiftCompleted EventType = "shift.completed"
	EventShiftLocked    EventType = "shift.locked"
	EventSwapRequested  EventType = "swap.requested"
	EventSwapReviewed   EventType = "swap.reviewed"
)

// AllEventTypes lists every event a subscriber may want.
var AllEventTypes = []EventType{
	EventShiftClaimed,
	EventShiftApproved,
	EventShiftDenied,
	EventShiftClockedIn,
	EventShiftCompleted,
	EventShiftLocked,
	EventSwapRequested,
	EventSwapReviewed,
}

// Event represents a domain event emitted by services after a committed write.
type Event struct {
	ID        string                      `json:"id"`
	Type      EventType                   `json:"type"`
	StoreID   string                      `json:"store_id"`
	ShiftID   string                      `json:"shift_id"`
	SwapID    string                      `json:"swap_id,omitempty"`
	ActorID   string                      `json:"actor_id"`
	Timestamp time.Time                   `json:"timestamp"`
	Intents   []domain.NotificationIntent `json:"intents,omitempty"`
}

// NewEvent stamps a fresh event.
func NewEvent(eventType EventType, actor domain.Identity, shiftID string, at time.Time, intents []domain.NotificationIntent) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		StoreID:   actor.StoreID,
		ShiftID:   shiftID,
		ActorID:   actor.UserID,
		Timestamp: at,
		Intents:   intents,
	}
}
