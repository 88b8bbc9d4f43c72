package domain

import "time"

// ShiftStatus enumerates lifecycle states for shifts.
type ShiftStatus string

const (
	ShiftStatusUnassigned ShiftStatus = "unassigned"
	ShiftStatusPending    ShiftStatus = "pending"
	ShiftStatusApproved   ShiftStatus = "approved"
	ShiftStatusCompleted  ShiftStatus = "completed"
	ShiftStatusLocked     ShiftStatus = "locked"
)

// DateLayout is the wire and storage format of Shift.Date.
const DateLayout = "2006-01-02"

// Shift is one scheduled block of work at one store.
type Shift struct {
	ID               string
	StoreID          string
	Date             time.Time
	StartTime        string
	EndTime          string
	AssignedUserID   *string
	ClaimedBy        *string
	ApprovedBy       *string
	RoleRequired     *Role
	Status           ShiftStatus
	ApprovalRequired bool
	WasteTotal       float64
	ProductionTotal  float64
	ClockIn          *time.Time
	ClockOut         *time.Time
	Station          string
	Notes            string
	EventFlag        bool
	EventNote        string
	CreatedBy        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DateKey returns the calendar day in DateLayout.
func (s *Shift) DateKey() string {
	return s.Date.Format(DateLayout)
}

// Terminal reports whether the shift can no longer conflict with new work.
func (s *Shift) Terminal() bool {
	return s.Status == ShiftStatusCompleted || s.Status == ShiftStatusLocked
}

// IsAssignedTo reports whether userID owns the shift.
func (s *Shift) IsAssignedTo(userID string) bool {
	return s.AssignedUserID != nil && *s.AssignedUserID == userID
}

// HeldBy reports whether userID owns or has a pending claim on the shift.
func (s *Shift) HeldBy(userID string) bool {
	if s.IsAssignedTo(userID) {
		return true
	}
	return s.Status == ShiftStatusPending && s.ClaimedBy != nil && *s.ClaimedBy == userID
}

// Clone returns a deep copy so transitions never alias the caller's value.
func (s *Shift) Clone() Shift {
	out := *s
	out.AssignedUserID = cloneString(s.AssignedUserID)
	out.ClaimedBy = cloneString(s.ClaimedBy)
	out.ApprovedBy = cloneString(s.ApprovedBy)
	out.CreatedBy = cloneString(s.CreatedBy)
	if s.RoleRequired != nil {
		r := *s.RoleRequired
		out.RoleRequired = &r
	}
	out.ClockIn = cloneTime(s.ClockIn)
	out.ClockOut = cloneTime(s.ClockOut)
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
