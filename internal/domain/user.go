package domain

import "time"

// User is a store member who can authenticate.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	StoreID      string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity projects the user onto the authorization inputs.
func (u *User) Identity() Identity {
	return Identity{
		UserID:  u.ID,
		Role:    u.Role,
		StoreID: u.StoreID,
		Name:    u.Name,
		Email:   u.Email,
	}
}

// Store carries per-store shift policy.
type Store struct {
	ID               string
	Name             string
	ApprovalRequired bool
	CreatedAt        time.Time
}
