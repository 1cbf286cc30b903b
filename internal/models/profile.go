package models

import "time"

// ProfileRole represents the application-level role bound to a principal.
type ProfileRole string

const (
	RoleAdmin   ProfileRole = "admin"
	RoleStudent ProfileRole = "student"
	RoleViewer  ProfileRole = "viewer"
)

// Valid reports whether the role is one of the closed set.
func (r ProfileRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleViewer:
		return true
	}
	return false
}

// Profile is the identity/role record bound to an authenticated principal.
// One profile per principal, created lazily on first authenticated action.
type Profile struct {
	ID        string      `db:"id" json:"id"`
	Username  string      `db:"username" json:"username"`
	FullName  *string     `db:"full_name" json:"full_name,omitempty"`
	AvatarURL *string     `db:"avatar_url" json:"avatar_url,omitempty"`
	Role      ProfileRole `db:"role" json:"role"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Actor is the minimal identity the authorization policy decides on.
type Actor struct {
	ID   string
	Role ProfileRole
}

// ProfileFilter captures filtering criteria for listing profiles.
type ProfileFilter struct {
	Role     *ProfileRole
	Search   string
	Page     int
	PageSize int
}

// ChangeRoleRequest is the payload for reassigning a profile's role.
type ChangeRoleRequest struct {
	Role ProfileRole `json:"role" binding:"required"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
