package models

import "time"

// ProjectStatus gates whether new posts and gallery images may target a project.
type ProjectStatus string

const (
	ProjectStatusOpen   ProjectStatus = "open"
	ProjectStatusClosed ProjectStatus = "closed"
)

// Project represents an organizing cohort/initiative created by an admin.
type Project struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description *string       `db:"description" json:"description,omitempty"`
	Year        int           `db:"year" json:"year"`
	Status      ProjectStatus `db:"status" json:"status"`
	AdminID     string        `db:"admin_id" json:"admin_id"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// CreateProjectRequest is the admin payload for a new project.
type CreateProjectRequest struct {
	Name        string        `json:"name" validate:"required,max=100"`
	Description *string       `json:"description"`
	Year        int           `json:"year" validate:"required,gte=2000,lte=2100"`
	Status      ProjectStatus `json:"status" validate:"omitempty,oneof=open closed"`
}

// UpdateProjectRequest is a partial patch; nil fields stay untouched.
type UpdateProjectRequest struct {
	Name        *string        `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string        `json:"description"`
	Year        *int           `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Status      *ProjectStatus `json:"status" validate:"omitempty,oneof=open closed"`
}

// ProjectFilter captures listing criteria for projects.
type ProjectFilter struct {
	Status   *ProjectStatus
	Year     *int
	Page     int
	PageSize int
}
