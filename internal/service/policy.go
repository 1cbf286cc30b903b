package service

import (
	"github.com/campuspress/campus-blog-api/internal/models"
)

// Action enumerates everything the authorization policy can decide on. The
// set is closed: unknown actions are denied.
type Action string

const (
	ActionCreatePost         Action = "post:create"
	ActionEditPost           Action = "post:edit"
	ActionDeletePost         Action = "post:delete"
	ActionViewPost           Action = "post:view"
	ActionCreateProject      Action = "project:create"
	ActionEditProject        Action = "project:edit"
	ActionDeleteProject      Action = "project:delete"
	ActionCreateComment      Action = "comment:create"
	ActionEditComment        Action = "comment:edit"
	ActionDeleteComment      Action = "comment:delete"
	ActionCreateGalleryImage Action = "gallery:create"
	ActionDeleteGalleryImage Action = "gallery:delete"
	ActionAdminDashboard     Action = "dashboard:admin"
	ActionStudentDashboard   Action = "dashboard:student"
	ActionChangeRole         Action = "profile:change_role"
)

// Resource carries the attributes of the target the policy needs: who owns it
// and, for posts, its publication state. The zero value works for actions
// without a concrete target.
type Resource struct {
	OwnerID    string
	PostStatus models.PostStatus
}

// CanPerform is the single authorization decision point. Pure, no side
// effects. Every mutating service path calls it before touching a repository.
func CanPerform(actor models.Actor, action Action, resource Resource) bool {
	if actor.ID == "" || !actor.Role.Valid() {
		return false
	}

	isAdmin := actor.Role == models.RoleAdmin
	isOwner := resource.OwnerID != "" && actor.ID == resource.OwnerID

	switch action {
	case ActionCreatePost:
		return actor.Role == models.RoleStudent || isAdmin
	case ActionEditPost, ActionDeletePost:
		return isOwner || isAdmin
	case ActionViewPost:
		if resource.PostStatus == models.PostStatusPublished {
			return true
		}
		return isOwner || isAdmin
	case ActionCreateProject, ActionEditProject, ActionDeleteProject:
		return isAdmin
	case ActionCreateComment, ActionCreateGalleryImage:
		return true
	case ActionEditComment, ActionDeleteComment, ActionDeleteGalleryImage:
		return isOwner || isAdmin
	case ActionAdminDashboard, ActionChangeRole:
		return isAdmin
	case ActionStudentDashboard:
		return actor.Role == models.RoleStudent || isAdmin
	}
	return false
}
