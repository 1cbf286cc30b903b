package models

import "time"

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Sort directions accepted by post listings.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// BlogPost is a student-authored post. Drafts are visible only to their
// author and admins; published posts are public.
type BlogPost struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Content     string     `db:"content" json:"content"`
	Excerpt     *string    `db:"excerpt" json:"excerpt,omitempty"`
	AuthorID    string     `db:"author_id" json:"author_id"`
	ProjectID   *string    `db:"project_id" json:"project_id,omitempty"`
	Status      PostStatus `db:"status" json:"status"`
	Slug        string     `db:"slug" json:"slug"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
}

// CreatePostRequest is the authoring payload.
type CreatePostRequest struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Content   string     `json:"content" validate:"required"`
	Excerpt   *string    `json:"excerpt" validate:"omitempty,max=500"`
	ProjectID *string    `json:"project_id"`
	Status    PostStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

// UpdatePostRequest is a partial patch; nil fields stay untouched.
type UpdatePostRequest struct {
	Title     *string     `json:"title" validate:"omitempty,min=1,max=200"`
	Content   *string     `json:"content" validate:"omitempty,min=1"`
	Excerpt   *string     `json:"excerpt" validate:"omitempty,max=500"`
	ProjectID *string     `json:"project_id"`
	Status    *PostStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

// PostFilter is the explicit, validated filter object passed immutably into
// the repository. AuthorID narrows to one author; Statuses is resolved by the
// service from the caller's identity, never taken verbatim from the request.
type PostFilter struct {
	ProjectID *string
	AuthorID  *string
	Search    string
	Statuses  []PostStatus
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
