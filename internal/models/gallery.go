package models

import "time"

// GalleryImage is an uploaded image, always bound to exactly one project and
// optionally linked to a blog post.
type GalleryImage struct {
	ID          string    `db:"id" json:"id"`
	URL         string    `db:"url" json:"url"`
	ObjectName  string    `db:"object_name" json:"-"`
	Title       *string   `db:"title" json:"title,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	AuthorID    string    `db:"author_id" json:"author_id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	BlogPostID  *string   `db:"blog_post_id" json:"blog_post_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GalleryFilter captures listing criteria for gallery images.
type GalleryFilter struct {
	ProjectID  *string
	BlogPostID *string
	AuthorID   *string
	Page       int
	PageSize   int
}
