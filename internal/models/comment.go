package models

import "time"

// CommentMaxLength bounds comment content.
const CommentMaxLength = 280

// Comment belongs to a blog post. A comment with a nil ParentID is top-level;
// a reply's ParentID must reference a top-level comment (max depth 1).
type Comment struct {
	ID         string    `db:"id" json:"id"`
	Content    string    `db:"content" json:"content"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	BlogPostID string    `db:"blog_post_id" json:"blog_post_id"`
	ParentID   *string   `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CommentThread is a top-level comment with its replies in conversational
// order (replies oldest first).
type CommentThread struct {
	Comment
	Replies []Comment `json:"replies"`
}

// CreateCommentRequest is the comment payload.
type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required,max=280"`
	ParentID *string `json:"parent_id"`
}

// UpdateCommentRequest replaces a comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=280"`
}
