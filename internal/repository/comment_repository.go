package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuspress/campus-blog-api/internal/models"
)

// CommentRepository provides persistence for comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = `id, content, author_id, blog_post_id, parent_id, created_at`

// GetByID returns a comment by identifier.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments WHERE id = $1 LIMIT 1`, commentColumns)
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return &comment, nil
}

// ListTopLevel returns top-level comments for a post, newest first.
func (r *CommentRepository) ListTopLevel(ctx context.Context, postID string) ([]models.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments WHERE blog_post_id = $1 AND parent_id IS NULL ORDER BY created_at DESC`, commentColumns)
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("list top-level comments: %w", err)
	}
	return comments, nil
}

// ListReplies returns every reply on a post, oldest first.
func (r *CommentRepository) ListReplies(ctx context.Context, postID string) ([]models.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments WHERE blog_post_id = $1 AND parent_id IS NOT NULL ORDER BY created_at ASC`, commentColumns)
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return comments, nil
}

// ListRecent returns the most recent comments across all posts.
func (r *CommentRepository) ListRecent(ctx context.Context, limit int) ([]models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM comments ORDER BY created_at DESC LIMIT %d`, commentColumns, limit)
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query); err != nil {
		return nil, fmt.Errorf("list recent comments: %w", err)
	}
	return comments, nil
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO comments (id, content, author_id, blog_post_id, parent_id, created_at)
VALUES (:id, :content, :author_id, :blog_post_id, :parent_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// UpdateContent replaces a comment's content.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	const query = `UPDATE comments SET content = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, content); err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// Delete removes a comment. Deleting a top-level comment cascades its
// replies.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM comments WHERE id = $1 OR parent_id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// Count returns the total number of comments.
func (r *CommentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM comments"); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return total, nil
}
