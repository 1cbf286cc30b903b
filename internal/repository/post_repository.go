package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuspress/campus-blog-api/internal/models"
)

// PostRepository provides persistence for blog posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates the repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `id, title, content, excerpt, author_id, project_id, status, slug, created_at, updated_at, published_at`

// GetByID returns a post by identifier.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM blog_posts WHERE id = $1 LIMIT 1`, postColumns)
	var post models.BlogPost
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return &post, nil
}

// GetBySlug returns a post by slug.
func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM blog_posts WHERE slug = $1 LIMIT 1`, postColumns)
	var post models.BlogPost
	if err := r.db.GetContext(ctx, &post, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return &post, nil
}

// List returns posts matching the filter with a total count. Status
// restriction is taken verbatim from the filter; visibility rules are the
// service's responsibility.
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter) ([]models.BlogPost, int, error) {
	baseQuery := `FROM blog_posts WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)+1))
		args = append(args, *filter.ProjectID)
	}
	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, *filter.AuthorID)
	}
	if len(filter.Statuses) > 0 {
		values := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			values = append(values, string(s))
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(values))
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(content) LIKE $%d OR LOWER(excerpt) LIKE $%d)", n, n, n))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"published_at": true,
		"created_at":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "published_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	orderClause := fmt.Sprintf("ORDER BY %s %s", sortBy, sortOrder)
	if sortBy == "published_at" {
		orderClause += " NULLS LAST"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s %s LIMIT %d OFFSET %d", postColumns, baseQuery, orderClause, pageSize, offset)

	var posts []models.BlogPost
	if err := r.db.SelectContext(ctx, &posts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	return posts, total, nil
}

// FindSlugs returns every stored slug equal to base or carrying a base-
// derived suffix, for deterministic collision resolution.
func (r *PostRepository) FindSlugs(ctx context.Context, base string) ([]string, error) {
	const query = `SELECT slug FROM blog_posts WHERE slug = $1 OR slug LIKE $1 || '-%'`
	var slugs []string
	if err := r.db.SelectContext(ctx, &slugs, query, base); err != nil {
		return nil, fmt.Errorf("find slugs: %w", err)
	}
	return slugs, nil
}

// Create inserts a new post. Unique violations on slug bubble up so the
// caller can re-disambiguate and retry.
func (r *PostRepository) Create(ctx context.Context, post *models.BlogPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	const query = `INSERT INTO blog_posts (id, title, content, excerpt, author_id, project_id, status, slug, created_at, updated_at, published_at)
VALUES (:id, :title, :content, :excerpt, :author_id, :project_id, :status, :slug, :created_at, :updated_at, :published_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update modifies an existing post.
func (r *PostRepository) Update(ctx context.Context, post *models.BlogPost) error {
	post.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blog_posts SET title = :title, content = :content, excerpt = :excerpt, project_id = :project_id,
status = :status, slug = :slug, updated_at = :updated_at, published_at = :published_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post, cascading its comments and detaching gallery links
// in one transaction.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin post delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE blog_post_id = $1", id); err != nil {
		return fmt.Errorf("delete post comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE gallery_images SET blog_post_id = NULL WHERE blog_post_id = $1", id); err != nil {
		return fmt.Errorf("detach post gallery images: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM blog_posts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit post delete: %w", err)
	}
	return nil
}

// CountByStatus returns post counts grouped by status.
func (r *PostRepository) CountByStatus(ctx context.Context) (map[models.PostStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM blog_posts GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.PostStatus]int)
	for rows.Next() {
		var status models.PostStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan post status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post status counts: %w", err)
	}
	return counts, nil
}
