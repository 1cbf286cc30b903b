package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuspress/campus-blog-api/internal/models"
)

// GalleryRepository provides persistence for gallery images.
type GalleryRepository struct {
	db *sqlx.DB
}

// NewGalleryRepository creates the repository.
func NewGalleryRepository(db *sqlx.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

const galleryColumns = `id, url, object_name, title, description, author_id, project_id, blog_post_id, created_at`

// GetByID returns a gallery image by identifier.
func (r *GalleryRepository) GetByID(ctx context.Context, id string) (*models.GalleryImage, error) {
	query := fmt.Sprintf(`SELECT %s FROM gallery_images WHERE id = $1 LIMIT 1`, galleryColumns)
	var image models.GalleryImage
	if err := r.db.GetContext(ctx, &image, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find gallery image by id: %w", err)
	}
	return &image, nil
}

// List returns gallery images based on filters with total count.
func (r *GalleryRepository) List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryImage, int, error) {
	baseQuery := `FROM gallery_images WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)+1))
		args = append(args, *filter.ProjectID)
	}
	if filter.BlogPostID != nil {
		conditions = append(conditions, fmt.Sprintf("blog_post_id = $%d", len(args)+1))
		args = append(args, *filter.BlogPostID)
	}
	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, *filter.AuthorID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", galleryColumns, baseQuery, pageSize, offset)

	var images []models.GalleryImage
	if err := r.db.SelectContext(ctx, &images, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list gallery images: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count gallery images: %w", err)
	}

	return images, total, nil
}

// Create inserts a new gallery image record.
func (r *GalleryRepository) Create(ctx context.Context, image *models.GalleryImage) error {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO gallery_images (id, url, object_name, title, description, author_id, project_id, blog_post_id, created_at)
VALUES (:id, :url, :object_name, :title, :description, :author_id, :project_id, :blog_post_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, image); err != nil {
		return fmt.Errorf("create gallery image: %w", err)
	}
	return nil
}

// Delete removes a gallery image record.
func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM gallery_images WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}
	return nil
}
