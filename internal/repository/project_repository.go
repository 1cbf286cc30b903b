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

// ProjectRepository provides persistence for projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetByID returns a project by identifier.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	const query = `SELECT id, name, description, year, status, admin_id, created_at, updated_at FROM projects WHERE id = $1 LIMIT 1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	return &project, nil
}

// List returns projects based on filters with total count.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	baseQuery := `FROM projects WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, *filter.Year)
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

	listQuery := fmt.Sprintf("SELECT id, name, description, year, status, admin_id, created_at, updated_at %s ORDER BY year DESC, created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	return projects, total, nil
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	const query = `INSERT INTO projects (id, name, description, year, status, admin_id, created_at, updated_at)
VALUES (:id, :name, :description, :year, :status, :admin_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update modifies an existing project.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects SET name = :name, description = :description, year = :year, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// Delete removes a project.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// CountReferences returns how many posts and gallery images point at the
// project. A referenced project must not be deleted.
func (r *ProjectRepository) CountReferences(ctx context.Context, id string) (int, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM blog_posts WHERE project_id = $1) +
(SELECT COUNT(*) FROM gallery_images WHERE project_id = $1)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, id); err != nil {
		return 0, fmt.Errorf("count project references: %w", err)
	}
	return total, nil
}

// Count returns the total number of projects.
func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM projects"); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return total, nil
}
