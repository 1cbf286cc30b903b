package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type projectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	CountReferences(ctx context.Context, id string) (int, error)
}

// ProjectListResult pairs project items with a total count.
type ProjectListResult struct {
	Items []models.Project `json:"items"`
	Total int              `json:"total"`
}

// ProjectService implements admin-only project management. Listing is public
// so browsing filters can be populated.
type ProjectService struct {
	repo      projectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(repo projectRepository, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProjectService{repo: repo, validator: validate, logger: logger}
}

// Create adds a new project.
func (s *ProjectService) Create(ctx context.Context, actor models.Actor, req models.CreateProjectRequest) (*models.Project, error) {
	if !CanPerform(actor, ActionCreateProject, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusOpen
	}

	project := &models.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Year:        req.Year,
		Status:      status,
		AdminID:     actor.ID,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return project, nil
}

// Update applies a partial patch to a project.
func (s *ProjectService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateProjectRequest) (*models.Project, error) {
	if !CanPerform(actor, ActionEditProject, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project patch")
	}

	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.Year != nil {
		project.Year = *req.Year
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

// Delete removes a project. Refused while any post or gallery image still
// references it.
func (s *ProjectService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !CanPerform(actor, ActionDeleteProject, Resource{}) {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count project references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "project is still referenced by posts or gallery images")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}
	return nil
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// List returns projects for browsing filters. Public.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) (*ProjectListResult, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return &ProjectListResult{Items: items, Total: total}, nil
}
