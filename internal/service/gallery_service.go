package service

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type galleryRepository interface {
	GetByID(ctx context.Context, id string) (*models.GalleryImage, error)
	List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryImage, int, error)
	Create(ctx context.Context, image *models.GalleryImage) error
	Delete(ctx context.Context, id string) error
}

type uploadStore interface {
	Allowed(filename string) bool
	Save(originalName string, r io.Reader) (string, string, error)
	Delete(object string) error
}

// GalleryUpload carries one multipart upload plus its metadata.
type GalleryUpload struct {
	Filename    string
	File        io.Reader
	Size        int64
	Title       *string
	Description *string
	ProjectID   string
	BlogPostID  *string
}

// GalleryListResult pairs gallery items with a total count.
type GalleryListResult struct {
	Items []models.GalleryImage `json:"items"`
	Total int                   `json:"total"`
}

// GalleryService handles image uploads bound to projects.
type GalleryService struct {
	repo        galleryRepository
	posts       postGetter
	projects    projectGetter
	store       uploadStore
	validator   *validator.Validate
	logger      *zap.Logger
	maxFileSize int64
}

// NewGalleryService constructs a GalleryService instance.
func NewGalleryService(repo galleryRepository, posts postGetter, projects projectGetter, store uploadStore, validate *validator.Validate, logger *zap.Logger, maxFileSize int64) *GalleryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &GalleryService{repo: repo, posts: posts, projects: projects, store: store, validator: validate, logger: logger, maxFileSize: maxFileSize}
}

// Upload stores the file and records its metadata. The target project must
// exist and be open; the optional post link must point at an existing post.
func (s *GalleryService) Upload(ctx context.Context, actor models.Actor, upload GalleryUpload) (*models.GalleryImage, error) {
	if !CanPerform(actor, ActionCreateGalleryImage, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if upload.ProjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project_id is required")
	}
	if upload.Filename == "" || upload.File == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if !s.store.Allowed(upload.Filename) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed")
	}
	if upload.Size > s.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum allowed size")
	}

	project, err := s.projects.GetByID(ctx, upload.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "project does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrConflict, "project is closed")
	}

	if upload.BlogPostID != nil {
		if _, err := s.posts.GetByID(ctx, *upload.BlogPostID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "linked post does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
		}
	}

	object, publicURL, err := s.store.Save(upload.Filename, upload.File)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store upload")
	}

	image := &models.GalleryImage{
		URL:         publicURL,
		ObjectName:  object,
		Title:       upload.Title,
		Description: upload.Description,
		AuthorID:    actor.ID,
		ProjectID:   upload.ProjectID,
		BlogPostID:  upload.BlogPostID,
	}
	if err := s.repo.Create(ctx, image); err != nil {
		if cleanupErr := s.store.Delete(object); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("object", object), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record gallery image")
	}
	return image, nil
}

// List returns gallery images by project, post or author.
func (s *GalleryService) List(ctx context.Context, filter models.GalleryFilter) (*GalleryListResult, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gallery images")
	}
	return &GalleryListResult{Items: items, Total: total}, nil
}

// Delete removes a gallery image record and its stored file. Owner or admin
// only; the file removal is best-effort.
func (s *GalleryService) Delete(ctx context.Context, actor models.Actor, id string) error {
	image, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "gallery image not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gallery image")
	}

	if !CanPerform(actor, ActionDeleteGalleryImage, Resource{OwnerID: image.AuthorID}) {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete gallery image")
	}

	if image.ObjectName != "" {
		if err := s.store.Delete(image.ObjectName); err != nil {
			s.logger.Warn("failed to remove stored gallery object", zap.String("object", image.ObjectName), zap.Error(err))
		}
	}
	return nil
}
