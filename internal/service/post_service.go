package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/repository"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type postRepository interface {
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	List(ctx context.Context, filter models.PostFilter) ([]models.BlogPost, int, error)
	FindSlugs(ctx context.Context, base string) ([]string, error)
	Create(ctx context.Context, post *models.BlogPost) error
	Update(ctx context.Context, post *models.BlogPost) error
	Delete(ctx context.Context, id string) error
}

type projectGetter interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

type feedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PostListResult is the one-logical-call listing contract.
type PostListResult struct {
	Items []models.BlogPost `json:"items"`
	Total int               `json:"total"`
}

const feedCacheKeyPrefix = "feed:posts:"

// PostService implements blog post authoring, visibility and listing rules.
type PostService struct {
	repo      postRepository
	projects  projectGetter
	cache     feedCache
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewPostService constructs a PostService instance. cache may be nil when
// feed caching is disabled.
func NewPostService(repo postRepository, projects projectGetter, cache feedCache, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &PostService{repo: repo, projects: projects, cache: cache, audit: audit, metrics: metrics, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// Create authors a new post. Status defaults to draft; publishing on create
// stamps published_at immediately.
func (s *PostService) Create(ctx context.Context, actor models.Actor, req models.CreatePostRequest) (*models.BlogPost, error) {
	if !CanPerform(actor, ActionCreatePost, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}

	if req.ProjectID != nil {
		if err := s.requireOpenProject(ctx, *req.ProjectID); err != nil {
			return nil, err
		}
	}

	slug, err := s.uniqueSlug(ctx, slugify(req.Title))
	if err != nil {
		return nil, err
	}

	post := &models.BlogPost{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		AuthorID:  actor.ID,
		ProjectID: req.ProjectID,
		Status:    status,
		Slug:      slug,
	}
	if status == models.PostStatusPublished {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, post); err != nil {
		// A slug race lost to a concurrent insert. Re-disambiguate against
		// the now-current set and retry once.
		if repository.IsUniqueViolation(err) {
			post.Slug, err = s.uniqueSlug(ctx, slugify(req.Title))
			if err != nil {
				return nil, err
			}
			if err := s.repo.Create(ctx, post); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "could not allocate a unique slug")
			}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
		}
	}

	if post.Status == models.PostStatusPublished {
		s.invalidateFeed(ctx)
	}
	return post, nil
}

// Update applies a partial patch. draft→published stamps published_at exactly
// once; the stamp is immutable afterwards. The slug is recomputed only while
// the post is still a draft and the title changes.
func (s *PostService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdatePostRequest) (*models.BlogPost, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post patch")
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if !CanPerform(actor, ActionEditPost, Resource{OwnerID: post.AuthorID, PostStatus: post.Status}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	wasPublishedListed := post.Status == models.PostStatusPublished
	titleChanged := false

	if req.Title != nil && strings.TrimSpace(*req.Title) != post.Title {
		post.Title = strings.TrimSpace(*req.Title)
		titleChanged = true
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Excerpt != nil {
		post.Excerpt = req.Excerpt
	}
	if req.ProjectID != nil {
		if err := s.requireOpenProject(ctx, *req.ProjectID); err != nil {
			return nil, err
		}
		post.ProjectID = req.ProjectID
	}
	if req.Status != nil && *req.Status != post.Status {
		if *req.Status == models.PostStatusPublished && post.PublishedAt == nil {
			now := time.Now().UTC()
			post.PublishedAt = &now
		}
		post.Status = *req.Status
	}

	if titleChanged && post.Status == models.PostStatusDraft && post.PublishedAt == nil {
		post.Slug, err = s.uniqueSlug(ctx, slugify(post.Title))
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, post); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slug already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update post")
	}

	if wasPublishedListed || post.Status == models.PostStatusPublished {
		s.invalidateFeed(ctx)
	}
	return post, nil
}

// Delete removes a post, cascading comments and detaching gallery links.
func (s *PostService) Delete(ctx context.Context, actor models.Actor, id string) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if !CanPerform(actor, ActionDeletePost, Resource{OwnerID: post.AuthorID, PostStatus: post.Status}) {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}

	if s.audit != nil {
		oldValues, _ := json.Marshal(map[string]string{"title": post.Title, "status": string(post.Status)})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			ProfileID:  &actor.ID,
			Action:     models.AuditActionPostDelete,
			Resource:   "blog_post",
			ResourceID: &id,
			OldValues:  oldValues,
		}); err != nil {
			s.logger.Warn("failed to record post delete audit log", zap.Error(err))
		}
	}

	if post.Status == models.PostStatusPublished {
		s.invalidateFeed(ctx)
	}
	return nil
}

// GetBySlug returns a post for reading. Drafts are visible only to their
// author and admins; an invisible draft is indistinguishable from an absent
// post.
func (s *PostService) GetBySlug(ctx context.Context, actor *models.Actor, slug string) (*models.BlogPost, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	return s.applyVisibility(actor, post)
}

// GetByID returns a post by id under the same visibility rules.
func (s *PostService) GetByID(ctx context.Context, actor *models.Actor, id string) (*models.BlogPost, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	return s.applyVisibility(actor, post)
}

func (s *PostService) applyVisibility(actor *models.Actor, post *models.BlogPost) (*models.BlogPost, error) {
	if post.Status == models.PostStatusPublished {
		return post, nil
	}
	if actor != nil && CanPerform(*actor, ActionViewPost, Resource{OwnerID: post.AuthorID, PostStatus: post.Status}) {
		return post, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
}

// List returns posts for the caller. Anyone who is not an admin and is not
// asking for their own posts is forced to status=published regardless of the
// requested filter.
func (s *PostService) List(ctx context.Context, actor *models.Actor, filter models.PostFilter) (*PostListResult, error) {
	filter.Statuses = s.resolveStatuses(actor, filter)

	publicFeed := actor == nil && filter.AuthorID == nil
	if publicFeed {
		if cached := s.feedFromCache(ctx, filter); cached != nil {
			return cached, nil
		}
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	result := &PostListResult{Items: items, Total: total}

	if publicFeed {
		s.feedToCache(ctx, filter, result)
	}
	return result, nil
}

// ListOwn is the student dashboard listing: the caller's posts across all
// statuses.
func (s *PostService) ListOwn(ctx context.Context, actor models.Actor, filter models.PostFilter) (*PostListResult, error) {
	if !CanPerform(actor, ActionStudentDashboard, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	filter.AuthorID = &actor.ID
	if len(filter.Statuses) == 0 {
		filter.Statuses = []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished}
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	return &PostListResult{Items: items, Total: total}, nil
}

func (s *PostService) resolveStatuses(actor *models.Actor, filter models.PostFilter) []models.PostStatus {
	if actor != nil {
		if actor.Role == models.RoleAdmin {
			if len(filter.Statuses) == 0 {
				return []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished}
			}
			return filter.Statuses
		}
		if filter.AuthorID != nil && *filter.AuthorID == actor.ID {
			if len(filter.Statuses) == 0 {
				return []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished}
			}
			return filter.Statuses
		}
	}
	return []models.PostStatus{models.PostStatusPublished}
}

func (s *PostService) requireOpenProject(ctx context.Context, projectID string) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "project does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.Status != models.ProjectStatusOpen {
		return appErrors.Clone(appErrors.ErrConflict, "project is closed")
	}
	return nil
}

func (s *PostService) uniqueSlug(ctx context.Context, base string) (string, error) {
	taken, err := s.repo.FindSlugs(ctx, base)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slugs")
	}
	existing := make(map[string]bool, len(taken))
	for _, slug := range taken {
		existing[slug] = true
	}
	if !existing[base] {
		return base, nil
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !existing[candidate] {
			return candidate, nil
		}
	}
}

func (s *PostService) feedCacheKey(filter models.PostFilter) string {
	projectID := ""
	if filter.ProjectID != nil {
		projectID = *filter.ProjectID
	}
	return fmt.Sprintf("%sproject=%s:search=%s:sort=%s-%s:page=%d:size=%d",
		feedCacheKeyPrefix, projectID, strings.ToLower(filter.Search), filter.SortBy, filter.SortOrder, filter.Page, filter.PageSize)
}

func (s *PostService) feedFromCache(ctx context.Context, filter models.PostFilter) *PostListResult {
	if s.cache == nil {
		return nil
	}
	var result PostListResult
	if err := s.cache.Get(ctx, s.feedCacheKey(filter), &result); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("feed cache read failed", zap.Error(err))
		}
		s.metrics.RecordFeedCache(false)
		return nil
	}
	s.metrics.RecordFeedCache(true)
	return &result
}

func (s *PostService) feedToCache(ctx context.Context, filter models.PostFilter, result *PostListResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.feedCacheKey(filter), result, s.cacheTTL); err != nil {
		s.logger.Warn("feed cache write failed", zap.Error(err))
	}
}

func (s *PostService) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, feedCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("feed cache invalidation failed", zap.Error(err))
	}
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases the title and collapses everything non-alphanumeric into
// single hyphens.
func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "post"
	}
	return slug
}
