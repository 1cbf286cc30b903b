package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type moderationPostRepository interface {
	List(ctx context.Context, filter models.PostFilter) ([]models.BlogPost, int, error)
	CountByStatus(ctx context.Context) (map[models.PostStatus]int, error)
}

type moderationCommentRepository interface {
	ListRecent(ctx context.Context, limit int) ([]models.Comment, error)
	Count(ctx context.Context) (int, error)
}

type moderationProfileRepository interface {
	CountByRole(ctx context.Context) (map[models.ProfileRole]int, error)
}

type moderationProjectRepository interface {
	Count(ctx context.Context) (int, error)
}

// DashboardCounts is the admin dashboard summary.
type DashboardCounts struct {
	PostsByStatus  map[models.PostStatus]int  `json:"posts_by_status"`
	ProfilesByRole map[models.ProfileRole]int `json:"profiles_by_role"`
	Comments       int                        `json:"comments"`
	Projects       int                        `json:"projects"`
}

// ModerationService serves the admin-only listing and dashboard queries. It
// is the only code path that queries across all authors and statuses.
type ModerationService struct {
	posts    moderationPostRepository
	comments moderationCommentRepository
	profiles moderationProfileRepository
	projects moderationProjectRepository
	logger   *zap.Logger
}

// NewModerationService constructs a ModerationService instance.
func NewModerationService(posts moderationPostRepository, comments moderationCommentRepository, profiles moderationProfileRepository, projects moderationProjectRepository, logger *zap.Logger) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{posts: posts, comments: comments, profiles: profiles, projects: projects, logger: logger}
}

// ListAllPosts returns posts across all statuses and authors.
func (s *ModerationService) ListAllPosts(ctx context.Context, actor models.Actor, filter models.PostFilter) (*PostListResult, error) {
	if !CanPerform(actor, ActionAdminDashboard, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished}
	}
	if filter.SortBy == "" {
		filter.SortBy = "created_at"
	}
	items, total, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	return &PostListResult{Items: items, Total: total}, nil
}

// RecentComments returns the most recent comments across all posts.
func (s *ModerationService) RecentComments(ctx context.Context, actor models.Actor, limit int) ([]models.Comment, error) {
	if !CanPerform(actor, ActionAdminDashboard, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	comments, err := s.comments.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent comments")
	}
	return comments, nil
}

// Dashboard aggregates the admin overview counts.
func (s *ModerationService) Dashboard(ctx context.Context, actor models.Actor) (*DashboardCounts, error) {
	if !CanPerform(actor, ActionAdminDashboard, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	postsByStatus, err := s.posts.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count posts")
	}
	profilesByRole, err := s.profiles.CountByRole(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count profiles")
	}
	commentCount, err := s.comments.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count comments")
	}
	projectCount, err := s.projects.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count projects")
	}

	return &DashboardCounts{
		PostsByStatus:  postsByStatus,
		ProfilesByRole: profilesByRole,
		Comments:       commentCount,
		Projects:       projectCount,
	}, nil
}
