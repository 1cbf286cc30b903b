package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type commentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID string) ([]models.Comment, error)
	ListReplies(ctx context.Context, postID string) ([]models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

type postGetter interface {
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
}

// CommentService implements comment threading rules: max depth one, replies
// bound to a top-level parent on the same post.
type CommentService struct {
	repo      commentRepository
	posts     postGetter
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs a CommentService instance.
func NewCommentService(repo commentRepository, posts postGetter, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{repo: repo, posts: posts, audit: audit, validator: validate, logger: logger}
}

// Create adds a comment or reply to a post.
func (s *CommentService) Create(ctx context.Context, actor models.Actor, postID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if !CanPerform(actor, ActionCreateComment, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment content must not be empty")
	}

	post, err := s.visiblePost(ctx, &actor, postID)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrInvalidReply, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent comment")
		}
		if parent.BlogPostID != post.ID || parent.ParentID != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidReply, "")
		}
	}

	comment := &models.Comment{
		Content:    content,
		AuthorID:   actor.ID,
		BlogPostID: post.ID,
		ParentID:   req.ParentID,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}
	return comment, nil
}

// ListThreads returns the post's comments as threads: top-level newest first,
// replies within each thread oldest first.
func (s *CommentService) ListThreads(ctx context.Context, actor *models.Actor, postID string) ([]models.CommentThread, error) {
	post, err := s.visiblePost(ctx, actor, postID)
	if err != nil {
		return nil, err
	}

	topLevel, err := s.repo.ListTopLevel(ctx, post.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	replies, err := s.repo.ListReplies(ctx, post.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replies")
	}

	byParent := make(map[string][]models.Comment)
	for _, reply := range replies {
		if reply.ParentID == nil {
			continue
		}
		byParent[*reply.ParentID] = append(byParent[*reply.ParentID], reply)
	}

	threads := make([]models.CommentThread, 0, len(topLevel))
	for _, comment := range topLevel {
		threads = append(threads, models.CommentThread{
			Comment: comment,
			Replies: byParent[comment.ID],
		})
	}
	return threads, nil
}

// Update replaces a comment's content. Author or admin only.
func (s *CommentService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment content must not be empty")
	}

	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}

	if !CanPerform(actor, ActionEditComment, Resource{OwnerID: comment.AuthorID}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if err := s.repo.UpdateContent(ctx, id, content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	comment.Content = content
	return comment, nil
}

// Delete removes a comment. Deleting a top-level comment removes its replies
// with it.
func (s *CommentService) Delete(ctx context.Context, actor models.Actor, id string) error {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}

	if !CanPerform(actor, ActionDeleteComment, Resource{OwnerID: comment.AuthorID}) {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}

	if s.audit != nil && actor.ID != comment.AuthorID {
		oldValues, _ := json.Marshal(map[string]string{"author_id": comment.AuthorID, "content": comment.Content})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			ProfileID:  &actor.ID,
			Action:     models.AuditActionCommentDelete,
			Resource:   "comment",
			ResourceID: &id,
			OldValues:  oldValues,
		}); err != nil {
			s.logger.Warn("failed to record comment delete audit log", zap.Error(err))
		}
	}
	return nil
}

func (s *CommentService) visiblePost(ctx context.Context, actor *models.Actor, postID string) (*models.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if post.Status != models.PostStatusPublished {
		if actor == nil || !CanPerform(*actor, ActionViewPost, Resource{OwnerID: post.AuthorID, PostStatus: post.Status}) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
	}
	return post, nil
}
