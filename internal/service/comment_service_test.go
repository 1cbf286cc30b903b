package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type mockCommentRepo struct {
	comments map[string]models.Comment
	deleted  []string
	seq      int
	now      time.Time
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]models.Comment), now: time.Now().UTC()}
}

func (m *mockCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if c, ok := m.comments[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCommentRepo) ListTopLevel(ctx context.Context, postID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range m.comments {
		if c.BlogPostID == postID && c.ParentID == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCommentRepo) ListReplies(ctx context.Context, postID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range m.comments {
		if c.BlogPostID == postID && c.ParentID != nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	m.seq++
	if comment.ID == "" {
		comment.ID = "comment-" + strings.Repeat("x", m.seq)
	}
	comment.CreatedAt = m.now.Add(time.Duration(m.seq) * time.Second)
	m.comments[comment.ID] = *comment
	return nil
}

func (m *mockCommentRepo) UpdateContent(ctx context.Context, id, content string) error {
	c := m.comments[id]
	c.Content = content
	m.comments[id] = c
	return nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.comments, id)
	for key, c := range m.comments {
		if c.ParentID != nil && *c.ParentID == id {
			delete(m.comments, key)
		}
	}
	return nil
}

func commentFixturePosts() *mockProjectGetterPosts {
	return &mockProjectGetterPosts{posts: map[string]models.BlogPost{
		"post-live":  {ID: "post-live", AuthorID: "student-1", Status: models.PostStatusPublished},
		"post-draft": {ID: "post-draft", AuthorID: "student-1", Status: models.PostStatusDraft},
	}}
}

type mockProjectGetterPosts struct {
	posts map[string]models.BlogPost
}

func (m *mockProjectGetterPosts) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	if p, ok := m.posts[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func newCommentService(repo *mockCommentRepo) *CommentService {
	return NewCommentService(repo, commentFixturePosts(), nil, nil, nil)
}

var commentViewer = models.Actor{ID: "viewer-1", Role: models.RoleViewer}

func TestCommentCreateAndReply(t *testing.T) {
	repo := newMockCommentRepo()
	svc := newCommentService(repo)

	top, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "First!"})
	require.NoError(t, err)
	require.Nil(t, top.ParentID)

	reply, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{
		Content:  "Replying",
		ParentID: &top.ID,
	})
	require.NoError(t, err)
	require.Equal(t, top.ID, *reply.ParentID)
}

func TestCommentReplyToReplyRejected(t *testing.T) {
	repo := newMockCommentRepo()
	svc := newCommentService(repo)

	top, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "Top"})
	require.NoError(t, err)
	reply, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "Reply", ParentID: &top.ID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "Too deep", ParentID: &reply.ID})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidReply.Code, appErr.Code)
}

func TestCommentReplyAcrossPostsRejected(t *testing.T) {
	repo := newMockCommentRepo()
	svc := newCommentService(repo)

	// Parent lives on the draft post, visible to its author.
	author := models.Actor{ID: "student-1", Role: models.RoleStudent}
	parent, err := svc.Create(context.Background(), author, "post-draft", models.CreateCommentRequest{Content: "On draft"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{
		Content:  "Wrong post",
		ParentID: &parent.ID,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidReply.Code, appErr.Code)
}

func TestCommentReplyToMissingParentRejected(t *testing.T) {
	svc := newCommentService(newMockCommentRepo())

	missing := "11111111-1111-1111-1111-111111111111"
	_, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{
		Content:  "Orphan",
		ParentID: &missing,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidReply.Code, appErr.Code)
}

func TestCommentLengthLimit(t *testing.T) {
	svc := newCommentService(newMockCommentRepo())

	_, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{
		Content: strings.Repeat("a", models.CommentMaxLength+1),
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{
		Content: strings.Repeat("a", models.CommentMaxLength),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "   "})
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCommentThreadOrderingAsymmetry(t *testing.T) {
	repo := newMockCommentRepo()
	svc := newCommentService(repo)

	first, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "first top"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "second top"})
	require.NoError(t, err)

	replyA, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "reply a", ParentID: &first.ID})
	require.NoError(t, err)
	replyB, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "reply b", ParentID: &first.ID})
	require.NoError(t, err)

	threads, err := svc.ListThreads(context.Background(), nil, "post-live")
	require.NoError(t, err)
	require.Len(t, threads, 2)

	// Top-level newest first.
	require.Equal(t, second.ID, threads[0].ID)
	require.Equal(t, first.ID, threads[1].ID)

	// Replies oldest first.
	require.Len(t, threads[1].Replies, 2)
	require.Equal(t, replyA.ID, threads[1].Replies[0].ID)
	require.Equal(t, replyB.ID, threads[1].Replies[1].ID)
}

func TestCommentUpdateAndDeletePolicy(t *testing.T) {
	repo := newMockCommentRepo()
	svc := newCommentService(repo)

	comment, err := svc.Create(context.Background(), commentViewer, "post-live", models.CreateCommentRequest{Content: "Mine"})
	require.NoError(t, err)

	other := models.Actor{ID: "viewer-2", Role: models.RoleViewer}
	_, err = svc.Update(context.Background(), other, comment.ID, models.UpdateCommentRequest{Content: "hijack"})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	updated, err := svc.Update(context.Background(), commentViewer, comment.ID, models.UpdateCommentRequest{Content: "edited"})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)

	err = svc.Delete(context.Background(), other, comment.ID)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	require.NoError(t, svc.Delete(context.Background(), admin, comment.ID))
	require.Equal(t, []string{comment.ID}, repo.deleted)
}

func TestCommentOnDraftHiddenFromOthers(t *testing.T) {
	svc := newCommentService(newMockCommentRepo())

	_, err := svc.Create(context.Background(), commentViewer, "post-draft", models.CreateCommentRequest{Content: "sneaky"})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	_, err = svc.ListThreads(context.Background(), nil, "post-draft")
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
