package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuspress/campus-blog-api/internal/models"
)

func newCommentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func commentRows(comments ...models.Comment) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "content", "author_id", "blog_post_id", "parent_id", "created_at"})
	for _, c := range comments {
		rows.AddRow(c.ID, c.Content, c.AuthorID, c.BlogPostID, c.ParentID, c.CreatedAt)
	}
	return rows
}

func TestCommentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO comments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	comment := &models.Comment{
		Content:    "Great write-up!",
		AuthorID:   "viewer-1",
		BlogPostID: "post-1",
	}
	require.NoError(t, repo.Create(context.Background(), comment))
	require.NotEmpty(t, comment.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, content, author_id")).
		WithArgs(comment.ID).
		WillReturnRows(commentRows(*comment))

	found, err := repo.GetByID(context.Background(), comment.ID)
	require.NoError(t, err)
	require.Equal(t, "post-1", found.BlogPostID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryThreadOrdering(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("parent_id IS NULL ORDER BY created_at DESC")).
		WithArgs("post-1").
		WillReturnRows(commentRows(
			models.Comment{ID: "c-2", Content: "newer", AuthorID: "u-1", BlogPostID: "post-1", CreatedAt: now},
			models.Comment{ID: "c-1", Content: "older", AuthorID: "u-2", BlogPostID: "post-1", CreatedAt: now.Add(-time.Hour)},
		))

	top, err := repo.ListTopLevel(context.Background(), "post-1")
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "c-2", top[0].ID)

	parent := "c-1"
	mock.ExpectQuery(regexp.QuoteMeta("parent_id IS NOT NULL ORDER BY created_at ASC")).
		WithArgs("post-1").
		WillReturnRows(commentRows(
			models.Comment{ID: "r-1", Content: "first reply", AuthorID: "u-3", BlogPostID: "post-1", ParentID: &parent, CreatedAt: now},
		))

	replies, err := repo.ListReplies(context.Background(), "post-1")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.Equal(t, "c-1", *replies[0].ParentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryDeleteCascadesReplies(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE id = $1 OR parent_id = $1")).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryListRecentClampsLimit(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 20")).
		WillReturnRows(commentRows())

	_, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
