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

func newPostRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func postRows(posts ...models.BlogPost) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "content", "excerpt", "author_id", "project_id", "status", "slug", "created_at", "updated_at", "published_at"})
	for _, p := range posts {
		rows.AddRow(p.ID, p.Title, p.Content, p.Excerpt, p.AuthorID, p.ProjectID, p.Status, p.Slug, p.CreatedAt, p.UpdatedAt, p.PublishedAt)
	}
	return rows
}

func TestPostRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blog_posts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	post := &models.BlogPost{
		Title:    "Robotics week recap",
		Content:  "We built a line follower.",
		AuthorID: "student-1",
		Status:   models.PostStatusDraft,
		Slug:     "robotics-week-recap",
	}
	require.NoError(t, repo.Create(context.Background(), post))
	require.NotEmpty(t, post.ID)
	require.False(t, post.CreatedAt.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, content, excerpt")).
		WithArgs(post.ID).
		WillReturnRows(postRows(*post))

	found, err := repo.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, post.Slug, found.Slug)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	now := time.Now()
	published := models.BlogPost{
		ID:          "post-1",
		Title:       "Science fair results",
		Content:     "The winners are in.",
		AuthorID:    "student-2",
		Status:      models.PostStatusPublished,
		Slug:        "science-fair-results",
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: &now,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, content, excerpt")).
		WithArgs(sqlmock.AnyArg(), "%science%").
		WillReturnRows(postRows(published))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(sqlmock.AnyArg(), "%science%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	posts, total, err := repo.List(context.Background(), models.PostFilter{
		Statuses: []models.PostStatus{models.PostStatusPublished},
		Search:   "Science",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, posts, 1)
	require.Equal(t, "post-1", posts[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryFindSlugs(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	rows := sqlmock.NewRows([]string{"slug"}).
		AddRow("my-post").
		AddRow("my-post-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT slug FROM blog_posts")).
		WithArgs("my-post").
		WillReturnRows(rows)

	slugs, err := repo.FindSlugs(context.Background(), "my-post")
	require.NoError(t, err)
	require.Equal(t, []string{"my-post", "my-post-2"}, slugs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE blog_post_id = $1")).
		WithArgs("post-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE gallery_images SET blog_post_id = NULL")).
		WithArgs("post-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blog_posts WHERE id = $1")).
		WithArgs("post-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "post-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("published", 4).
		AddRow("draft", 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*)")).
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, counts[models.PostStatusPublished])
	require.Equal(t, 2, counts[models.PostStatusDraft])
	require.NoError(t, mock.ExpectationsWereMet())
}
