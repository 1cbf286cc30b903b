package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campuspress/campus-blog-api/internal/middleware"
	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/service"
)

type fakePostRepo struct {
	posts      map[string]*models.BlogPost
	lastFilter models.PostFilter
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]*models.BlogPost{}}
}

func (f *fakePostRepo) GetByID(_ context.Context, id string) (*models.BlogPost, error) {
	if post, ok := f.posts[id]; ok {
		copied := *post
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakePostRepo) GetBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	for _, post := range f.posts {
		if post.Slug == slug {
			copied := *post
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePostRepo) List(_ context.Context, filter models.PostFilter) ([]models.BlogPost, int, error) {
	f.lastFilter = filter
	items := make([]models.BlogPost, 0, len(f.posts))
	for _, post := range f.posts {
		matched := false
		for _, status := range filter.Statuses {
			if post.Status == status {
				matched = true
			}
		}
		if matched {
			items = append(items, *post)
		}
	}
	return items, len(items), nil
}

func (f *fakePostRepo) FindSlugs(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakePostRepo) Create(_ context.Context, post *models.BlogPost) error {
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostRepo) Update(_ context.Context, post *models.BlogPost) error {
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id string) error {
	delete(f.posts, id)
	return nil
}

func newPostHandlerUnderTest(repo *fakePostRepo) *PostHandler {
	svc := service.NewPostService(repo, nil, nil, nil, nil, nil, nil, 0)
	return NewPostHandler(svc)
}

func authedContext(rec *httptest.ResponseRecorder, req *http.Request, claims *models.JWTClaims) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c
}

func TestPostHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPostHandlerUnderTest(newFakePostRepo())

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"title":"Hello","content":"World"}`)
	c := authedContext(rec, httptest.NewRequest(http.MethodPost, "/posts", body), nil)

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPostHandlerUnderTest(newFakePostRepo())

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"title":`)
	c := authedContext(rec, httptest.NewRequest(http.MethodPost, "/posts", body),
		&models.JWTClaims{ProfileID: "student-1", Role: models.RoleStudent})

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakePostRepo()
	handler := newPostHandlerUnderTest(repo)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"title":"Robotics Week","content":"We built a rover."}`)
	c := authedContext(rec, httptest.NewRequest(http.MethodPost, "/posts", body),
		&models.JWTClaims{ProfileID: "student-1", Role: models.RoleStudent})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data models.BlogPost `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "robotics-week", envelope.Data.Slug)
	assert.Equal(t, models.PostStatusDraft, envelope.Data.Status)
	assert.Equal(t, "student-1", envelope.Data.AuthorID)
}

func TestPostHandlerListForcesPublishedForAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakePostRepo()
	now := time.Now()
	repo.posts["post-1"] = &models.BlogPost{ID: "post-1", Title: "Live", Slug: "live", Status: models.PostStatusPublished, PublishedAt: &now}
	repo.posts["post-2"] = &models.BlogPost{ID: "post-2", Title: "Hidden", Slug: "hidden", Status: models.PostStatusDraft}
	handler := newPostHandlerUnderTest(repo)

	rec := httptest.NewRecorder()
	c := authedContext(rec, httptest.NewRequest(http.MethodGet, "/posts?status=draft", nil), nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.PostStatus{models.PostStatusPublished}, repo.lastFilter.Statuses)
	var envelope struct {
		Data       []models.BlogPost  `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, "live", envelope.Data[0].Slug)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestPostHandlerGetHidesDrafts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakePostRepo()
	repo.posts["post-2"] = &models.BlogPost{ID: "post-2", Title: "Hidden", Slug: "hidden", AuthorID: "student-1", Status: models.PostStatusDraft}
	handler := newPostHandlerUnderTest(repo)

	rec := httptest.NewRecorder()
	c := authedContext(rec, httptest.NewRequest(http.MethodGet, "/posts/hidden", nil), nil)
	c.Params = gin.Params{{Key: "id", Value: "hidden"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	c = authedContext(rec, httptest.NewRequest(http.MethodGet, "/posts/hidden", nil),
		&models.JWTClaims{ProfileID: "student-1", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "hidden"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostHandlerGetFallsBackToID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakePostRepo()
	now := time.Now()
	repo.posts["post-1"] = &models.BlogPost{ID: "post-1", Title: "Live", Slug: "live", Status: models.PostStatusPublished, PublishedAt: &now}
	handler := newPostHandlerUnderTest(repo)

	rec := httptest.NewRecorder()
	c := authedContext(rec, httptest.NewRequest(http.MethodGet, "/posts/post-1", nil), nil)
	c.Params = gin.Params{{Key: "id", Value: "post-1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostHandlerGetRenderedReturnsBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakePostRepo()
	now := time.Now()
	repo.posts["post-1"] = &models.BlogPost{
		ID:          "post-1",
		Title:       "Live",
		Slug:        "live",
		Content:     "First paragraph.\n\n![rover](https://cdn.example.edu/rover.png)",
		Status:      models.PostStatusPublished,
		PublishedAt: &now,
	}
	handler := newPostHandlerUnderTest(repo)

	rec := httptest.NewRecorder()
	c := authedContext(rec, httptest.NewRequest(http.MethodGet, "/posts/live/rendered", nil), nil)
	c.Params = gin.Params{{Key: "id", Value: "live"}}

	handler.GetRendered(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Blocks []map[string]interface{} `json:"blocks"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Blocks, 2)
	assert.Equal(t, "paragraph", envelope.Data.Blocks[0]["type"])
	assert.Equal(t, "image", envelope.Data.Blocks[1]["type"])
}

func TestPostFilterFromQueryDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/posts?search=rover&page=3&page_size=500", nil)

	filter := postFilterFromQuery(c)

	assert.Equal(t, "rover", filter.Search)
	assert.Equal(t, "published_at", filter.SortBy)
	assert.Equal(t, models.SortDesc, filter.SortOrder)
	assert.Equal(t, 3, filter.Page)
	assert.Equal(t, 20, filter.PageSize)
}
