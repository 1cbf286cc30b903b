package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/render"
	"github.com/campuspress/campus-blog-api/internal/service"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
	"github.com/campuspress/campus-blog-api/pkg/response"
)

// PostHandler wires HTTP endpoints to the post service.
type PostHandler struct {
	service *service.PostService
}

// NewPostHandler creates a new handler.
func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{service: svc}
}

func postFilterFromQuery(c *gin.Context) models.PostFilter {
	filter := models.PostFilter{
		Search:    c.Query("search"),
		SortBy:    c.DefaultQuery("sort_by", "published_at"),
		SortOrder: c.DefaultQuery("sort_order", models.SortDesc),
	}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []models.PostStatus{models.PostStatus(status)}
	}
	filter.Page, filter.PageSize = parsePagination(c)
	return filter
}

// List godoc
// @Summary List posts
// @Description List posts with search, project filter, sort and pagination. Non-admin callers only see published posts.
// @Tags Posts
// @Produce json
// @Param search query string false "Free-text search over title, content and excerpt"
// @Param project_id query string false "Filter by project"
// @Param sort_by query string false "published_at or created_at"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	filter := postFilterFromQuery(c)

	result, err := h.service.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items, paginationMeta(filter.Page, filter.PageSize, result.Total))
}

// ListOwn godoc
// @Summary List own posts
// @Description List the caller's posts across drafts and published
// @Tags Posts
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/posts [get]
func (h *PostHandler) ListOwn(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := postFilterFromQuery(c)
	result, err := h.service.ListOwn(c.Request.Context(), *actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items, paginationMeta(filter.Page, filter.PageSize, result.Total))
}

// lookupPost resolves the path segment as a slug first, then as an id, so
// both addressing styles work on the read endpoints.
func (h *PostHandler) lookupPost(c *gin.Context) (*models.BlogPost, error) {
	actor := actorFromContext(c)
	ref := c.Param("id")

	post, err := h.service.GetBySlug(c.Request.Context(), actor, ref)
	if err != nil && appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
		return h.service.GetByID(c.Request.Context(), actor, ref)
	}
	return post, err
}

// Get godoc
// @Summary Get a post
// @Description Fetch a post by slug or id. Drafts are only visible to their author and admins.
// @Tags Posts
// @Produce json
// @Param id path string true "Post slug or id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.lookupPost(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, post, nil)
}

// GetRendered godoc
// @Summary Get a rendered post
// @Description Fetch a post with its content rendered into paragraph and image blocks
// @Tags Posts
// @Produce json
// @Param id path string true "Post slug or id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id}/rendered [get]
func (h *PostHandler) GetRendered(c *gin.Context) {
	post, err := h.lookupPost(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"post":   post,
		"blocks": render.Render(post.Content),
	}, nil)
}

// Create godoc
// @Summary Create a post
// @Description Author a new post. Status defaults to draft.
// @Tags Posts
// @Accept json
// @Produce json
// @Param payload body models.CreatePostRequest true "Post payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload"))
		return
	}

	post, err := h.service.Create(c.Request.Context(), *actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, post)
}

// Update godoc
// @Summary Update a post
// @Description Patch a post. Publishing a draft stamps published_at once.
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path string true "Post id"
// @Param payload body models.UpdatePostRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id} [patch]
func (h *PostHandler) Update(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post patch"))
		return
	}

	post, err := h.service.Update(c.Request.Context(), *actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, post, nil)
}

// Delete godoc
// @Summary Delete a post
// @Description Delete a post with its comments; gallery images are detached
// @Tags Posts
// @Produce json
// @Param id path string true "Post id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), *actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
