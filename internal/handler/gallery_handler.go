package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/service"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
	"github.com/campuspress/campus-blog-api/pkg/response"
)

// GalleryHandler wires HTTP endpoints to the gallery service.
type GalleryHandler struct {
	service *service.GalleryService
}

// NewGalleryHandler creates a new handler.
func NewGalleryHandler(svc *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{service: svc}
}

// List godoc
// @Summary List gallery images
// @Description List gallery images, optionally filtered by project, post or author
// @Tags Gallery
// @Produce json
// @Param project_id query string false "Filter by project"
// @Param blog_post_id query string false "Filter by blog post"
// @Param author_id query string false "Filter by author"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /gallery [get]
func (h *GalleryHandler) List(c *gin.Context) {
	var filter models.GalleryFilter
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	if postID := c.Query("blog_post_id"); postID != "" {
		filter.BlogPostID = &postID
	}
	if authorID := c.Query("author_id"); authorID != "" {
		filter.AuthorID = &authorID
	}
	filter.Page, filter.PageSize = parsePagination(c)

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items, paginationMeta(filter.Page, filter.PageSize, result.Total))
}

// Upload godoc
// @Summary Upload a gallery image
// @Description Upload an image into an open project's gallery, optionally linked to a blog post
// @Tags Gallery
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param project_id formData string true "Project id"
// @Param blog_post_id formData string false "Blog post id"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gallery [post]
func (h *GalleryHandler) Upload(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "image file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close()

	upload := service.GalleryUpload{
		Filename:  fileHeader.Filename,
		File:      file,
		Size:      fileHeader.Size,
		ProjectID: c.PostForm("project_id"),
	}
	if title := c.PostForm("title"); title != "" {
		upload.Title = &title
	}
	if description := c.PostForm("description"); description != "" {
		upload.Description = &description
	}
	if postID := c.PostForm("blog_post_id"); postID != "" {
		upload.BlogPostID = &postID
	}

	image, err := h.service.Upload(c.Request.Context(), *actor, upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, image)
}

// Delete godoc
// @Summary Delete a gallery image
// @Description Delete a gallery image. Uploader or admin only.
// @Tags Gallery
// @Produce json
// @Param id path string true "Image id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /gallery/{id} [delete]
func (h *GalleryHandler) Delete(c *gin.Context) {
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
