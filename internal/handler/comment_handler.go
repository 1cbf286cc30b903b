package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/service"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
	"github.com/campuspress/campus-blog-api/pkg/response"
)

// CommentHandler wires HTTP endpoints to the comment service.
type CommentHandler struct {
	service *service.CommentService
}

// NewCommentHandler creates a new handler.
func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// ListForPost godoc
// @Summary List comments
// @Description List a post's comment threads: top-level newest first, replies oldest first
// @Tags Comments
// @Produce json
// @Param id path string true "Post id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id}/comments [get]
func (h *CommentHandler) ListForPost(c *gin.Context) {
	threads, err := h.service.ListThreads(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, threads, nil)
}

// Create godoc
// @Summary Comment on a post
// @Description Add a comment or a reply to a top-level comment on the same post
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Post id"
// @Param payload body models.CreateCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /posts/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.Create(c.Request.Context(), *actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// Update godoc
// @Summary Edit a comment
// @Description Replace a comment's content. Author or admin only.
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Comment id"
// @Param payload body models.UpdateCommentRequest true "Comment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/{id} [patch]
func (h *CommentHandler) Update(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.Update(c.Request.Context(), *actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comment, nil)
}

// Delete godoc
// @Summary Delete a comment
// @Description Delete a comment; deleting a top-level comment removes its replies
// @Tags Comments
// @Produce json
// @Param id path string true "Comment id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
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
