package handler

import (
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// RegisterRoutes registers comment routes nested under a review
func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup) {
	comments := router.Group("/titles/:title_id/reviews/:review_id/comments", middleware.AuthorOrStaffOrReadOnly())
	{
		comments.GET("", h.List)
		comments.POST("", h.Create)
		comments.GET("/:comment_id", h.Get)
		comments.PATCH("/:comment_id", h.Patch)
		comments.PUT("/:comment_id", h.Put)
		comments.DELETE("/:comment_id", h.Delete)
	}
}

type commentPath struct {
	titleID, reviewID, commentID int64
}

func parseCommentPath(c *gin.Context, withComment bool) (commentPath, bool) {
	var p commentPath
	var ok bool
	if p.titleID, ok = pathID(c, "title_id", "title"); !ok {
		return p, false
	}
	if p.reviewID, ok = pathID(c, "review_id", "review"); !ok {
		return p, false
	}
	if withComment {
		if p.commentID, ok = pathID(c, "comment_id", "comment"); !ok {
			return p, false
		}
	}
	return p, true
}

// List GET .../reviews/:review_id/comments
func (h *CommentHandler) List(c *gin.Context) {
	p, ok := parseCommentPath(c, false)
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.commentService.ListByReview(c.Request.Context(), p.titleID, p.reviewID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get GET .../comments/:comment_id
func (h *CommentHandler) Get(c *gin.Context) {
	p, ok := parseCommentPath(c, true)
	if !ok {
		return
	}
	resp, err := h.commentService.GetByID(c.Request.Context(), p.titleID, p.reviewID, p.commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST .../reviews/:review_id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	p, ok := parseCommentPath(c, false)
	if !ok {
		return
	}
	var req dto.CreateCommentDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.commentService.Create(c.Request.Context(), middleware.CurrentIdentity(c), p.titleID, p.reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Patch PATCH .../comments/:comment_id
func (h *CommentHandler) Patch(c *gin.Context) {
	p, ok := parseCommentPath(c, true)
	if !ok {
		return
	}
	var req dto.UpdateCommentDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, p, req)
}

// Put PUT .../comments/:comment_id
func (h *CommentHandler) Put(c *gin.Context) {
	p, ok := parseCommentPath(c, true)
	if !ok {
		return
	}
	var req dto.CreateCommentDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, p, req.ToUpdate())
}

func (h *CommentHandler) update(c *gin.Context, p commentPath, req dto.UpdateCommentDTO) {
	resp, err := h.commentService.Update(c.Request.Context(), middleware.CurrentIdentity(c), p.titleID, p.reviewID, p.commentID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete DELETE .../comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	p, ok := parseCommentPath(c, true)
	if !ok {
		return
	}
	if err := h.commentService.Delete(c.Request.Context(), middleware.CurrentIdentity(c), p.titleID, p.reviewID, p.commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
