package handler

import (
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	reviews := router.Group("/titles/:title_id/reviews", middleware.AuthorOrStaffOrReadOnly())
	{
		reviews.GET("", h.List)
		reviews.POST("", h.Create)
		reviews.GET("/:review_id", h.Get)
		reviews.PATCH("/:review_id", h.Patch)
		reviews.PUT("/:review_id", h.Put)
		reviews.DELETE("/:review_id", h.Delete)
	}
}

func reviewPath(c *gin.Context) (titleID, reviewID int64, ok bool) {
	if titleID, ok = pathID(c, "title_id", "title"); !ok {
		return
	}
	if c.Param("review_id") == "" {
		return titleID, 0, true
	}
	reviewID, ok = pathID(c, "review_id", "review")
	return
}

// List GET /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	titleID, _, ok := reviewPath(c)
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.reviewService.ListByTitle(c.Request.Context(), titleID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get GET /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	resp, err := h.reviewService.GetByID(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, _, ok := reviewPath(c)
	if !ok {
		return
	}
	var req dto.CreateReviewDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.reviewService.Create(c.Request.Context(), middleware.CurrentIdentity(c), titleID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Patch PATCH /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Patch(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var req dto.UpdateReviewDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, titleID, reviewID, req)
}

// Put PUT /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Put(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var req dto.CreateReviewDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, titleID, reviewID, req.ToUpdate())
}

func (h *ReviewHandler) update(c *gin.Context, titleID, reviewID int64, req dto.UpdateReviewDTO) {
	resp, err := h.reviewService.Update(c.Request.Context(), middleware.CurrentIdentity(c), titleID, reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete DELETE /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), middleware.CurrentIdentity(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
