package handler

import (
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// TitleQuery binds the list filters on GET /titles.
type TitleQuery struct {
	dto.PageQuery
	Category string `form:"category" binding:"omitempty,max=50"`
	Genre    string `form:"genre" binding:"omitempty,max=50"`
	Year     *int   `form:"year"`
	Name     string `form:"name" binding:"omitempty,max=50"`
}

type TitleHandler struct {
	titleService service.TitleService
}

func NewTitleHandler(titleService service.TitleService) *TitleHandler {
	return &TitleHandler{titleService: titleService}
}

func (h *TitleHandler) RegisterRoutes(router *gin.RouterGroup) {
	titles := router.Group("/titles", middleware.AdminOrReadOnly())
	{
		titles.GET("", h.List)
		titles.POST("", h.Create)
		titles.GET("/:title_id", h.Get)
		titles.PATCH("/:title_id", h.Patch)
		titles.PUT("/:title_id", h.Put)
		titles.DELETE("/:title_id", h.Delete)
	}
}

// List GET /api/v1/titles?category=&genre=&year=&name=
func (h *TitleHandler) List(c *gin.Context) {
	var q TitleQuery
	if !bindQuery(c, &q) {
		return
	}
	filter := repository.TitleFilter{
		CategorySlug: q.Category,
		GenreSlug:    q.Genre,
		Year:         q.Year,
		Name:         q.Name,
	}
	resp, err := h.titleService.List(c.Request.Context(), filter, q.PageQuery)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get GET /api/v1/titles/:title_id
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}
	resp, err := h.titleService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /api/v1/titles
func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.titleService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Patch PATCH /api/v1/titles/:title_id (partial update)
func (h *TitleHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}
	var req dto.UpdateTitleDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, id, req)
}

// Put PUT /api/v1/titles/:title_id (full replacement)
func (h *TitleHandler) Put(c *gin.Context) {
	id, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}
	var req dto.CreateTitleDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, id, req.ToUpdate())
}

func (h *TitleHandler) update(c *gin.Context, id int64, req dto.UpdateTitleDTO) {
	resp, err := h.titleService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete DELETE /api/v1/titles/:title_id
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}
	if err := h.titleService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
