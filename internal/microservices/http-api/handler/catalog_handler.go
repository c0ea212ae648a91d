package handler

import (
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/categories", middleware.AdminOrReadOnly())
	{
		categories.GET("", h.List)
		categories.POST("", h.Create)
		categories.DELETE("/:slug", h.Delete)
	}
}

// List GET /api/v1/categories?search=
func (h *CategoryHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.categoryService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /api/v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.categoryService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete DELETE /api/v1/categories/:slug
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categoryService.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type GenreHandler struct {
	genreService service.GenreService
}

func NewGenreHandler(genreService service.GenreService) *GenreHandler {
	return &GenreHandler{genreService: genreService}
}

func (h *GenreHandler) RegisterRoutes(router *gin.RouterGroup) {
	genres := router.Group("/genres", middleware.AdminOrReadOnly())
	{
		genres.GET("", h.List)
		genres.POST("", h.Create)
		genres.DELETE("/:slug", h.Delete)
	}
}

// List GET /api/v1/genres?search=
func (h *GenreHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.genreService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /api/v1/genres
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.GenreRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.genreService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete DELETE /api/v1/genres/:slug
func (h *GenreHandler) Delete(c *gin.Context) {
	if err := h.genreService.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
