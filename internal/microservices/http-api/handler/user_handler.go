package handler

import (
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/users/me", middleware.RequireAuth())
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
	}

	users := router.Group("/users", middleware.RequireAdmin())
	{
		users.GET("", h.List)
		users.POST("", h.Create)
		users.GET("/:username", h.Get)
		users.PATCH("/:username", h.Patch)
		users.PUT("/:username", h.Put)
		users.DELETE("/:username", h.Delete)
	}
}

// Me GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	resp, err := h.userService.Me(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateMe PATCH /api/v1/users/me; a role in the body is ignored
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateUserDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.userService.UpdateMe(c.Request.Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List GET /api/v1/users?search=
func (h *UserHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.userService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	resp, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Patch PATCH /api/v1/users/:username
func (h *UserHandler) Patch(c *gin.Context) {
	var req dto.UpdateUserDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, req)
}

// Put PUT /api/v1/users/:username
func (h *UserHandler) Put(c *gin.Context) {
	var req dto.CreateUserDTO
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, req.ToUpdate())
}

func (h *UserHandler) update(c *gin.Context, req dto.UpdateUserDTO) {
	resp, err := h.userService.Update(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
