package handler

import (
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes mounts the sign-up flow; limit guards both endpoints.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, limit gin.HandlerFunc) {
	auth := router.Group("/auth", limit)
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/token", h.Token)
	}
}

// Signup creates an account or re-sends a code
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Token exchanges a confirmation code for an access token
// POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.ObtainToken(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
