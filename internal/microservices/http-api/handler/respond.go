package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"titlehub/internal/microservices/http-api/service"
	"titlehub/internal/microservices/http-api/validator"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto status codes. Anything unexpected is
// recorded on the context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.Is(err, service.ErrInvalidConfirmationCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidConfirmationCode.Error()})
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMailDelivery):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrMailDelivery.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request timed out"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondBindError(c *gin.Context, err error) {
	if fields, ok := validator.FieldErrors(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{service.NonFieldErrors: []string{"malformed request: " + err.Error()}}})
}

// bindJSON decodes and validates the body, answering 400 itself on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// pathID parses a numeric path parameter. Non-numeric ids cannot name a
// stored object, so they answer 404.
func pathID(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
		return 0, false
	}
	return id, true
}
