package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// IdentityKey holds the caller set by Authenticate.
const IdentityKey = "identity"

// TokenAuthenticator resolves a bearer token to the caller. service.AuthService
// satisfies it.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, tokenString string) (permission.Identity, error)
}

// Authenticate reads an optional bearer token. Requests without an
// Authorization header continue as anonymous; a malformed or invalid token is
// rejected with 401.
func Authenticate(authenticator TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// format: "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		id, err := authenticator.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(IdentityKey, id)
		c.Next()
	}
}

// CurrentIdentity returns the caller set by Authenticate, or the anonymous identity.
func CurrentIdentity(c *gin.Context) permission.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(permission.Identity); ok {
			return id
		}
	}
	return permission.Identity{}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()})
}

func abortForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentIdentity(c).Authenticated() {
			abortUnauthenticated(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin admits the admin role and superusers only.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if !id.Authenticated() {
			abortUnauthenticated(c)
			return
		}
		if !permission.AdminOnly(id) {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// AdminOrReadOnly lets every caller read and only admins write.
func AdminOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if permission.AdminOrReadOnly(c.Request.Method, id) {
			c.Next()
			return
		}
		if !id.Authenticated() {
			abortUnauthenticated(c)
			return
		}
		abortForbidden(c)
	}
}

// AuthorOrStaffOrReadOnly is the collection-level check for reviews and
// comments. Ownership of an existing object is enforced by the services.
func AuthorOrStaffOrReadOnly() gin.HandlerFunc {
	policy := permission.AuthorOrStaffOrReadOnly{}
	return func(c *gin.Context) {
		if !policy.HasPermission(c.Request.Method, CurrentIdentity(c)) {
			abortUnauthenticated(c)
			return
		}
		c.Next()
	}
}
