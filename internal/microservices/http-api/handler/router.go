package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/service"
	"titlehub/internal/microservices/http-api/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth     service.AuthService
	Category service.CategoryService
	Genre    service.GenreService
	Title    service.TitleService
	Review   service.ReviewService
	Comment  service.CommentService
	User     service.UserService
}

type RouterOptions struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	// TrustedProxies may set the client address through X-Forwarded-For;
	// with none the peer address is used.
	TrustedProxies []string
	AuthLimiter    middleware.RateLimiter
	// HealthCheck backs GET /check-conn; nil reports healthy.
	HealthCheck func(ctx context.Context) error
}

func NewRouter(svc Services, opts RouterOptions, log *slog.Logger) *gin.Engine {
	validator.RegisterBindings()

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Error("trusted_proxies_invalid", "error", err.Error())
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Retry-After"},
			MaxAge:        12 * time.Hour,
		}))
	}
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.GET("/check-conn", func(c *gin.Context) {
		if opts.HealthCheck != nil {
			if err := opts.HealthCheck(c.Request.Context()); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"message": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	})

	limit := func(c *gin.Context) { c.Next() }
	if opts.AuthLimiter != nil {
		limit = middleware.RateLimit(opts.AuthLimiter, log)
	}

	api := r.Group("/api/v1", middleware.Authenticate(svc.Auth))
	NewAuthHandler(svc.Auth).RegisterRoutes(api, limit)
	NewCategoryHandler(svc.Category).RegisterRoutes(api)
	NewGenreHandler(svc.Genre).RegisterRoutes(api)
	NewTitleHandler(svc.Title).RegisterRoutes(api)
	NewReviewHandler(svc.Review).RegisterRoutes(api)
	NewCommentHandler(svc.Comment).RegisterRoutes(api)
	NewUserHandler(svc.User).RegisterRoutes(api)

	return r
}
