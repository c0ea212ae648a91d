package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"titlehub/database"
	"titlehub/internal/config"
	"titlehub/internal/mailer"
	"titlehub/internal/microservices/http-api/handler"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/service"
	"titlehub/internal/microservices/http-api/validator"
	"titlehub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server_exit", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	rdb, err := database.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	var limiter middleware.RateLimiter
	if rdb != nil {
		defer rdb.Close()
		limiter = middleware.NewRedisLimiter(rdb, cfg.AuthRateLimit, cfg.AuthRateWindow)
		log.Info("rate_limit_backend", "backend", "redis")
	} else {
		limiter = middleware.NewLocalLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
		log.Info("rate_limit_backend", "backend", "memory")
	}

	var sender mailer.Sender
	if addr := cfg.SMTPAddr(); addr != "" {
		smtpSender, err := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		if err != nil {
			return err
		}
		log.Info("smtp_relay", "addr", addr)
		sender = smtpSender
	} else {
		log.Warn("smtp_not_configured", "detail", "confirmation codes are written to the log")
		sender = mailer.NewLogSender(log)
	}
	sender = mailer.NewRetrySender(sender, mailer.RetryConfig{
		MaxRetries:    cfg.MailMaxRetries,
		RatePerSecond: cfg.MailRatePerSecond,
	}, log)

	router := handler.NewRouter(newServices(db, cfg, sender, log), handler.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		AuthLimiter:    limiter,
		HealthCheck:    func(ctx context.Context) error { return database.Ping(ctx, db) },
	}, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http_server_started", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown_signal_received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("http_server_stopped")
	return nil
}

func newServices(db *gorm.DB, cfg *config.Config, sender mailer.Sender, log *slog.Logger) handler.Services {
	clock := validator.SystemClock{}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepo(db)
	titleRepo := repository.NewTitleRepo(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	return handler.Services{
		Auth:     service.NewAuthService(userRepo, sender, cfg, clock, log),
		Category: service.NewCategoryService(categoryRepo, log),
		Genre:    service.NewGenreService(genreRepo, log),
		Title:    service.NewTitleService(titleRepo, categoryRepo, genreRepo, clock, log),
		Review:   service.NewReviewService(reviewRepo, titleRepo, log),
		Comment:  service.NewCommentService(commentRepo, reviewRepo, log),
		User:     service.NewUserService(userRepo, log),
	}
}
