package service

import (
	"context"
	"log/slog"
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"
)

type CommentService interface {
	ListByReview(ctx context.Context, titleID, reviewID int64, q dto.PageQuery) (*dto.PaginatedResponse[dto.CommentResponse], error)
	GetByID(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error)
	Update(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64, req dto.UpdateCommentDTO) (*dto.CommentResponse, error)
	Delete(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64) error
}

type commentService struct {
	repo       repository.CommentRepository
	reviewRepo repository.ReviewRepository
	policy     permission.AuthorOrStaffOrReadOnly
	log        *slog.Logger
}

func NewCommentService(repo repository.CommentRepository, reviewRepo repository.ReviewRepository, log *slog.Logger) CommentService {
	return &commentService{repo: repo, reviewRepo: reviewRepo, log: log}
}

// ensureReview checks that the review exists under the given title.
func (s *commentService) ensureReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviewRepo.GetByID(ctx, titleID, reviewID); err != nil {
		return notFound("review", err)
	}
	return nil
}

func (s *commentService) load(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.ensureReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, notFound("comment", err)
	}
	return c, nil
}

func (s *commentService) ListByReview(ctx context.Context, titleID, reviewID int64, q dto.PageQuery) (*dto.PaginatedResponse[dto.CommentResponse], error) {
	if err := s.ensureReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	p := pageOf(q)
	list, total, err := s.repo.ListByReview(ctx, reviewID, p)
	if err != nil {
		return nil, err
	}
	return paginate(list, dto.FromCommentModels, p, total), nil
}

func (s *commentService) GetByID(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	c, err := s.load(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromCommentModel(*c)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error) {
	if !s.policy.HasPermission(http.MethodPost, id) {
		return nil, ErrUnauthenticated
	}
	if err := s.ensureReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AuthorID: id.UserID,
		ReviewID: reviewID,
		Text:     req.Text,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, notFound("review", err)
	}
	s.log.InfoContext(ctx, "comment_created", "comment_id", comment.ID, "review_id", reviewID, "author", id.Username)
	return s.GetByID(ctx, titleID, reviewID, comment.ID)
}

func (s *commentService) Update(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64, req dto.UpdateCommentDTO) (*dto.CommentResponse, error) {
	c, err := s.load(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if !s.policy.HasObjectPermission(http.MethodPatch, id, c.AuthorID) {
		return nil, ErrForbidden
	}

	req.ApplyTo(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "comment_updated", "comment_id", c.ID, "by", id.Username)
	resp := dto.FromCommentModel(*c)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, id permission.Identity, titleID, reviewID, commentID int64) error {
	c, err := s.load(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if !s.policy.HasObjectPermission(http.MethodDelete, id, c.AuthorID) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return notFound("comment", err)
	}
	s.log.InfoContext(ctx, "comment_deleted", "comment_id", c.ID, "by", id.Username)
	return nil
}
