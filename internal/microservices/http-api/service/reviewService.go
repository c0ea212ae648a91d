package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"
)

const msgDuplicateReview = "you have already reviewed this title"

type ReviewService interface {
	ListByTitle(ctx context.Context, titleID int64, q dto.PageQuery) (*dto.PaginatedResponse[dto.ReviewResponse], error)
	GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, id permission.Identity, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, id permission.Identity, titleID, reviewID int64) error
}

type reviewService struct {
	repo      repository.ReviewRepository
	titleRepo repository.TitleRepository
	policy    permission.AuthorOrStaffOrReadOnly
	log       *slog.Logger
}

func NewReviewService(repo repository.ReviewRepository, titleRepo repository.TitleRepository, log *slog.Logger) ReviewService {
	return &reviewService{repo: repo, titleRepo: titleRepo, log: log}
}

func (s *reviewService) ensureTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		return notFound("title", err)
	}
	return nil
}

func (s *reviewService) ListByTitle(ctx context.Context, titleID int64, q dto.PageQuery) (*dto.PaginatedResponse[dto.ReviewResponse], error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}
	p := pageOf(q)
	list, total, err := s.repo.ListByTitle(ctx, titleID, p)
	if err != nil {
		return nil, err
	}
	return paginate(list, dto.FromReviewModels, p, total), nil
}

func (s *reviewService) GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	r, err := s.repo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound("review", err)
	}
	resp := dto.FromReviewModel(*r)
	return &resp, nil
}

// Create posts the caller's review. Each author reviews a title at most once.
func (s *reviewService) Create(ctx context.Context, id permission.Identity, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if !s.policy.HasPermission(http.MethodPost, id) {
		return nil, ErrUnauthenticated
	}
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForAuthor(ctx, id.UserID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewValidationError(NonFieldErrors, msgDuplicateReview)
	}

	review := &models.Review{
		AuthorID: id.UserID,
		TitleID:  titleID,
		Text:     req.Text,
		Score:    req.Score,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewValidationError(NonFieldErrors, msgDuplicateReview)
		}
		return nil, notFound("title", err)
	}
	s.log.InfoContext(ctx, "review_created", "review_id", review.ID, "title_id", titleID, "author", id.Username)
	return s.GetByID(ctx, titleID, review.ID)
}

func (s *reviewService) Update(ctx context.Context, id permission.Identity, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := s.repo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound("review", err)
	}
	if !s.policy.HasObjectPermission(http.MethodPatch, id, review.AuthorID) {
		return nil, ErrForbidden
	}

	req.ApplyTo(review)
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "review_updated", "review_id", review.ID, "by", id.Username)
	resp := dto.FromReviewModel(*review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, id permission.Identity, titleID, reviewID int64) error {
	review, err := s.repo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return notFound("review", err)
	}
	if !s.policy.HasObjectPermission(http.MethodDelete, id, review.AuthorID) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, review.ID); err != nil {
		return notFound("review", err)
	}
	s.log.InfoContext(ctx, "review_deleted", "review_id", review.ID, "by", id.Username)
	return nil
}
