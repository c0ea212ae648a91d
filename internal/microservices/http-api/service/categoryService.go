package service

import (
	"context"
	"errors"
	"log/slog"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/repository"
)

type CategoryService interface {
	List(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.CategoryResponse], error)
	Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
	log  *slog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, log *slog.Logger) CategoryService {
	return &categoryService{repo: repo, log: log}
}

func (s *categoryService) List(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.CategoryResponse], error) {
	p := pageOf(q)
	list, total, err := s.repo.List(ctx, q.Search, p)
	if err != nil {
		return nil, err
	}
	return paginate(list, dto.FromCategoryModels, p, total), nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	_, err := s.repo.FindBySlug(ctx, req.Slug)
	switch {
	case err == nil:
		return nil, NewValidationError("slug", "category with this slug already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	c := req.ToModel()
	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewValidationError("slug", "category with this slug already exists")
		}
		return nil, err
	}
	s.log.InfoContext(ctx, "category_created", "slug", c.Slug)
	resp := dto.FromCategoryModel(c)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return notFound("category", err)
	}
	s.log.InfoContext(ctx, "category_deleted", "slug", slug)
	return nil
}
