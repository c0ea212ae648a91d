package service

import (
	"context"
	"errors"
	"log/slog"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/repository"
)

type GenreService interface {
	List(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.GenreResponse], error)
	Create(ctx context.Context, req dto.GenreRequest) (*dto.GenreResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
	log  *slog.Logger
}

func NewGenreService(repo repository.GenreRepository, log *slog.Logger) GenreService {
	return &genreService{repo: repo, log: log}
}

func (s *genreService) List(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.GenreResponse], error) {
	p := pageOf(q)
	list, total, err := s.repo.List(ctx, q.Search, p)
	if err != nil {
		return nil, err
	}
	return paginate(list, dto.FromGenreModels, p, total), nil
}

func (s *genreService) Create(ctx context.Context, req dto.GenreRequest) (*dto.GenreResponse, error) {
	existing, err := s.repo.FindBySlugs(ctx, []string{req.Slug})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, NewValidationError("slug", "genre with this slug already exists")
	}

	g := req.ToModel()
	if err := s.repo.Create(ctx, &g); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewValidationError("slug", "genre with this slug already exists")
		}
		return nil, err
	}
	s.log.InfoContext(ctx, "genre_created", "slug", g.Slug)
	resp := dto.FromGenreModel(g)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return notFound("genre", err)
	}
	s.log.InfoContext(ctx, "genre_deleted", "slug", slug)
	return nil
}
