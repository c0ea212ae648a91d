package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/validator"
)

type TitleService interface {
	List(ctx context.Context, f repository.TitleFilter, q dto.PageQuery) (*dto.PaginatedResponse[dto.TitleResponse], error)
	GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	repo         repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	clock        validator.Clock
	log          *slog.Logger
}

func NewTitleService(
	repo repository.TitleRepository,
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
	clock validator.Clock,
	log *slog.Logger,
) TitleService {
	return &titleService{
		repo:         repo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		clock:        clock,
		log:          log,
	}
}

func (s *titleService) List(ctx context.Context, f repository.TitleFilter, q dto.PageQuery) (*dto.PaginatedResponse[dto.TitleResponse], error) {
	p := pageOf(q)
	list, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return paginate(list, dto.FromTitleModels, p, total), nil
}

func (s *titleService) GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("title", err)
	}
	resp := dto.FromTitleModel(*t)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	t := req.ToModel()
	category := req.Category
	genres := req.Genre
	if genres == nil {
		genres = []string{}
	}
	if err := s.resolve(ctx, &t, &category, &genres); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &t); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "title_created", "title_id", t.ID, "name", t.Name)
	return s.GetByID(ctx, t.ID)
}

// Update applies a partial change. Fields left nil in req keep their value.
func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("title", err)
	}

	req.ApplyTo(t)
	if err := s.resolve(ctx, t, req.Category, req.Genre); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "title_updated", "title_id", t.ID)
	return s.GetByID(ctx, t.ID)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound("title", err)
	}
	s.log.InfoContext(ctx, "title_deleted", "title_id", id)
	return nil
}

// resolve checks the year and replaces category/genre slugs with the stored
// rows. A nil pointer leaves that association untouched.
func (s *titleService) resolve(ctx context.Context, t *models.Title, category *string, genres *[]string) error {
	verr := &ValidationError{}

	if t.Year != nil {
		if err := validator.ValidateYear(*t.Year, s.clock.Now()); err != nil {
			verr.Add("year", err.Error())
		}
	}

	if category != nil {
		slug := strings.TrimSpace(*category)
		if slug == "" {
			t.CategoryID = nil
			t.Category = nil
		} else {
			c, err := s.categoryRepo.FindBySlug(ctx, slug)
			switch {
			case err == nil:
				t.CategoryID = &c.ID
				t.Category = c
			case errors.Is(err, repository.ErrNotFound):
				verr.Add("category", fmt.Sprintf("object with slug=%s does not exist", slug))
			default:
				return err
			}
		}
	}

	if genres != nil {
		slugs := uniqueSlugs(*genres)
		found := []models.Genre{}
		if len(slugs) > 0 {
			var err error
			found, err = s.genreRepo.FindBySlugs(ctx, slugs)
			if err != nil {
				return err
			}
		}
		known := make(map[string]bool, len(found))
		for _, g := range found {
			known[g.Slug] = true
		}
		for _, slug := range slugs {
			if !known[slug] {
				verr.Add("genre", fmt.Sprintf("object with slug=%s does not exist", slug))
			}
		}
		t.Genres = found
	}

	return verr.OrNil()
}

func uniqueSlugs(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
