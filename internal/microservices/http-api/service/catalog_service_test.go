package service

import (
	"context"
	"testing"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo, discardLogger())

	repo.On("FindBySlug", mock.Anything, "film").Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, &models.Category{Name: "Film", Slug: "film"}).Return(nil)

	resp, err := svc.Create(context.Background(), dto.CategoryRequest{Name: "Film", Slug: "film"})
	require.NoError(t, err)
	assert.Equal(t, dto.CategoryResponse{Name: "Film", Slug: "film"}, *resp)
}

func TestCategoryService_CreateDuplicateSlug(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo, discardLogger())

	repo.On("FindBySlug", mock.Anything, "film").Return(&models.Category{ID: 1, Slug: "film"}, nil)

	_, err := svc.Create(context.Background(), dto.CategoryRequest{Name: "Film", Slug: "film"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "slug")
}

func TestCategoryService_DeleteMissing(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo, discardLogger())
	repo.On("DeleteBySlug", mock.Anything, "nope").Return(repository.ErrNotFound)

	err := svc.Delete(context.Background(), "nope")
	assert.EqualError(t, err, "category not found")
}

func TestCategoryService_ListSearch(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo, discardLogger())

	repo.On("List", mock.Anything, "fi", repository.Pagination{Page: 1, PageSize: repository.DefaultPageSize}).
		Return([]models.Category{{Name: "Film", Slug: "film"}}, int64(1), nil)

	resp, err := svc.List(context.Background(), dto.PageQuery{Search: "fi"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, "film", resp.Data[0].Slug)
}

func TestGenreService_CreateConflict(t *testing.T) {
	repo := new(MockGenreRepository)
	svc := NewGenreService(repo, discardLogger())

	repo.On("FindBySlugs", mock.Anything, []string{"drama"}).Return([]models.Genre{}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrConflict)

	_, err := svc.Create(context.Background(), dto.GenreRequest{Name: "Drama", Slug: "drama"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "slug")
}

func TestGenreService_Delete(t *testing.T) {
	repo := new(MockGenreRepository)
	svc := NewGenreService(repo, discardLogger())
	repo.On("DeleteBySlug", mock.Anything, "drama").Return(nil)

	assert.NoError(t, svc.Delete(context.Background(), "drama"))
	repo.AssertExpectations(t)
}
