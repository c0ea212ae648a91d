package service

import (
	"context"
	"io"
	"log/slog"

	"titlehub/internal/mailer"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, search string, p repository.Pagination) ([]models.User, int64, error) {
	args := m.Called(ctx, search, p)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

// MockCategoryRepository mocks the CategoryRepository interface
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context, search string, p repository.Pagination) ([]models.Category, int64, error) {
	args := m.Called(ctx, search, p)
	return args.Get(0).([]models.Category), args.Get(1).(int64), args.Error(2)
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *models.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

// MockGenreRepository mocks the GenreRepository interface
type MockGenreRepository struct {
	mock.Mock
}

func (m *MockGenreRepository) List(ctx context.Context, search string, p repository.Pagination) ([]models.Genre, int64, error) {
	args := m.Called(ctx, search, p)
	return args.Get(0).([]models.Genre), args.Get(1).(int64), args.Error(2)
}

func (m *MockGenreRepository) Create(ctx context.Context, g *models.Genre) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGenreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	args := m.Called(ctx, slugs)
	return args.Get(0).([]models.Genre), args.Error(1)
}

func (m *MockGenreRepository) DeleteBySlug(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

// MockTitleRepository mocks the TitleRepository interface
type MockTitleRepository struct {
	mock.Mock
}

func (m *MockTitleRepository) List(ctx context.Context, f repository.TitleFilter, p repository.Pagination) ([]models.Title, int64, error) {
	args := m.Called(ctx, f, p)
	return args.Get(0).([]models.Title), args.Get(1).(int64), args.Error(2)
}

func (m *MockTitleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleRepository) Create(ctx context.Context, t *models.Title) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTitleRepository) Update(ctx context.Context, t *models.Title) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTitleRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewRepository mocks the ReviewRepository interface
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByTitle(ctx context.Context, titleID int64, p repository.Pagination) ([]models.Review, int64, error) {
	args := m.Called(ctx, titleID, p)
	return args.Get(0).([]models.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) ExistsForAuthor(ctx context.Context, authorID string, titleID int64) (bool, error) {
	args := m.Called(ctx, authorID, titleID)
	return args.Bool(0), args.Error(1)
}

// MockCommentRepository mocks the CommentRepository interface
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	args := m.Called(ctx, reviewID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListByReview(ctx context.Context, reviewID int64, p repository.Pagination) ([]models.Comment, int64, error) {
	args := m.Called(ctx, reviewID, p)
	return args.Get(0).([]models.Comment), args.Get(1).(int64), args.Error(2)
}

// MockSender mocks mailer.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
