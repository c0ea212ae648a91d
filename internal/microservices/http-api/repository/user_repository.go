package repository

import (
	"context"
	"strings"

	"titlehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, search string, p Pagination) ([]models.User, int64, error)
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translateError("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return translateError("update user", r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return translateError("delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("delete user", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	// return nil rather than a zero-value user so callers never mistake it for a hit
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateError("find user by username", err)
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateError("find user by id", err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translateError("find user by email", err)
	}
	return &user, nil
}

// List returns users ordered by username; search is a case-insensitive
// substring match on username.
func (r *userRepository) List(ctx context.Context, search string, p Pagination) ([]models.User, int64, error) {
	var (
		list  []models.User
		total int64
	)

	q := r.db.WithContext(ctx).Model(&models.User{})
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError("count users", err)
	}
	if err := q.Order("username asc").Limit(p.Limit()).Offset(p.Offset()).Find(&list).Error; err != nil {
		return nil, 0, translateError("list users", err)
	}
	return list, total, nil
}
