package repository

import (
	"context"
	"strings"

	"titlehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	List(ctx context.Context, search string, p Pagination) ([]models.Category, int64, error)
	Create(ctx context.Context, c *models.Category) error
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context, search string, p Pagination) ([]models.Category, int64, error) {
	var (
		list  []models.Category
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError("count categories", err)
	}
	if err := q.Order("name asc").Limit(p.Limit()).Offset(p.Offset()).Find(&list).Error; err != nil {
		return nil, 0, translateError("get categories", err)
	}
	return list, total, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *models.Category) error {
	return translateError("create category", r.db.WithContext(ctx).Create(c).Error)
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translateError("find category", err)
	}
	return &c, nil
}

// DeleteBySlug removes the category; titles referencing it keep existing with
// category_id cleared by the ON DELETE SET NULL constraint.
func (r *categoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	result := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Category{})
	if result.Error != nil {
		return translateError("delete category", result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("delete category", gorm.ErrRecordNotFound)
	}
	return nil
}
