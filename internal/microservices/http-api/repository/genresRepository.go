package repository

import (
	"context"
	"strings"

	"titlehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type GenreRepository interface {
	List(ctx context.Context, search string, p Pagination) ([]models.Genre, int64, error)
	Create(ctx context.Context, g *models.Genre) error
	FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

type GenreRepo struct {
	db *gorm.DB
}

func NewGenreRepo(db *gorm.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

func (r *GenreRepo) List(ctx context.Context, search string, p Pagination) ([]models.Genre, int64, error) {
	var (
		list  []models.Genre
		total int64
	)
	q := r.db.WithContext(ctx).Model(&models.Genre{})
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError("count genres", err)
	}
	if err := q.Order("name asc").Limit(p.Limit()).Offset(p.Offset()).Find(&list).Error; err != nil {
		return nil, 0, translateError("get genres", err)
	}
	return list, total, nil
}

func (r *GenreRepo) Create(ctx context.Context, g *models.Genre) error {
	return translateError("create genre", r.db.WithContext(ctx).Create(g).Error)
}

// FindBySlugs returns the genres matching slugs, in name order. Missing slugs
// are simply absent from the result.
func (r *GenreRepo) FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	var list []models.Genre
	if len(slugs) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Order("name asc").Find(&list).Error; err != nil {
		return nil, translateError("get genres by slug", err)
	}
	return list, nil
}

// DeleteBySlug removes the genre and, through the join table constraint, its
// links to titles.
func (r *GenreRepo) DeleteBySlug(ctx context.Context, slug string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Genre
		if err := tx.Where("slug = ?", slug).First(&g).Error; err != nil {
			return translateError("delete genre", err)
		}
		if err := tx.Exec("DELETE FROM title_genres WHERE genre_id = ?", g.ID).Error; err != nil {
			return translateError("unlink genre", err)
		}
		if err := tx.Delete(&g).Error; err != nil {
			return translateError("delete genre", err)
		}
		return nil
	})
}
