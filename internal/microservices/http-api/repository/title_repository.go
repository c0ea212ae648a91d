package repository

import (
	"context"
	"strings"

	"titlehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ratingSelect adds the mean review score to each title row. A correlated
// subquery keeps the genre filter join from skewing the average.
const ratingSelect = "titles.*, (SELECT CAST(AVG(reviews.score) AS FLOAT) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

// TitleFilter narrows the title list. Zero values are ignored.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Year         *int
	Name         string
}

type TitleRepository interface {
	List(ctx context.Context, f TitleFilter, p Pagination) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, t *models.Title) error
	Update(ctx context.Context, t *models.Title) error
	Delete(ctx context.Context, id int64) error
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

func (r *TitleRepo) List(ctx context.Context, f TitleFilter, p Pagination) ([]models.Title, int64, error) {
	var (
		list  []models.Title
		total int64
	)

	q := r.db.WithContext(ctx).Model(&models.Title{})
	if f.CategorySlug != "" {
		q = q.Where("titles.category_id IN (SELECT id FROM categories WHERE slug = ?)", f.CategorySlug)
	}
	if f.GenreSlug != "" {
		q = q.Where("titles.id IN (SELECT tg.title_id FROM title_genres tg JOIN genres g ON g.id = tg.genre_id WHERE g.slug = ?)", f.GenreSlug)
	}
	if f.Year != nil {
		q = q.Where("titles.year = ?", *f.Year)
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where("LOWER(titles.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError("count titles", err)
	}

	if err := q.Select(ratingSelect).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		Order("titles.year asc").
		Order("titles.id asc").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, translateError("list titles", err)
	}
	return list, total, nil
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).
		Select(ratingSelect).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		Where("titles.id = ?", id).
		First(&t).Error; err != nil {
		return nil, translateError("get title", err)
	}
	return &t, nil
}

// Create inserts the title and links the genres already present on t.Genres.
func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres := t.Genres
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return translateError("create title", err)
		}
		if len(genres) > 0 {
			if err := tx.Model(t).Association("Genres").Replace(genres); err != nil {
				return translateError("link genres", err)
			}
		}
		return nil
	})
}

// Update saves scalar fields and replaces the genre set with t.Genres.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres := t.Genres
		if err := tx.Omit(clause.Associations).Save(t).Error; err != nil {
			return translateError("update title", err)
		}
		assoc := tx.Model(t).Association("Genres")
		var err error
		if len(genres) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(genres)
		}
		if err != nil {
			return translateError("replace genres", err)
		}
		return nil
	})
}

// Delete removes the title; its reviews and their comments go with it via
// ON DELETE CASCADE.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM title_genres WHERE title_id = ?", id).Error; err != nil {
			return translateError("unlink title genres", err)
		}
		result := tx.Delete(&models.Title{}, id)
		if result.Error != nil {
			return translateError("delete title", result.Error)
		}
		if result.RowsAffected == 0 {
			return translateError("delete title", gorm.ErrRecordNotFound)
		}
		return nil
	})
}
