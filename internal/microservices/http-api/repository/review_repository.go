package repository

import (
	"context"

	"titlehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	ListByTitle(ctx context.Context, titleID int64, p Pagination) ([]models.Review, int64, error)
	ExistsForAuthor(ctx context.Context, authorID string, titleID int64) (bool, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create a new review; a second review by the same author on the same title
// fails with ErrConflict from the unique index.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return translateError("create review", r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error)
}

// Update an existing review
func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return translateError("update review", r.db.WithContext(ctx).Omit(clause.Associations).Save(review).Error)
}

// Delete a review; its comments cascade
func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	if result.Error != nil {
		return translateError("delete review", result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("delete review", gorm.ErrRecordNotFound)
	}
	return nil
}

// GetByID retrieves a review that belongs to the given title
func (r *reviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ? AND title_id = ?", reviewID, titleID).
		Preload("Author").
		First(&review).Error
	if err != nil {
		return nil, translateError("get review", err)
	}
	return &review, nil
}

// ListByTitle retrieves reviews for a title, newest first, with pagination
func (r *reviewRepository) ListByTitle(ctx context.Context, titleID int64, p Pagination) ([]models.Review, int64, error) {
	var (
		reviews []models.Review
		total   int64
	)

	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, translateError("count reviews", err)
	}

	err := r.db.WithContext(ctx).
		Where("title_id = ?", titleID).
		Preload("Author").
		Order("pub_date DESC").
		Order("id DESC").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, translateError("list reviews", err)
	}
	return reviews, total, nil
}

func (r *reviewRepository) ExistsForAuthor(ctx context.Context, authorID string, titleID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		Count(&count).Error
	if err != nil {
		return false, translateError("check review", err)
	}
	return count > 0, nil
}
