package repository

import (
	"context"

	"titlehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	ListByReview(ctx context.Context, reviewID int64, p Pagination) ([]models.Comment, int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create a new comment
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return translateError("create comment", r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
}

// Update an existing comment
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return translateError("update comment", r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error)
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if result.Error != nil {
		return translateError("delete comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("delete comment", gorm.ErrRecordNotFound)
	}
	return nil
}

// GetByID retrieves a comment that belongs to the given review
func (r *commentRepository) GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("id = ? AND review_id = ?", commentID, reviewID).
		Preload("Author").
		First(&comment).Error
	if err != nil {
		return nil, translateError("get comment", err)
	}
	return &comment, nil
}

// ListByReview retrieves comments on a review, newest first, with pagination
func (r *commentRepository) ListByReview(ctx context.Context, reviewID int64, p Pagination) ([]models.Comment, int64, error) {
	var (
		comments []models.Comment
		total    int64
	)

	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("review_id = ?", reviewID).Count(&total).Error; err != nil {
		return nil, 0, translateError("count comments", err)
	}

	err := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Preload("Author").
		Order("pub_date DESC").
		Order("id DESC").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&comments).Error
	if err != nil {
		return nil, 0, translateError("list comments", err)
	}
	return comments, total, nil
}
