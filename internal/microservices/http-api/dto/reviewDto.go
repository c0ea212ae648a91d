package dto

import (
	"time"

	"titlehub/internal/microservices/http-api/models"
)

// CreateReviewDTO used for POST and PUT on reviews
type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateReviewDTO used for PATCH on reviews
type UpdateReviewDTO struct {
	Text  *string `json:"text,omitempty" binding:"omitempty,min=1"`
	Score *int    `json:"score,omitempty" binding:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func (d CreateReviewDTO) ToUpdate() UpdateReviewDTO {
	return UpdateReviewDTO{Text: &d.Text, Score: &d.Score}
}

func (d UpdateReviewDTO) ApplyTo(r *models.Review) {
	if d.Text != nil {
		r.Text = *d.Text
	}
	if d.Score != nil {
		r.Score = *d.Score
	}
}

// FromReviewModel expects Author to be loaded.
func FromReviewModel(r models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

func FromReviewModels(list []models.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(list))
	for _, r := range list {
		out = append(out, FromReviewModel(r))
	}
	return out
}
