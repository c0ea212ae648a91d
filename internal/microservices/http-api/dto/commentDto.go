package dto

import (
	"time"

	"titlehub/internal/microservices/http-api/models"
)

// CreateCommentDTO used for POST and PUT on comments
type CreateCommentDTO struct {
	Text string `json:"text" binding:"required"`
}

// UpdateCommentDTO used for PATCH on comments
type UpdateCommentDTO struct {
	Text *string `json:"text,omitempty" binding:"omitempty,min=1"`
}

type CommentResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Review  int64     `json:"review"`
	PubDate time.Time `json:"pub_date"`
}

func (d CreateCommentDTO) ToUpdate() UpdateCommentDTO {
	return UpdateCommentDTO{Text: &d.Text}
}

func (d UpdateCommentDTO) ApplyTo(c *models.Comment) {
	if d.Text != nil {
		c.Text = *d.Text
	}
}

func FromCommentModel(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author.Username,
		Review:  c.ReviewID,
		PubDate: c.PubDate,
	}
}

func FromCommentModels(list []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(list))
	for _, c := range list {
		out = append(out, FromCommentModel(c))
	}
	return out
}
