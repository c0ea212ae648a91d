package dto

import "titlehub/internal/microservices/http-api/models"

// CategoryRequest used for POST /api/v1/categories
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=200"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (d CategoryRequest) ToModel() models.Category {
	return models.Category{Name: d.Name, Slug: d.Slug}
}

func FromCategoryModel(c models.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Slug: c.Slug}
}

func FromCategoryModels(list []models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, FromCategoryModel(c))
	}
	return out
}
