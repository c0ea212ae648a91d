package dto

import "titlehub/internal/microservices/http-api/models"

// CreateTitleDTO used for POST and PUT /api/v1/titles. Genres and category
// are referenced by slug.
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=50"`
	Year        *int     `json:"year,omitempty" binding:"omitempty,min=0"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" binding:"omitempty,dive,required,max=50"`
	Category    string   `json:"category" binding:"omitempty,max=50"`
}

// UpdateTitleDTO used for PATCH /api/v1/titles/:title_id. An empty category
// string detaches the category.
type UpdateTitleDTO struct {
	Name        *string   `json:"name,omitempty" binding:"omitempty,min=1,max=50"`
	Year        *int      `json:"year,omitempty" binding:"omitempty,min=0"`
	Description *string   `json:"description,omitempty"`
	Genre       *[]string `json:"genre,omitempty" binding:"omitempty,dive,required,max=50"`
	Category    *string   `json:"category,omitempty" binding:"omitempty,max=50"`
}

// TitleResponse is the read shape, also returned from writes.
type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        *int              `json:"year"`
	Rating      *float64          `json:"rating"`
	Description string            `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

// ToModel copies the scalar fields; slugs are resolved by the service.
func (d CreateTitleDTO) ToModel() models.Title {
	return models.Title{
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
	}
}

// ToUpdate expresses a full replacement as a partial update touching every field.
func (d CreateTitleDTO) ToUpdate() UpdateTitleDTO {
	genre := d.Genre
	if genre == nil {
		genre = []string{}
	}
	category := d.Category
	return UpdateTitleDTO{
		Name:        &d.Name,
		Year:        d.Year,
		Description: &d.Description,
		Genre:       &genre,
		Category:    &category,
	}
}

// ApplyTo copies the scalar fields that are present onto t.
func (d UpdateTitleDTO) ApplyTo(t *models.Title) {
	if d.Name != nil {
		t.Name = *d.Name
	}
	if d.Year != nil {
		t.Year = d.Year
	}
	if d.Description != nil {
		t.Description = *d.Description
	}
}

func FromTitleModel(t models.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       FromGenreModels(t.Genres),
	}
	if t.Category != nil {
		c := FromCategoryModel(*t.Category)
		resp.Category = &c
	}
	return resp
}

func FromTitleModels(list []models.Title) []TitleResponse {
	out := make([]TitleResponse, 0, len(list))
	for _, t := range list {
		out = append(out, FromTitleModel(t))
	}
	return out
}
