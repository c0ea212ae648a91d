package dto

import "titlehub/internal/microservices/http-api/models"

// GenreRequest used for POST /api/v1/genres
type GenreRequest struct {
	Name string `json:"name" binding:"required,max=200"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (d GenreRequest) ToModel() models.Genre {
	return models.Genre{Name: d.Name, Slug: d.Slug}
}

func FromGenreModel(g models.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Slug: g.Slug}
}

func FromGenreModels(list []models.Genre) []GenreResponse {
	out := make([]GenreResponse, 0, len(list))
	for _, g := range list {
		out = append(out, FromGenreModel(g))
	}
	return out
}
